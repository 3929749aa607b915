package appointment

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/healthplus/backend/internal/repo"
	"github.com/healthplus/backend/internal/repo/memrepo"
	"github.com/healthplus/backend/internal/service/actor"
	"github.com/healthplus/backend/pkg/constants"
	"github.com/healthplus/backend/pkg/events"
)

type fixture struct {
	store   *repo.Store
	svc     Service
	seen    []events.AppointmentStatusChanged
	doctor  actor.Actor
	patient actor.Actor
	admin   actor.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: memrepo.New()}
	bus := events.NewMemory()
	require.NoError(t, bus.Subscribe(constants.SubjectAppointmentStatus, func(_ context.Context, data []byte) error {
		var ev events.AppointmentStatusChanged
		if err := json.Unmarshal(data, &ev); err != nil {
			return err
		}
		f.seen = append(f.seen, ev)
		return nil
	}))
	f.svc = New(f.store, bus, nil)

	d := &repo.Doctor{FullName: "Dr Rao", Email: "rao@clinic.io", PasswordHash: "x", VerificationStatus: repo.StatusVerified}
	require.NoError(t, f.store.Doctors.Create(context.Background(), d))
	f.doctor = actor.Actor{ID: d.ID, Role: repo.RoleDoctor}
	f.patient = actor.Actor{ID: primitive.NewObjectID(), Role: repo.RolePatient}
	f.admin = actor.Actor{ID: primitive.NewObjectID(), Role: repo.RoleAdmin}
	return f
}

func (f *fixture) book(t *testing.T) *repo.Appointment {
	t.Helper()
	appt, err := f.svc.Book(context.Background(), f.patient, BookRequest{
		DoctorID: f.doctor.ID.Hex(),
		Date:     "2026-11-02",
		Time:     "10:30",
		Notes:    " fever ",
	})
	require.NoError(t, err)
	return appt
}

func strptr(s string) *string { return &s }

func TestBook(t *testing.T) {
	f := newFixture(t)
	appt := f.book(t)

	assert.Equal(t, repo.AppointmentPending, appt.Status)
	assert.Equal(t, f.patient.ID, appt.PatientID)
	assert.Equal(t, f.doctor.ID, appt.DoctorID)
	assert.Equal(t, "fever", appt.Notes)
	assert.False(t, appt.ID.IsZero())
}

func TestBookValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pending := &repo.Doctor{FullName: "Dr New", Email: "new@clinic.io", PasswordHash: "x", VerificationStatus: repo.StatusPending}
	require.NoError(t, f.store.Doctors.Create(ctx, pending))

	tests := []struct {
		name string
		req  BookRequest
		want error
	}{
		{"bad date", BookRequest{DoctorID: f.doctor.ID.Hex(), Date: "02/11/2026", Time: "10:30"}, ErrInvalidDate},
		{"bad time", BookRequest{DoctorID: f.doctor.ID.Hex(), Date: "2026-11-02", Time: "25:00"}, ErrInvalidTime},
		{"malformed doctor id", BookRequest{DoctorID: "nope", Date: "2026-11-02", Time: "10:30"}, ErrDoctorUnavailable},
		{"unknown doctor", BookRequest{DoctorID: primitive.NewObjectID().Hex(), Date: "2026-11-02", Time: "10:30"}, ErrDoctorUnavailable},
		{"unverified doctor", BookRequest{DoctorID: pending.ID.Hex(), Date: "2026-11-02", Time: "10:30"}, ErrDoctorUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Book(ctx, f.patient, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestListScopedByRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.book(t)

	other := actor.Actor{ID: primitive.NewObjectID(), Role: repo.RolePatient}
	_, err := f.svc.Book(ctx, other, BookRequest{DoctorID: f.doctor.ID.Hex(), Date: "2026-11-03", Time: "09:00"})
	require.NoError(t, err)

	all, err := f.svc.List(ctx, f.admin)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := f.svc.List(ctx, f.patient)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, f.patient.ID, mine[0].PatientID)

	forDoctor, err := f.svc.List(ctx, f.doctor)
	require.NoError(t, err)
	assert.Len(t, forDoctor, 2)
}

func TestGetParticipantsOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appt := f.book(t)

	for _, who := range []actor.Actor{f.patient, f.doctor, f.admin} {
		got, err := f.svc.Get(ctx, who, appt.ID.Hex())
		require.NoError(t, err)
		assert.Equal(t, appt.ID, got.ID)
	}

	stranger := actor.Actor{ID: primitive.NewObjectID(), Role: repo.RolePatient}
	_, err := f.svc.Get(ctx, stranger, appt.ID.Hex())
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.Get(ctx, f.admin, primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.Get(ctx, f.admin, "bogus")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDoctorApprovesAndCompletes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appt := f.book(t)

	got, err := f.svc.Update(ctx, f.doctor, appt.ID.Hex(), UpdateRequest{Status: strptr("approved")})
	require.NoError(t, err)
	assert.Equal(t, repo.AppointmentApproved, got.Status)

	got, err = f.svc.Update(ctx, f.doctor, appt.ID.Hex(), UpdateRequest{Status: strptr("completed")})
	require.NoError(t, err)
	assert.Equal(t, repo.AppointmentCompleted, got.Status)

	require.Len(t, f.seen, 2)
	assert.Equal(t, "approved", f.seen[0].Status)
	assert.Equal(t, "completed", f.seen[1].Status)
	assert.Equal(t, appt.ID.Hex(), f.seen[1].AppointmentID)
	assert.Equal(t, "10:30", f.seen[1].TimeSlot)

	_, err = f.svc.Update(ctx, f.doctor, appt.ID.Hex(), UpdateRequest{Notes: strptr("late")})
	assert.ErrorIs(t, err, ErrAlreadyCompleted)
}

func TestPatientMayOnlyCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appt := f.book(t)

	_, err := f.svc.Update(ctx, f.patient, appt.ID.Hex(), UpdateRequest{Status: strptr("approved")})
	assert.ErrorIs(t, err, ErrPatientCancelOnly)

	got, err := f.svc.Update(ctx, f.patient, appt.ID.Hex(), UpdateRequest{Status: strptr("Cancelled")})
	require.NoError(t, err)
	assert.Equal(t, repo.AppointmentCancelled, got.Status)

	_, err = f.svc.Update(ctx, f.doctor, appt.ID.Hex(), UpdateRequest{Status: strptr("approved")})
	assert.ErrorIs(t, err, ErrAlreadyCancelled)
}

func TestUpdateReschedule(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appt := f.book(t)

	got, err := f.svc.Update(ctx, f.doctor, appt.ID.Hex(), UpdateRequest{Date: strptr("2026-11-05"), Time: strptr("14:00")})
	require.NoError(t, err)
	assert.Equal(t, "2026-11-05", got.Date)
	assert.Equal(t, "14:00", got.Time)
	assert.Empty(t, f.seen, "reschedule without status change publishes nothing")

	_, err = f.svc.Update(ctx, f.doctor, appt.ID.Hex(), UpdateRequest{Status: strptr("done")})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = f.svc.Update(ctx, f.doctor, appt.ID.Hex(), UpdateRequest{Time: strptr("2pm")})
	assert.ErrorIs(t, err, ErrInvalidTime)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appt := f.book(t)

	require.NoError(t, f.svc.Delete(ctx, appt.ID.Hex()))
	assert.ErrorIs(t, f.svc.Delete(ctx, appt.ID.Hex()), ErrNotFound)
	assert.ErrorIs(t, f.svc.Delete(ctx, "x"), ErrNotFound)
}
