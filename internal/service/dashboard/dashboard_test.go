package dashboard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/healthplus/backend/internal/repo"
	"github.com/healthplus/backend/internal/repo/memrepo"
)

func TestSummary(t *testing.T) {
	ctx := context.Background()
	store := memrepo.New()

	for i, st := range []repo.VerificationStatus{repo.StatusPending, repo.StatusVerified, repo.StatusRejected} {
		require.NoError(t, store.Doctors.Create(ctx, &repo.Doctor{
			FullName:           "Dr",
			Email:              string(rune('a'+i)) + "@clinic.io",
			VerificationStatus: st,
		}))
	}
	require.NoError(t, store.Users.Create(ctx, &repo.User{Name: "P", Email: "p@x.io", Role: repo.RolePatient}))
	require.NoError(t, store.Users.Create(ctx, &repo.User{Name: "A", Email: "admin@x.io", Role: repo.RoleAdmin}))
	require.NoError(t, store.Appointments.Create(ctx, &repo.Appointment{
		PatientID: primitive.NewObjectID(), DoctorID: primitive.NewObjectID(), Date: "2026-11-02", Time: "10:00",
	}))

	got, err := New(store).Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, &Summary{Doctors: 3, Patients: 1, Appointments: 1}, got)
}

func TestSummaryEmpty(t *testing.T) {
	got, err := New(memrepo.New()).Summary(context.Background())
	require.NoError(t, err)
	assert.Zero(t, *got)
}
