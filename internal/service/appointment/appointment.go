package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/healthplus/backend/internal/repo"
	"github.com/healthplus/backend/internal/service/actor"
	"github.com/healthplus/backend/pkg/constants"
	"github.com/healthplus/backend/pkg/events"
	"github.com/healthplus/backend/pkg/observability"
	"github.com/healthplus/backend/pkg/reqctx"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type BookRequest struct {
	DoctorID string
	Date     string // YYYY-MM-DD
	Time     string // HH:MM
	Notes    string
}

// UpdateRequest is a partial update; nil fields are unchanged.
type UpdateRequest struct {
	Status *string
	Notes  *string
	Date   *string
	Time   *string
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	Book(ctx context.Context, patient actor.Actor, req BookRequest) (*repo.Appointment, error)
	List(ctx context.Context, who actor.Actor) ([]repo.Appointment, error)
	Get(ctx context.Context, who actor.Actor, id string) (*repo.Appointment, error)
	Update(ctx context.Context, who actor.Actor, id string, req UpdateRequest) (*repo.Appointment, error)
	Delete(ctx context.Context, id string) error
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type appointmentService struct {
	appts   repo.AppointmentRepository
	doctors repo.DoctorRepository
	bus     events.Bus
	metrics *observability.Metrics
}

func New(store *repo.Store, bus events.Bus, metrics *observability.Metrics) Service {
	if bus == nil {
		bus = events.Nop{}
	}
	return &appointmentService{appts: store.Appointments, doctors: store.Doctors, bus: bus, metrics: metrics}
}

func (s *appointmentService) Book(ctx context.Context, patient actor.Actor, req BookRequest) (*repo.Appointment, error) {
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	clock, err := parseTime(req.Time)
	if err != nil {
		return nil, err
	}

	doctorID, err := repo.ParseID(req.DoctorID)
	if err != nil {
		return nil, ErrDoctorUnavailable
	}
	d, err := s.doctors.FindByID(ctx, doctorID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrDoctorUnavailable
		}
		return nil, fmt.Errorf("get doctor: %w", err)
	}
	if d.VerificationStatus != repo.StatusVerified {
		return nil, ErrDoctorUnavailable
	}

	appt := &repo.Appointment{
		PatientID: patient.ID,
		DoctorID:  doctorID,
		Date:      date,
		Time:      clock,
		Status:    repo.AppointmentPending,
		Notes:     strings.TrimSpace(req.Notes),
	}
	if err := s.appts.Create(ctx, appt); err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}
	s.metrics.AppointmentStatus(ctx, string(appt.Status))
	return appt, nil
}

func (s *appointmentService) List(ctx context.Context, who actor.Actor) ([]repo.Appointment, error) {
	var f repo.AppointmentFilter
	switch {
	case who.IsAdmin():
	case who.IsDoctor():
		f.DoctorID = &who.ID
	default:
		f.PatientID = &who.ID
	}

	out, err := s.appts.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return out, nil
}

func (s *appointmentService) Get(ctx context.Context, who actor.Actor, id string) (*repo.Appointment, error) {
	oid, err := repo.ParseID(id)
	if err != nil {
		return nil, ErrNotFound
	}
	appt, err := s.appts.FindByID(ctx, oid)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	if !who.IsAdmin() && appt.PatientID != who.ID && appt.DoctorID != who.ID {
		return nil, ErrForbidden
	}
	return appt, nil
}

func (s *appointmentService) Update(ctx context.Context, who actor.Actor, id string, req UpdateRequest) (*repo.Appointment, error) {
	appt, err := s.Get(ctx, who, id)
	if err != nil {
		return nil, err
	}

	switch appt.Status {
	case repo.AppointmentCompleted:
		return nil, ErrAlreadyCompleted
	case repo.AppointmentCancelled:
		return nil, ErrAlreadyCancelled
	}

	prev := appt.Status
	if req.Status != nil {
		st := repo.AppointmentStatus(strings.ToLower(strings.TrimSpace(*req.Status)))
		if !st.Valid() {
			return nil, ErrInvalidStatus
		}
		if who.IsPatient() && st != repo.AppointmentCancelled {
			return nil, ErrPatientCancelOnly
		}
		appt.Status = st
	}
	if req.Date != nil {
		if appt.Date, err = parseDate(*req.Date); err != nil {
			return nil, err
		}
	}
	if req.Time != nil {
		if appt.Time, err = parseTime(*req.Time); err != nil {
			return nil, err
		}
	}
	if req.Notes != nil {
		appt.Notes = strings.TrimSpace(*req.Notes)
	}

	if err := s.appts.Update(ctx, appt); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update appointment: %w", err)
	}

	if appt.Status != prev {
		s.statusChanged(ctx, appt)
	}
	return appt, nil
}

func (s *appointmentService) Delete(ctx context.Context, id string) error {
	oid, err := repo.ParseID(id)
	if err != nil {
		return ErrNotFound
	}
	if err := s.appts.Delete(ctx, oid); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete appointment: %w", err)
	}
	return nil
}

func (s *appointmentService) statusChanged(ctx context.Context, appt *repo.Appointment) {
	s.metrics.AppointmentStatus(ctx, string(appt.Status))

	ev := events.AppointmentStatusChanged{
		AppointmentID: appt.ID.Hex(),
		PatientID:     appt.PatientID.Hex(),
		DoctorID:      appt.DoctorID.Hex(),
		Date:          appt.Date,
		TimeSlot:      appt.Time,
		Status:        string(appt.Status),
		ChangedAt:     time.Now().UTC(),
	}
	if err := s.bus.Publish(ctx, constants.SubjectAppointmentStatus, ev); err != nil {
		reqctx.Logger(ctx).Warn("publish appointment event failed", "appointment_id", ev.AppointmentID, "err", err)
	}
}

func parseDate(v string) (string, error) {
	v = strings.TrimSpace(v)
	if _, err := time.Parse(time.DateOnly, v); err != nil {
		return "", ErrInvalidDate
	}
	return v, nil
}

func parseTime(v string) (string, error) {
	v = strings.TrimSpace(v)
	if _, err := time.Parse("15:04", v); err != nil {
		return "", ErrInvalidTime
	}
	return v, nil
}
