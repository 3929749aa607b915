package prescription

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/samber/lo"

	"github.com/healthplus/backend/internal/repo"
	"github.com/healthplus/backend/internal/service/actor"
	"github.com/healthplus/backend/internal/service/file"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type CreateRequest struct {
	AppointmentID string
	Medicines     []repo.Medicine
	Notes         string
}

// UpdateRequest is a partial update. A nil Medicines leaves them unchanged.
type UpdateRequest struct {
	Medicines []repo.Medicine
	Notes     *string
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	// Create writes a prescription for one of the doctor's appointments.
	// attachment may be nil.
	Create(ctx context.Context, doctor actor.Actor, req CreateRequest, attachment *multipart.FileHeader) (*repo.Prescription, error)
	List(ctx context.Context, who actor.Actor) ([]repo.Prescription, error)
	Get(ctx context.Context, who actor.Actor, id string) (*repo.Prescription, error)
	Update(ctx context.Context, doctor actor.Actor, id string, req UpdateRequest, attachment *multipart.FileHeader) (*repo.Prescription, error)
	Delete(ctx context.Context, id string) error
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type prescriptionService struct {
	prescriptions repo.PrescriptionRepository
	appts         repo.AppointmentRepository
	files         file.Service
}

func New(store *repo.Store, files file.Service) Service {
	return &prescriptionService{
		prescriptions: store.Prescriptions,
		appts:         store.Appointments,
		files:         files,
	}
}

func (s *prescriptionService) Create(ctx context.Context, doctor actor.Actor, req CreateRequest, attachment *multipart.FileHeader) (*repo.Prescription, error) {
	medicines, err := cleanMedicines(req.Medicines)
	if err != nil {
		return nil, err
	}

	apptID, err := repo.ParseID(req.AppointmentID)
	if err != nil {
		return nil, ErrAppointmentNotFound
	}
	appt, err := s.appts.FindByID(ctx, apptID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	if appt.DoctorID != doctor.ID {
		return nil, ErrNotAppointmentDoctor
	}

	p := &repo.Prescription{
		PatientID:     appt.PatientID,
		DoctorID:      appt.DoctorID,
		AppointmentID: appt.ID,
		Medicines:     medicines,
		Notes:         strings.TrimSpace(req.Notes),
	}
	if attachment != nil {
		res, err := s.files.Upload(ctx, "prescriptions/"+appt.ID.Hex(), attachment)
		if err != nil {
			return nil, err
		}
		p.FileURL = res.URL
	}

	if err := s.prescriptions.Create(ctx, p); err != nil {
		file.Discard(ctx, s.files, p.FileURL)
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("create prescription: %w", err)
	}
	return p, nil
}

func (s *prescriptionService) List(ctx context.Context, who actor.Actor) ([]repo.Prescription, error) {
	var f repo.PrescriptionFilter
	switch {
	case who.IsAdmin():
	case who.IsDoctor():
		f.DoctorID = &who.ID
	default:
		f.PatientID = &who.ID
	}

	out, err := s.prescriptions.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list prescriptions: %w", err)
	}
	return out, nil
}

func (s *prescriptionService) Get(ctx context.Context, who actor.Actor, id string) (*repo.Prescription, error) {
	p, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !who.IsAdmin() && p.PatientID != who.ID && p.DoctorID != who.ID {
		return nil, ErrForbidden
	}
	return p, nil
}

func (s *prescriptionService) Update(ctx context.Context, doctor actor.Actor, id string, req UpdateRequest, attachment *multipart.FileHeader) (*repo.Prescription, error) {
	p, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.DoctorID != doctor.ID {
		return nil, ErrNotPrescriber
	}

	if req.Medicines != nil {
		if p.Medicines, err = cleanMedicines(req.Medicines); err != nil {
			return nil, err
		}
	}
	if req.Notes != nil {
		p.Notes = strings.TrimSpace(*req.Notes)
	}
	previous := p.FileURL
	if attachment != nil {
		res, err := s.files.Upload(ctx, "prescriptions/"+p.AppointmentID.Hex(), attachment)
		if err != nil {
			return nil, err
		}
		p.FileURL = res.URL
	}

	if err := s.prescriptions.Update(ctx, p); err != nil {
		if p.FileURL != previous {
			file.Discard(ctx, s.files, p.FileURL)
		}
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update prescription: %w", err)
	}
	if p.FileURL != previous {
		file.Discard(ctx, s.files, previous)
	}
	return p, nil
}

func (s *prescriptionService) Delete(ctx context.Context, id string) error {
	p, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.prescriptions.Delete(ctx, p.ID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete prescription: %w", err)
	}
	file.Discard(ctx, s.files, p.FileURL)
	return nil
}

func (s *prescriptionService) find(ctx context.Context, id string) (*repo.Prescription, error) {
	oid, err := repo.ParseID(id)
	if err != nil {
		return nil, ErrNotFound
	}
	p, err := s.prescriptions.FindByID(ctx, oid)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get prescription: %w", err)
	}
	return p, nil
}

// cleanMedicines trims every field and drops entries without a name.
func cleanMedicines(in []repo.Medicine) ([]repo.Medicine, error) {
	out := lo.FilterMap(in, func(m repo.Medicine, _ int) (repo.Medicine, bool) {
		m = repo.Medicine{
			Name:      strings.TrimSpace(m.Name),
			Dose:      strings.TrimSpace(m.Dose),
			Frequency: strings.TrimSpace(m.Frequency),
			Duration:  strings.TrimSpace(m.Duration),
		}
		return m, m.Name != ""
	})
	if len(out) == 0 {
		return nil, ErrMedicinesRequired
	}
	return out, nil
}
