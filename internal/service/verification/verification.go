package verification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/healthplus/backend/internal/repo"
	"github.com/healthplus/backend/pkg/constants"
	"github.com/healthplus/backend/pkg/events"
	"github.com/healthplus/backend/pkg/observability"
	"github.com/healthplus/backend/pkg/reqctx"
)

// Service drives the doctor verification state machine:
//
//	pending  -> verified | rejected
//	rejected -> verified
//	verified -> rejected
//
// Going back to pending only happens through a profile resubmission.
type Service interface {
	// ListDoctors returns doctors newest first. An empty status returns all.
	ListDoctors(ctx context.Context, status string) ([]repo.Doctor, error)
	ListPending(ctx context.Context) ([]repo.Doctor, error)
	GetDoctor(ctx context.Context, id string) (*repo.Doctor, error)
	Approve(ctx context.Context, id string) (*repo.Doctor, error)
	Reject(ctx context.Context, id, reason string) (*repo.Doctor, error)
	Statistics(ctx context.Context) (repo.DoctorStats, error)
}

type verificationService struct {
	doctors repo.DoctorRepository
	bus     events.Bus
	metrics *observability.Metrics
}

func New(doctors repo.DoctorRepository, bus events.Bus, metrics *observability.Metrics) Service {
	if bus == nil {
		bus = events.Nop{}
	}
	return &verificationService{doctors: doctors, bus: bus, metrics: metrics}
}

func (s *verificationService) ListDoctors(ctx context.Context, status string) ([]repo.Doctor, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		return s.list(ctx, nil)
	}
	st := repo.VerificationStatus(status)
	if !st.Valid() {
		return nil, ErrInvalidStatus
	}
	return s.list(ctx, &st)
}

func (s *verificationService) ListPending(ctx context.Context) ([]repo.Doctor, error) {
	st := repo.StatusPending
	return s.list(ctx, &st)
}

func (s *verificationService) list(ctx context.Context, st *repo.VerificationStatus) ([]repo.Doctor, error) {
	out, err := s.doctors.List(ctx, st)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	return out, nil
}

func (s *verificationService) GetDoctor(ctx context.Context, id string) (*repo.Doctor, error) {
	oid, err := repo.ParseID(id)
	if err != nil {
		return nil, ErrDoctorNotFound
	}
	d, err := s.doctors.FindByID(ctx, oid)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrDoctorNotFound
		}
		return nil, fmt.Errorf("get doctor: %w", err)
	}
	return d, nil
}

func (s *verificationService) Approve(ctx context.Context, id string) (*repo.Doctor, error) {
	d, err := s.GetDoctor(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.VerificationStatus == repo.StatusVerified {
		return nil, ErrAlreadyVerified
	}
	return s.transition(ctx, d, repo.StatusVerified, nil)
}

func (s *verificationService) Reject(ctx context.Context, id, reason string) (*repo.Doctor, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, ErrReasonRequired
	}
	d, err := s.GetDoctor(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.VerificationStatus == repo.StatusRejected {
		return nil, ErrAlreadyRejected
	}
	return s.transition(ctx, d, repo.StatusRejected, &reason)
}

func (s *verificationService) Statistics(ctx context.Context) (repo.DoctorStats, error) {
	st, err := s.doctors.Stats(ctx)
	if err != nil {
		return repo.DoctorStats{}, fmt.Errorf("doctor statistics: %w", err)
	}
	return st, nil
}

func (s *verificationService) transition(ctx context.Context, d *repo.Doctor, to repo.VerificationStatus, reason *string) (*repo.Doctor, error) {
	from := d.VerificationStatus

	updated, err := s.doctors.Transition(ctx, d.ID, from, to, reason)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			return nil, ErrDoctorNotFound
		case errors.Is(err, repo.ErrConflict):
			return nil, ErrConcurrentUpdate
		}
		return nil, fmt.Errorf("update verification status: %w", err)
	}

	s.metrics.VerificationTransition(ctx, string(from), string(to))

	ev := events.VerificationChanged{
		DoctorID:  updated.ID.Hex(),
		Email:     updated.Email,
		Name:      updated.FullName,
		From:      string(from),
		To:        string(to),
		ChangedAt: time.Now().UTC(),
	}
	if reason != nil {
		ev.Reason = *reason
	}
	// The write already happened; a lost notification is logged, not returned.
	if err := s.bus.Publish(ctx, constants.SubjectDoctorVerification, ev); err != nil {
		reqctx.Logger(ctx).Warn("publish verification event failed", "doctor_id", ev.DoctorID, "err", err)
	}

	reqctx.Logger(ctx).Info("doctor verification status changed",
		"doctor_id", ev.DoctorID, "from", from, "to", to)

	return updated, nil
}
