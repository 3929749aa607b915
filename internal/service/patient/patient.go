package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/healthplus/backend/internal/repo"
	"github.com/healthplus/backend/pkg/reqctx"
)

// Service is the admin view over patient accounts.
type Service interface {
	List(ctx context.Context) ([]repo.User, error)
	Block(ctx context.Context, id string) (*repo.User, error)
	Unblock(ctx context.Context, id string) (*repo.User, error)
}

// Sessions ends the live logins of an account.
type Sessions interface {
	RevokeAll(ctx context.Context, userID string) error
}

type patientService struct {
	users    repo.UserRepository
	sessions Sessions
}

func New(users repo.UserRepository, sessions Sessions) Service {
	return &patientService{users: users, sessions: sessions}
}

func (s *patientService) List(ctx context.Context) ([]repo.User, error) {
	out, err := s.users.ListByRole(ctx, repo.RolePatient)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	return out, nil
}

func (s *patientService) Block(ctx context.Context, id string) (*repo.User, error) {
	return s.setBlocked(ctx, id, true)
}

func (s *patientService) Unblock(ctx context.Context, id string) (*repo.User, error) {
	return s.setBlocked(ctx, id, false)
}

func (s *patientService) setBlocked(ctx context.Context, id string, blocked bool) (*repo.User, error) {
	oid, err := repo.ParseID(id)
	if err != nil {
		return nil, ErrInvalidID
	}
	u, err := s.users.SetBlocked(ctx, oid, blocked)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("update patient: %w", err)
	}
	if blocked {
		if err := s.sessions.RevokeAll(ctx, u.ID.Hex()); err != nil {
			return nil, fmt.Errorf("revoke patient sessions: %w", err)
		}
	}
	reqctx.Logger(ctx).Info("patient block state changed", "patient_id", id, "blocked", blocked)
	return u, nil
}
