// Package dashboard serves the admin overview counts.
package dashboard

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/healthplus/backend/internal/repo"
)

type Summary struct {
	Doctors      int64 `json:"doctors"`
	Patients     int64 `json:"patients"`
	Appointments int64 `json:"appointments"`
}

type Service interface {
	Summary(ctx context.Context) (*Summary, error)
}

type dashboardService struct {
	store *repo.Store
}

func New(store *repo.Store) Service {
	return &dashboardService{store: store}
}

func (s *dashboardService) Summary(ctx context.Context) (*Summary, error) {
	var out Summary
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		stats, err := s.store.Doctors.Stats(ctx)
		if err != nil {
			return fmt.Errorf("doctor stats: %w", err)
		}
		out.Doctors = stats.Total
		return nil
	})
	g.Go(func() error {
		n, err := s.store.Users.CountByRole(ctx, repo.RolePatient)
		if err != nil {
			return fmt.Errorf("count patients: %w", err)
		}
		out.Patients = n
		return nil
	})
	g.Go(func() error {
		n, err := s.store.Appointments.Count(ctx)
		if err != nil {
			return fmt.Errorf("count appointments: %w", err)
		}
		out.Appointments = n
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}
