package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"go.uber.org/fx"

	"github.com/healthplus/backend/internal/repo"
	"github.com/healthplus/backend/internal/service/auth"
	"github.com/healthplus/backend/pkg/constants"
	"github.com/healthplus/backend/pkg/email"
	"github.com/healthplus/backend/pkg/events"
)

// WorkerModule registers the event consumers.
var WorkerModule = fx.Module("workers",
	fx.Provide(func(store *repo.Store, m *email.Client) *Notifier { return NewNotifier(store, m) }),
	fx.Invoke(RegisterWorkers),
)

type WorkerParams struct {
	fx.In

	Lc       fx.Lifecycle
	Bus      events.Bus
	Notifier *Notifier
}

func RegisterWorkers(p WorkerParams) {
	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return p.Notifier.Subscribe(p.Bus)
		},
	})
}

// ---------------------------------------------------------------------------
// notification_worker
// ---------------------------------------------------------------------------

// Notifier turns domain events into emails.
type Notifier struct {
	users  repo.UserRepository
	mailer auth.Mailer
}

func NewNotifier(store *repo.Store, mailer auth.Mailer) *Notifier {
	return &Notifier{users: store.Users, mailer: mailer}
}

func (n *Notifier) Subscribe(bus events.Bus) error {
	if err := bus.Subscribe(constants.SubjectDoctorVerification, n.HandleVerification); err != nil {
		return fmt.Errorf("subscribe %s: %w", constants.SubjectDoctorVerification, err)
	}
	if err := bus.Subscribe(constants.SubjectAppointmentStatus, n.HandleAppointment); err != nil {
		return fmt.Errorf("subscribe %s: %w", constants.SubjectAppointmentStatus, err)
	}
	slog.Info("notification workers subscribed")
	return nil
}

// HandleVerification emails the doctor the outcome of a review.
func (n *Notifier) HandleVerification(ctx context.Context, data []byte) error {
	var ev events.VerificationChanged
	if err := json.Unmarshal(data, &ev); err != nil {
		slog.Warn("notification_worker: bad verification event", "err", err)
		return nil
	}
	if ev.Email == "" {
		return nil
	}

	msg := email.BuildVerificationStatusEmail(ev.Email, ev.Name, ev.To, ev.Reason)
	if err := n.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send verification email to doctor %s: %w", ev.DoctorID, err)
	}
	return nil
}

// HandleAppointment emails the patient when their appointment changes status.
func (n *Notifier) HandleAppointment(ctx context.Context, data []byte) error {
	var ev events.AppointmentStatusChanged
	if err := json.Unmarshal(data, &ev); err != nil {
		slog.Warn("notification_worker: bad appointment event", "err", err)
		return nil
	}

	patientID, err := repo.ParseID(ev.PatientID)
	if err != nil {
		slog.Warn("notification_worker: bad patient id", "id", ev.PatientID)
		return nil
	}
	u, err := n.users.FindByID(ctx, patientID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			slog.Warn("notification_worker: patient not found", "id", ev.PatientID)
			return nil
		}
		return fmt.Errorf("load patient: %w", err)
	}

	msg := email.BuildAppointmentStatusEmail(u.Email, u.Name, ev.Date, ev.TimeSlot, ev.Status)
	if err := n.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send appointment email: %w", err)
	}
	return nil
}
