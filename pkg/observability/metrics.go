package observability

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/healthplus/backend"

// Metrics holds the business counters. It reads the global meter provider,
// so it records nothing until InitTelemetry has run.
type Metrics struct {
	verification metric.Int64Counter
	appointments metric.Int64Counter
	signups      metric.Int64Counter
}

func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)

	verification, err := meter.Int64Counter(
		"doctor_verification_transitions_total",
		metric.WithDescription("Doctor verification status transitions"),
	)
	if err != nil {
		return nil, err
	}
	appointments, err := meter.Int64Counter(
		"appointment_status_changes_total",
		metric.WithDescription("Appointment status changes"),
	)
	if err != nil {
		return nil, err
	}
	signups, err := meter.Int64Counter(
		"account_signups_total",
		metric.WithDescription("Accounts created, by role"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{verification: verification, appointments: appointments, signups: signups}, nil
}

func (m *Metrics) VerificationTransition(ctx context.Context, from, to string) {
	if m == nil {
		return
	}
	m.verification.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

func (m *Metrics) AppointmentStatus(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.appointments.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

func (m *Metrics) Signup(ctx context.Context, role string) {
	if m == nil {
		return
	}
	m.signups.Add(ctx, 1, metric.WithAttributes(attribute.String("role", role)))
}

// Handler serves the Prometheus registry the OTel exporter writes to.
func Handler() http.Handler {
	return promhttp.Handler()
}
