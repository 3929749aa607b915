// Package events carries domain events between the HTTP services and the
// background workers. NATS and RabbitMQ are interchangeable transports.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var ErrClosed = errors.New("events: bus closed")

// Handler processes one delivery. Deliveries are at most once: a returned
// error is logged and the message is dropped (AMQP nacks it without
// requeue, so a dead-letter exchange on the queue still catches it).
type Handler func(ctx context.Context, data []byte) error

type Bus interface {
	Publish(ctx context.Context, subject string, payload any) error
	Subscribe(subject string, h Handler) error
	Close() error
}

// VerificationChanged is published whenever a doctor's verification status moves.
type VerificationChanged struct {
	DoctorID  string    `json:"doctor_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Reason    string    `json:"reason,omitempty"`
	ChangedAt time.Time `json:"changed_at"`
}

type AppointmentStatusChanged struct {
	AppointmentID string    `json:"appointment_id"`
	PatientID     string    `json:"patient_id"`
	DoctorID      string    `json:"doctor_id"`
	Date          string    `json:"date"`
	TimeSlot      string    `json:"time_slot"`
	Status        string    `json:"status"`
	ChangedAt     time.Time `json:"changed_at"`
}

func encode(payload any) ([]byte, error) {
	if b, ok := payload.([]byte); ok {
		return b, nil
	}
	return json.Marshal(payload)
}

// Nop drops every event. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }
func (Nop) Subscribe(string, Handler) error            { return nil }
func (Nop) Close() error                               { return nil }
