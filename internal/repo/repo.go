// Package repo is the MongoDB persistence layer. Services depend on the
// repository interfaces; Mongo and in-memory implementations satisfy them.
package repo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound  = errors.New("repo: not found")
	ErrDuplicate = errors.New("repo: duplicate key")
	ErrConflict  = errors.New("repo: document changed concurrently")
	ErrInvalidID = errors.New("repo: invalid id")
)

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	ListByRole(ctx context.Context, role Role) ([]User, error)
	SetBlocked(ctx context.Context, id primitive.ObjectID, blocked bool) (*User, error)
	UpdatePasswordHash(ctx context.Context, id primitive.ObjectID, hash string) error
	CountByRole(ctx context.Context, role Role) (int64, error)
}

type DoctorRepository interface {
	Create(ctx context.Context, d *Doctor) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*Doctor, error)
	FindByEmail(ctx context.Context, email string) (*Doctor, error)
	// List returns doctors newest first. A nil status returns every doctor.
	List(ctx context.Context, status *VerificationStatus) ([]Doctor, error)
	// Transition moves a doctor from one status to another in a single write.
	// It fails with ErrNotFound when the doctor does not exist and with
	// ErrConflict when the stored status is no longer from.
	Transition(ctx context.Context, id primitive.ObjectID, from, to VerificationStatus, reason *string) (*Doctor, error)
	// SaveProfile replaces the embedded profile. A doctor whose stored status
	// is in reset returns to pending with the reason cleared in the same write.
	SaveProfile(ctx context.Context, id primitive.ObjectID, p *DoctorProfile, reset ...VerificationStatus) (*Doctor, error)
	Stats(ctx context.Context) (DoctorStats, error)
	UpdatePasswordHash(ctx context.Context, id primitive.ObjectID, hash string) error
}

type AppointmentFilter struct {
	PatientID *primitive.ObjectID
	DoctorID  *primitive.ObjectID
}

type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*Appointment, error)
	List(ctx context.Context, f AppointmentFilter) ([]Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	Count(ctx context.Context) (int64, error)
}

type PrescriptionFilter struct {
	PatientID *primitive.ObjectID
	DoctorID  *primitive.ObjectID
}

type PrescriptionRepository interface {
	// Create fails with ErrDuplicate when the appointment already has one.
	Create(ctx context.Context, p *Prescription) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*Prescription, error)
	List(ctx context.Context, f PrescriptionFilter) ([]Prescription, error)
	Update(ctx context.Context, p *Prescription) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// Store groups the repositories handed to services.
type Store struct {
	Users         UserRepository
	Doctors       DoctorRepository
	Appointments  AppointmentRepository
	Prescriptions PrescriptionRepository
}

// NewMongoStore builds a Store backed by db.
func NewMongoStore(db *mongo.Database) *Store {
	return &Store{
		Users:         newUserRepo(db),
		Doctors:       newDoctorRepo(db),
		Appointments:  newAppointmentRepo(db),
		Prescriptions: newPrescriptionRepo(db),
	}
}

// ParseID converts a hex string into an ObjectID.
func ParseID(s string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return id, nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	default:
		return err
	}
}
