package appointment

import "errors"

var (
	ErrNotFound          = errors.New("appointment not found")
	ErrForbidden         = errors.New("not a participant of this appointment")
	ErrDoctorUnavailable = errors.New("doctor does not exist or is not verified")
	ErrInvalidDate       = errors.New("date must be YYYY-MM-DD")
	ErrInvalidTime       = errors.New("time must be HH:MM")
	ErrInvalidStatus     = errors.New("status must be one of pending, approved, completed, cancelled")
	ErrPatientCancelOnly = errors.New("patients can only cancel appointments")
	ErrAlreadyCompleted  = errors.New("appointment is already completed")
	ErrAlreadyCancelled  = errors.New("appointment is already cancelled")
)
