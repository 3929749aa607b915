package verification

import "errors"

var (
	ErrDoctorNotFound   = errors.New("doctor not found")
	ErrInvalidStatus    = errors.New("status must be one of pending, verified, rejected")
	ErrReasonRequired   = errors.New("rejection reason is required")
	ErrAlreadyVerified  = errors.New("doctor is already verified")
	ErrAlreadyRejected  = errors.New("doctor is already rejected")
	ErrConcurrentUpdate = errors.New("doctor status changed by another request, retry")
)
