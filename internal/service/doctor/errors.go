package doctor

import "errors"

var (
	ErrDoctorNotFound    = errors.New("doctor not found")
	ErrProfileExists     = errors.New("profile already exists, update it instead")
	ErrProfileNotFound   = errors.New("profile not found")
	ErrDocumentsRequired = errors.New("license and certificate documents are required")
	ErrMissingFields     = errors.New("specialization, experience and license number are required")
	ErrInvalidExperience = errors.New("experience must be a non-negative number of years")
)
