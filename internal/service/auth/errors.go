package auth

import "errors"

var (
	ErrMissingFields      = errors.New("name, email and password are required")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidRole        = errors.New("role must be patient or doctor")
	ErrInvalidPhone       = errors.New("invalid phone number")
	ErrInvalidGender      = errors.New("gender must be male, female or other")
	ErrInvalidDOB         = errors.New("date of birth must be YYYY-MM-DD")
	ErrPasswordTooShort   = errors.New("password is too short")
	ErrUserExists         = errors.New("an account with this email already exists")
	ErrSignupNotFound     = errors.New("no pending signup for this email")
	ErrOTPExpired         = errors.New("OTP has expired, request a new one")
	ErrInvalidOTP         = errors.New("OTP code is incorrect")
	ErrTooManyAttempts    = errors.New("too many incorrect OTP attempts, request a new one")
	ErrAccountNotFound    = errors.New("account not found")
	ErrAdminUseAdminAuth  = errors.New("admin accounts must sign in through the admin login")
	ErrAccountBlocked     = errors.New("account is blocked")
	ErrInvalidPassword    = errors.New("password is incorrect")
	ErrInvalidCredentials = errors.New("email or password is incorrect")
	ErrSessionNotFound    = errors.New("session not found or expired")
	ErrInvalidToken       = errors.New("invalid or expired token")
)
