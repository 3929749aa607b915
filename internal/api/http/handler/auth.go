package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/healthplus/backend/internal/service/auth"
	pasetotoken "github.com/healthplus/backend/pkg/paseto"
)

type AuthHandler struct {
	svc auth.Service
}

func NewAuthHandler(svc auth.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type credentialsBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /api/auth/signup
func (h *AuthHandler) Signup(c fiber.Ctx) error {
	var body struct {
		FullName string `json:"fullName"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
		Phone    string `json:"phone"`
		Gender   string `json:"gender"`
		DOB      string `json:"dob"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	if err := h.svc.Signup(c.Context(), auth.SignupRequest{
		FullName: body.FullName,
		Email:    body.Email,
		Password: body.Password,
		Role:     body.Role,
		Phone:    body.Phone,
		Gender:   body.Gender,
		DOB:      body.DOB,
	}); err != nil {
		return mapAuthError(c, err)
	}

	return ok(c, fiber.Map{"message": "verification code sent to your email"})
}

// POST /api/auth/resend-otp
func (h *AuthHandler) ResendOTP(c fiber.Ctx) error {
	var body struct {
		Email string `json:"email"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	if err := h.svc.ResendOTP(c.Context(), body.Email); err != nil {
		return mapAuthError(c, err)
	}

	return ok(c, fiber.Map{"message": "a new verification code has been sent"})
}

// POST /api/auth/verify-otp
func (h *AuthHandler) VerifyOTP(c fiber.Ctx) error {
	var body struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	acct, err := h.svc.VerifyOTP(c.Context(), body.Email, body.OTP)
	if err != nil {
		return mapAuthError(c, err)
	}

	return created(c, acct)
}

// POST /api/auth/login
func (h *AuthHandler) Login(c fiber.Ctx) error {
	var body credentialsBody
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	res, err := h.svc.Login(c.Context(), body.Email, body.Password)
	if err != nil {
		return mapAuthError(c, err)
	}

	return ok(c, res)
}

// POST /api/admin/auth/login
func (h *AuthHandler) AdminLogin(c fiber.Ctx) error {
	var body credentialsBody
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	res, err := h.svc.AdminLogin(c.Context(), body.Email, body.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return unauthorized(c)
		}
		return mapAuthError(c, err)
	}

	return ok(c, res)
}

// POST /api/doctor/auth/register
func (h *AuthHandler) DoctorRegister(c fiber.Ctx) error {
	var body struct {
		FullName string `json:"fullName"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Phone    string `json:"phone"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	acct, err := h.svc.DoctorRegister(c.Context(), auth.DoctorRegisterRequest{
		FullName: body.FullName,
		Email:    body.Email,
		Password: body.Password,
		Phone:    body.Phone,
	})
	if err != nil {
		if errors.Is(err, auth.ErrUserExists) {
			return conflict(c, err.Error())
		}
		return mapAuthError(c, err)
	}

	return created(c, acct)
}

// POST /api/doctor/auth/login
func (h *AuthHandler) DoctorLogin(c fiber.Ctx) error {
	var body credentialsBody
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	res, err := h.svc.DoctorLogin(c.Context(), body.Email, body.Password)
	if err != nil {
		return mapAuthError(c, err)
	}

	return ok(c, res)
}

// POST /api/auth/refresh
func (h *AuthHandler) Refresh(c fiber.Ctx) error {
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.RefreshToken == "" {
		return badRequest(c, "refreshToken is required")
	}

	tokens, err := h.svc.Refresh(c.Context(), body.RefreshToken)
	if err != nil {
		return mapAuthError(c, err)
	}

	return ok(c, tokens)
}

// POST /api/auth/logout  (requires AuthRequired middleware)
func (h *AuthHandler) Logout(c fiber.Ctx) error {
	claims, ok := pasetotoken.ClaimsFromFiber(c)
	if !ok || claims.SessionID == nil {
		return unauthorized(c)
	}

	if err := h.svc.Logout(c.Context(), *claims.SessionID); err != nil {
		return internalError(c)
	}

	return noContent(c)
}

// ---------------------------------------------------------------------------
// Error mapping
// ---------------------------------------------------------------------------

func mapAuthError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, auth.ErrMissingFields),
		errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrInvalidRole),
		errors.Is(err, auth.ErrInvalidPhone),
		errors.Is(err, auth.ErrInvalidGender),
		errors.Is(err, auth.ErrInvalidDOB),
		errors.Is(err, auth.ErrPasswordTooShort),
		errors.Is(err, auth.ErrUserExists),
		errors.Is(err, auth.ErrSignupNotFound),
		errors.Is(err, auth.ErrOTPExpired),
		errors.Is(err, auth.ErrInvalidOTP),
		errors.Is(err, auth.ErrInvalidPassword):
		return badRequest(c, err.Error())
	case errors.Is(err, auth.ErrTooManyAttempts):
		return tooManyRequests(c, err.Error())
	case errors.Is(err, auth.ErrAccountNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, auth.ErrAdminUseAdminAuth), errors.Is(err, auth.ErrAccountBlocked):
		return errorWithStatus(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrSessionNotFound),
		errors.Is(err, auth.ErrInvalidToken):
		return errorWithStatus(c, fiber.StatusUnauthorized, err.Error())
	default:
		return internalError(c)
	}
}
