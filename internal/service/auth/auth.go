package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/healthplus/backend/config"
	"github.com/healthplus/backend/internal/repo"
	"github.com/healthplus/backend/pkg/cache"
	"github.com/healthplus/backend/pkg/email"
	"github.com/healthplus/backend/pkg/observability"
	pasetotoken "github.com/healthplus/backend/pkg/paseto"
	"github.com/healthplus/backend/pkg/reqctx"
	"github.com/healthplus/backend/pkg/session"
	"github.com/healthplus/backend/pkg/util/otp"
	"github.com/healthplus/backend/pkg/util/password"
	"github.com/healthplus/backend/pkg/util/phone"
)

// Pending signups outlive a single code so that resend-otp keeps working
// after the first code has expired.
const pendingSignupTTL = 30 * time.Minute

func keyPendingSignup(email string) string { return "signup:" + email }

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type SignupRequest struct {
	FullName string
	Email    string
	Password string
	Role     string // patient or doctor
	Phone    string // optional
	Gender   string // optional
	DOB      string // optional, YYYY-MM-DD
}

type DoctorRegisterRequest struct {
	FullName string
	Email    string
	Password string
	Phone    string
}

// Account is the public view of a signed-in principal.
type Account struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type AuthResult struct {
	Account Account          `json:"user"`
	Tokens  pasetotoken.Pair `json:"tokens"`
}

type pendingSignup struct {
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"password_hash"`
	Role         repo.Role  `json:"role"`
	Phone        string     `json:"phone,omitempty"`
	Gender       string     `json:"gender,omitempty"`
	DOB          *time.Time `json:"dob,omitempty"`
	OTPHash      string     `json:"otp_hash"`
	OTPExpiresAt time.Time  `json:"otp_expires_at"`
	Attempts     int        `json:"attempts"`
}

// Mailer sends transactional email. *email.Client satisfies it.
type Mailer interface {
	Send(ctx context.Context, m email.Message) error
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	Signup(ctx context.Context, req SignupRequest) error
	ResendOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, code string) (*Account, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	AdminLogin(ctx context.Context, email, password string) (*AuthResult, error)
	DoctorRegister(ctx context.Context, req DoctorRegisterRequest) (*Account, error)
	DoctorLogin(ctx context.Context, email, password string) (*AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*pasetotoken.Pair, error)
	Logout(ctx context.Context, sessionID uuid.UUID) error
	// EnsureAdmin creates the admin account if no account uses the email yet.
	EnsureAdmin(ctx context.Context, name, email, password string) (*Account, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type Deps struct {
	Store    *repo.Store
	Pending  cache.Store
	Sessions *session.Store
	Paseto   *pasetotoken.Manager
	Hasher   *password.Hasher
	OTP      *otp.Generator
	Mailer   Mailer
	Metrics  *observability.Metrics
	Config   config.AuthenticationConfig
}

type authService struct {
	Deps
	otpTTL      time.Duration
	maxAttempts int
	minPassword int
}

func New(d Deps) Service {
	s := &authService{
		Deps:        d,
		otpTTL:      time.Duration(d.Config.OTPTTLSeconds) * time.Second,
		maxAttempts: d.Config.OTPMaxAttempts,
		minPassword: d.Config.MinPasswordLength,
	}
	if s.otpTTL <= 0 {
		s.otpTTL = 60 * time.Second
	}
	if s.maxAttempts <= 0 {
		s.maxAttempts = 5
	}
	if s.minPassword <= 0 {
		s.minPassword = 8
	}
	if s.Config.DefaultRegion == "" {
		s.Config.DefaultRegion = "IN"
	}
	return s
}

// ---------------------------------------------------------------------------
// Signup / OTP
// ---------------------------------------------------------------------------

func (s *authService) Signup(ctx context.Context, req SignupRequest) error {
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = normalizeEmail(req.Email)

	if req.FullName == "" || req.Email == "" || req.Password == "" {
		return ErrMissingFields
	}
	if err := validateEmail(req.Email); err != nil {
		return err
	}
	role := repo.Role(strings.ToLower(strings.TrimSpace(req.Role)))
	if role != repo.RolePatient && role != repo.RoleDoctor {
		return ErrInvalidRole
	}
	if len(req.Password) < s.minPassword {
		return fmt.Errorf("%w: minimum %d characters", ErrPasswordTooShort, s.minPassword)
	}

	p := pendingSignup{Name: req.FullName, Email: req.Email, Role: role}

	if strings.TrimSpace(req.Phone) != "" {
		normalized, err := phone.Normalize(req.Phone, s.Config.DefaultRegion)
		if err != nil {
			return ErrInvalidPhone
		}
		p.Phone = normalized
	}
	if g := strings.ToLower(strings.TrimSpace(req.Gender)); g != "" {
		if g != "male" && g != "female" && g != "other" {
			return ErrInvalidGender
		}
		p.Gender = g
	}
	if d := strings.TrimSpace(req.DOB); d != "" {
		dob, err := time.Parse(time.DateOnly, d)
		if err != nil || dob.After(time.Now()) {
			return ErrInvalidDOB
		}
		p.DOB = &dob
	}

	exists, err := s.emailTaken(ctx, req.Email)
	if err != nil {
		return err
	}
	if exists {
		return ErrUserExists
	}

	p.PasswordHash, err = s.Hasher.Hash(req.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.issueOTP(ctx, &p, pendingSignupTTL)
}

func (s *authService) ResendOTP(ctx context.Context, emailAddr string) error {
	p, err := s.loadPending(ctx, normalizeEmail(emailAddr))
	if err != nil {
		return err
	}
	return s.issueOTP(ctx, p, pendingSignupTTL)
}

func (s *authService) VerifyOTP(ctx context.Context, emailAddr, code string) (*Account, error) {
	emailAddr = normalizeEmail(emailAddr)

	p, err := s.loadPending(ctx, emailAddr)
	if err != nil {
		return nil, err
	}
	if p.Attempts >= s.maxAttempts {
		return nil, ErrTooManyAttempts
	}
	if !time.Now().Before(p.OTPExpiresAt) {
		return nil, ErrOTPExpired
	}
	if err := otp.Verify(p.OTPHash, code); err != nil {
		p.Attempts++
		if err := s.savePending(ctx, p, cache.KeepTTL); err != nil {
			reqctx.Logger(ctx).Warn("record otp attempt failed", "email", emailAddr, "err", err)
		}
		if p.Attempts >= s.maxAttempts {
			return nil, ErrTooManyAttempts
		}
		return nil, ErrInvalidOTP
	}

	acct, err := s.createAccount(ctx, p)
	if err != nil {
		return nil, err
	}

	if err := s.Pending.Delete(ctx, keyPendingSignup(emailAddr)); err != nil {
		reqctx.Logger(ctx).Warn("delete pending signup failed", "email", emailAddr, "err", err)
	}
	s.Metrics.Signup(ctx, string(p.Role))

	return acct, nil
}

// ---------------------------------------------------------------------------
// Login
// ---------------------------------------------------------------------------

func (s *authService) Login(ctx context.Context, emailAddr, pass string) (*AuthResult, error) {
	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" || pass == "" {
		return nil, ErrMissingFields
	}

	u, err := s.Store.Users.FindByEmail(ctx, emailAddr)
	switch {
	case err == nil:
		if u.Role == repo.RoleAdmin {
			return nil, ErrAdminUseAdminAuth
		}
		if u.IsBlocked {
			return nil, ErrAccountBlocked
		}
		if !s.Hasher.Match(u.PasswordHash, pass) {
			return nil, ErrInvalidPassword
		}
		s.upgradeHash(ctx, s.Store.Users.UpdatePasswordHash, u.ID, u.PasswordHash, pass)
		return s.startSession(ctx, userAccount(u))
	case !errors.Is(err, repo.ErrNotFound):
		return nil, fmt.Errorf("find user: %w", err)
	}

	d, err := s.Store.Doctors.FindByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("find doctor: %w", err)
	}
	if !s.Hasher.Match(d.PasswordHash, pass) {
		return nil, ErrInvalidPassword
	}
	s.upgradeHash(ctx, s.Store.Doctors.UpdatePasswordHash, d.ID, d.PasswordHash, pass)
	return s.startSession(ctx, doctorAccount(d))
}

func (s *authService) AdminLogin(ctx context.Context, emailAddr, pass string) (*AuthResult, error) {
	u, err := s.Store.Users.FindByEmail(ctx, normalizeEmail(emailAddr))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if u.Role != repo.RoleAdmin || !s.Hasher.Match(u.PasswordHash, pass) {
		return nil, ErrInvalidCredentials
	}
	s.upgradeHash(ctx, s.Store.Users.UpdatePasswordHash, u.ID, u.PasswordHash, pass)
	return s.startSession(ctx, userAccount(u))
}

func (s *authService) DoctorRegister(ctx context.Context, req DoctorRegisterRequest) (*Account, error) {
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = normalizeEmail(req.Email)

	if req.FullName == "" || req.Email == "" || req.Password == "" {
		return nil, ErrMissingFields
	}
	if err := validateEmail(req.Email); err != nil {
		return nil, err
	}
	if len(req.Password) < s.minPassword {
		return nil, fmt.Errorf("%w: minimum %d characters", ErrPasswordTooShort, s.minPassword)
	}

	p := &pendingSignup{Name: req.FullName, Email: req.Email, Role: repo.RoleDoctor}
	if strings.TrimSpace(req.Phone) != "" {
		normalized, err := phone.Normalize(req.Phone, s.Config.DefaultRegion)
		if err != nil {
			return nil, ErrInvalidPhone
		}
		p.Phone = normalized
	}

	exists, err := s.emailTaken(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUserExists
	}

	if p.PasswordHash, err = s.Hasher.Hash(req.Password); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	acct, err := s.createAccount(ctx, p)
	if err != nil {
		return nil, err
	}
	s.Metrics.Signup(ctx, string(repo.RoleDoctor))
	return acct, nil
}

func (s *authService) DoctorLogin(ctx context.Context, emailAddr, pass string) (*AuthResult, error) {
	d, err := s.Store.Doctors.FindByEmail(ctx, normalizeEmail(emailAddr))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find doctor: %w", err)
	}
	if !s.Hasher.Match(d.PasswordHash, pass) {
		return nil, ErrInvalidCredentials
	}
	s.upgradeHash(ctx, s.Store.Doctors.UpdatePasswordHash, d.ID, d.PasswordHash, pass)
	return s.startSession(ctx, doctorAccount(d))
}

// ---------------------------------------------------------------------------
// Tokens
// ---------------------------------------------------------------------------

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*pasetotoken.Pair, error) {
	claims, err := s.Paseto.VerifyAs(refreshToken, pasetotoken.TokenTypeRefresh)
	if err != nil {
		return nil, ErrInvalidToken
	}

	if err := s.Sessions.Validate(ctx, *claims.SessionID, claims.UserID); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	if err := s.checkStanding(ctx, claims.UserID, claims.Role); err != nil {
		return nil, err
	}

	// Only the access token is reissued; the refresh token lives until logout.
	access, accessExp, err := s.Paseto.IssueAccess(pasetotoken.Subject{ID: claims.UserID, Role: claims.Role}, claims.SessionID)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	return &pasetotoken.Pair{
		AccessToken:      access,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: claims.ExpiresAt,
	}, nil
}

func (s *authService) Logout(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.Sessions.Revoke(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *authService) EnsureAdmin(ctx context.Context, name, emailAddr, pass string) (*Account, error) {
	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" || pass == "" {
		return nil, ErrMissingFields
	}

	if u, err := s.Store.Users.FindByEmail(ctx, emailAddr); err == nil {
		acct := userAccount(u)
		return &acct, nil
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("find user: %w", err)
	}

	hash, err := s.Hasher.Hash(pass)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if name == "" {
		name = "Administrator"
	}
	u := &repo.User{Name: name, Email: emailAddr, PasswordHash: hash, Role: repo.RoleAdmin, IsVerified: true}
	if err := s.Store.Users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}
	acct := userAccount(u)
	return &acct, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (s *authService) startSession(ctx context.Context, acct Account) (*AuthResult, error) {
	sess, err := s.Sessions.Create(ctx, acct.ID, acct.Role)
	if err != nil {
		return nil, err
	}
	pair, err := s.Paseto.IssuePair(pasetotoken.Subject{ID: acct.ID, Role: acct.Role}, sess.ID)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}
	return &AuthResult{Account: acct, Tokens: pair}, nil
}

// checkStanding re-reads the account behind a refresh token so that a
// blocked or removed account cannot mint new access tokens.
func (s *authService) checkStanding(ctx context.Context, userID, role string) error {
	oid, err := repo.ParseID(userID)
	if err != nil {
		return ErrInvalidToken
	}
	if repo.Role(role) == repo.RoleDoctor {
		_, err = s.Store.Doctors.FindByID(ctx, oid)
	} else {
		var u *repo.User
		if u, err = s.Store.Users.FindByID(ctx, oid); err == nil && u.IsBlocked {
			return ErrAccountBlocked
		}
	}
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return ErrInvalidToken
	case err != nil:
		return fmt.Errorf("load account: %w", err)
	}
	return nil
}

// upgradeHash re-hashes a verified password stored with legacy bcrypt or
// outdated argon2 parameters. Failures only cost the upgrade.
func (s *authService) upgradeHash(ctx context.Context, save func(context.Context, primitive.ObjectID, string) error, id primitive.ObjectID, hash, pass string) {
	if !s.Hasher.NeedsRehash(hash) {
		return
	}
	next, err := s.Hasher.Hash(pass)
	if err == nil {
		err = save(ctx, id, next)
	}
	if err != nil {
		reqctx.Logger(ctx).Warn("password rehash failed", "account_id", id.Hex(), "err", err)
	}
}

func (s *authService) emailTaken(ctx context.Context, emailAddr string) (bool, error) {
	if _, err := s.Store.Users.FindByEmail(ctx, emailAddr); err == nil {
		return true, nil
	} else if !errors.Is(err, repo.ErrNotFound) {
		return false, fmt.Errorf("check user email: %w", err)
	}
	if _, err := s.Store.Doctors.FindByEmail(ctx, emailAddr); err == nil {
		return true, nil
	} else if !errors.Is(err, repo.ErrNotFound) {
		return false, fmt.Errorf("check doctor email: %w", err)
	}
	return false, nil
}

func (s *authService) createAccount(ctx context.Context, p *pendingSignup) (*Account, error) {
	var acct Account
	switch p.Role {
	case repo.RoleDoctor:
		d := &repo.Doctor{
			FullName:           p.Name,
			Email:              p.Email,
			PasswordHash:       p.PasswordHash,
			Phone:              p.Phone,
			VerificationStatus: repo.StatusPending,
		}
		if err := s.Store.Doctors.Create(ctx, d); err != nil {
			return nil, createErr(err)
		}
		acct = doctorAccount(d)
	default:
		u := &repo.User{
			Name:         p.Name,
			Email:        p.Email,
			PasswordHash: p.PasswordHash,
			Role:         repo.RolePatient,
			IsVerified:   true,
			Phone:        p.Phone,
			Gender:       p.Gender,
			DOB:          p.DOB,
		}
		if err := s.Store.Users.Create(ctx, u); err != nil {
			return nil, createErr(err)
		}
		acct = userAccount(u)
	}
	return &acct, nil
}

func createErr(err error) error {
	if errors.Is(err, repo.ErrDuplicate) {
		return ErrUserExists
	}
	return fmt.Errorf("create account: %w", err)
}

func (s *authService) issueOTP(ctx context.Context, p *pendingSignup, ttl time.Duration) error {
	code, hash, err := s.OTP.New()
	if err != nil {
		return fmt.Errorf("generate OTP: %w", err)
	}
	p.OTPHash = hash
	p.OTPExpiresAt = time.Now().Add(s.otpTTL)
	p.Attempts = 0

	if err := s.savePending(ctx, p, ttl); err != nil {
		return err
	}

	// Delivery failure does not fail the signup; the user can resend.
	if err := s.Mailer.Send(ctx, email.BuildOTPEmail(p.Email, p.Name, code, s.otpTTL)); err != nil {
		reqctx.Logger(ctx).Warn("failed to send OTP email", "email", p.Email, "error", err)
	}
	return nil
}

func (s *authService) loadPending(ctx context.Context, emailAddr string) (*pendingSignup, error) {
	raw, err := s.Pending.Get(ctx, keyPendingSignup(emailAddr))
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return nil, ErrSignupNotFound
		}
		return nil, fmt.Errorf("load pending signup: %w", err)
	}
	var p pendingSignup
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode pending signup: %w", err)
	}
	return &p, nil
}

func (s *authService) savePending(ctx context.Context, p *pendingSignup, ttl time.Duration) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	if err := s.Pending.Set(ctx, keyPendingSignup(p.Email), raw, ttl); err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return ErrSignupNotFound
		}
		return fmt.Errorf("store pending signup: %w", err)
	}
	return nil
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

func validateEmail(e string) error {
	addr, err := mail.ParseAddress(e)
	if err != nil || addr.Address != e {
		return ErrInvalidEmail
	}
	return nil
}

func userAccount(u *repo.User) Account {
	return Account{ID: u.ID.Hex(), Name: u.Name, Email: u.Email, Role: string(u.Role)}
}

func doctorAccount(d *repo.Doctor) Account {
	return Account{ID: d.ID.Hex(), Name: d.FullName, Email: d.Email, Role: string(repo.RoleDoctor)}
}
