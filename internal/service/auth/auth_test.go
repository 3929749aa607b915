package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/healthplus/backend/config"
	"github.com/healthplus/backend/internal/repo"
	"github.com/healthplus/backend/internal/repo/memrepo"
	"github.com/healthplus/backend/internal/service/servicetest"
	"github.com/healthplus/backend/pkg/cache"
	pasetotoken "github.com/healthplus/backend/pkg/paseto"
	"github.com/healthplus/backend/pkg/session"
	"github.com/healthplus/backend/pkg/util/otp"
)

type fixture struct {
	svc      Service
	store    *repo.Store
	mailer   *servicetest.Mailer
	sessions *session.Store
	paseto   *pasetotoken.Manager
}

func newFixture(t *testing.T, cfg config.AuthenticationConfig) *fixture {
	t.Helper()
	gen, err := otp.NewGenerator(otp.DefaultConfig())
	require.NoError(t, err)

	f := &fixture{
		store:    memrepo.New(),
		mailer:   &servicetest.Mailer{},
		sessions: session.NewStore(cache.NewMemory(100, time.Hour), time.Hour),
		paseto:   servicetest.Paseto(t),
	}
	f.svc = New(Deps{
		Store:    f.store,
		Pending:  cache.NewMemory(100, time.Hour),
		Sessions: f.sessions,
		Paseto:   f.paseto,
		Hasher:   servicetest.Hasher(),
		OTP:      gen,
		Mailer:   f.mailer,
		Config:   cfg,
	})
	return f
}

func defaultCfg() config.AuthenticationConfig {
	return config.AuthenticationConfig{OTPTTLSeconds: 60, OTPMaxAttempts: 5, MinPasswordLength: 8, DefaultRegion: "IN"}
}

func patientSignup(email string) SignupRequest {
	return SignupRequest{FullName: "Asha Rao", Email: email, Password: "s3cretpass", Role: "patient"}
}

func TestSignupValidation(t *testing.T) {
	f := newFixture(t, defaultCfg())
	ctx := context.Background()

	tests := []struct {
		name string
		req  SignupRequest
		want error
	}{
		{"missing name", SignupRequest{Email: "a@x.io", Password: "s3cretpass", Role: "patient"}, ErrMissingFields},
		{"missing email", SignupRequest{FullName: "A", Password: "s3cretpass", Role: "patient"}, ErrMissingFields},
		{"bad email", SignupRequest{FullName: "A", Email: "not-an-email", Password: "s3cretpass", Role: "patient"}, ErrInvalidEmail},
		{"admin role", SignupRequest{FullName: "A", Email: "a@x.io", Password: "s3cretpass", Role: "admin"}, ErrInvalidRole},
		{"short password", SignupRequest{FullName: "A", Email: "a@x.io", Password: "short", Role: "patient"}, ErrPasswordTooShort},
		{"bad phone", SignupRequest{FullName: "A", Email: "a@x.io", Password: "s3cretpass", Role: "patient", Phone: "12"}, ErrInvalidPhone},
		{"bad gender", SignupRequest{FullName: "A", Email: "a@x.io", Password: "s3cretpass", Role: "patient", Gender: "robot"}, ErrInvalidGender},
		{"bad dob", SignupRequest{FullName: "A", Email: "a@x.io", Password: "s3cretpass", Role: "patient", DOB: "31/12/1990"}, ErrInvalidDOB},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, f.svc.Signup(ctx, tt.req), tt.want)
		})
	}
	assert.Empty(t, f.mailer.Sent)
}

func TestSignupVerifyCreatesPatient(t *testing.T) {
	f := newFixture(t, defaultCfg())
	ctx := context.Background()

	req := patientSignup("  Asha@Example.COM ")
	req.Phone = "98765 43210"
	req.DOB = "1990-04-01"
	require.NoError(t, f.svc.Signup(ctx, req))

	// nothing is persisted before verification
	_, err := f.store.Users.FindByEmail(ctx, "asha@example.com")
	require.ErrorIs(t, err, repo.ErrNotFound)

	require.Len(t, f.mailer.Sent, 1)
	assert.Equal(t, []string{"asha@example.com"}, f.mailer.Last().To)
	code := servicetest.OTPFromMailer(t, f.mailer)

	acct, err := f.svc.VerifyOTP(ctx, "asha@example.com", code)
	require.NoError(t, err)
	assert.Equal(t, "patient", acct.Role)

	u, err := f.store.Users.FindByEmail(ctx, "asha@example.com")
	require.NoError(t, err)
	assert.True(t, u.IsVerified)
	assert.Equal(t, "+919876543210", u.Phone)
	assert.NotEqual(t, "s3cretpass", u.PasswordHash)

	// the pending entry is gone
	_, err = f.svc.VerifyOTP(ctx, "asha@example.com", code)
	assert.ErrorIs(t, err, ErrSignupNotFound)
}

func TestSignupVerifyCreatesPendingDoctor(t *testing.T) {
	f := newFixture(t, defaultCfg())
	ctx := context.Background()

	req := patientSignup("doc@x.io")
	req.Role = "doctor"
	require.NoError(t, f.svc.Signup(ctx, req))

	acct, err := f.svc.VerifyOTP(ctx, "doc@x.io", servicetest.OTPFromMailer(t, f.mailer))
	require.NoError(t, err)
	assert.Equal(t, "doctor", acct.Role)

	d, err := f.store.Doctors.FindByEmail(ctx, "doc@x.io")
	require.NoError(t, err)
	assert.Equal(t, repo.StatusPending, d.VerificationStatus)
	assert.Nil(t, d.Profile)
}

func TestSignupExistingEmail(t *testing.T) {
	f := newFixture(t, defaultCfg())
	ctx := context.Background()
	require.NoError(t, f.store.Doctors.Create(ctx, &repo.Doctor{FullName: "D", Email: "taken@x.io"}))

	assert.ErrorIs(t, f.svc.Signup(ctx, patientSignup("taken@x.io")), ErrUserExists)
	assert.ErrorIs(t, f.svc.Signup(ctx, patientSignup("TAKEN@x.io")), ErrUserExists)
}

func TestVerifyOTPAttempts(t *testing.T) {
	f := newFixture(t, defaultCfg())
	ctx := context.Background()
	require.NoError(t, f.svc.Signup(ctx, patientSignup("a@x.io")))
	code := servicetest.OTPFromMailer(t, f.mailer)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	for i := 0; i < 4; i++ {
		_, err := f.svc.VerifyOTP(ctx, "a@x.io", wrong)
		require.ErrorIs(t, err, ErrInvalidOTP, "attempt %d", i+1)
	}
	_, err := f.svc.VerifyOTP(ctx, "a@x.io", wrong)
	require.ErrorIs(t, err, ErrTooManyAttempts)

	// even the right code is refused now
	_, err = f.svc.VerifyOTP(ctx, "a@x.io", code)
	require.ErrorIs(t, err, ErrTooManyAttempts)

	// a resend resets the counter
	require.NoError(t, f.svc.ResendOTP(ctx, "a@x.io"))
	_, err = f.svc.VerifyOTP(ctx, "a@x.io", servicetest.OTPFromMailer(t, f.mailer))
	require.NoError(t, err)
}

func TestVerifyOTPExpired(t *testing.T) {
	cfg := defaultCfg()
	cfg.OTPTTLSeconds = 1
	f := newFixture(t, cfg)
	ctx := context.Background()

	require.NoError(t, f.svc.Signup(ctx, patientSignup("a@x.io")))
	code := servicetest.OTPFromMailer(t, f.mailer)

	time.Sleep(1100 * time.Millisecond)
	_, err := f.svc.VerifyOTP(ctx, "a@x.io", code)
	assert.ErrorIs(t, err, ErrOTPExpired)
}

func TestResendOTPWithoutSignup(t *testing.T) {
	f := newFixture(t, defaultCfg())
	assert.ErrorIs(t, f.svc.ResendOTP(context.Background(), "nobody@x.io"), ErrSignupNotFound)
}

func signUpPatient(t *testing.T, f *fixture, email string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.svc.Signup(ctx, patientSignup(email)))
	_, err := f.svc.VerifyOTP(ctx, email, servicetest.OTPFromMailer(t, f.mailer))
	require.NoError(t, err)
}

func TestLogin(t *testing.T) {
	f := newFixture(t, defaultCfg())
	ctx := context.Background()
	signUpPatient(t, f, "p@x.io")
	_, err := f.svc.EnsureAdmin(ctx, "Root", "admin@x.io", "adminpass1")
	require.NoError(t, err)

	res, err := f.svc.Login(ctx, "P@x.io", "s3cretpass")
	require.NoError(t, err)
	assert.Equal(t, "patient", res.Account.Role)

	claims, err := f.paseto.Verify(res.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, res.Account.ID, claims.UserID)
	assert.Equal(t, "patient", claims.Role)
	require.NotNil(t, claims.SessionID)
	require.NoError(t, f.sessions.Validate(ctx, *claims.SessionID, res.Account.ID))

	_, err = f.svc.Login(ctx, "p@x.io", "wrongpass")
	assert.ErrorIs(t, err, ErrInvalidPassword)

	_, err = f.svc.Login(ctx, "ghost@x.io", "whatever1")
	assert.ErrorIs(t, err, ErrAccountNotFound)

	_, err = f.svc.Login(ctx, "admin@x.io", "adminpass1")
	assert.ErrorIs(t, err, ErrAdminUseAdminAuth)

	u, _ := f.store.Users.FindByEmail(ctx, "p@x.io")
	_, err = f.store.Users.SetBlocked(ctx, u.ID, true)
	require.NoError(t, err)
	_, err = f.svc.Login(ctx, "p@x.io", "s3cretpass")
	assert.ErrorIs(t, err, ErrAccountBlocked)
}

func TestLoginUpgradesLegacyHash(t *testing.T) {
	f := newFixture(t, defaultCfg())
	ctx := context.Background()

	legacy, err := bcrypt.GenerateFromPassword([]byte("s3cretpass"), bcrypt.MinCost)
	require.NoError(t, err)
	u := &repo.User{Name: "Old Timer", Email: "old@x.io", PasswordHash: string(legacy), Role: repo.RolePatient, IsVerified: true}
	require.NoError(t, f.store.Users.Create(ctx, u))

	_, err = f.svc.Login(ctx, "old@x.io", "s3cretpass")
	require.NoError(t, err)

	stored, err := f.store.Users.FindByEmail(ctx, "old@x.io")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stored.PasswordHash, "$argon2id$"))

	_, err = f.svc.Login(ctx, "old@x.io", "s3cretpass")
	assert.NoError(t, err)
}

func TestLoginDoctor(t *testing.T) {
	f := newFixture(t, defaultCfg())
	ctx := context.Background()

	_, err := f.svc.DoctorRegister(ctx, DoctorRegisterRequest{FullName: "Dr K", Email: "k@x.io", Password: "doctorpass"})
	require.NoError(t, err)

	_, err = f.svc.DoctorRegister(ctx, DoctorRegisterRequest{FullName: "Dr K", Email: "k@x.io", Password: "doctorpass"})
	assert.ErrorIs(t, err, ErrUserExists)

	res, err := f.svc.Login(ctx, "k@x.io", "doctorpass")
	require.NoError(t, err)
	assert.Equal(t, "doctor", res.Account.Role)

	res, err = f.svc.DoctorLogin(ctx, "k@x.io", "doctorpass")
	require.NoError(t, err)
	assert.Equal(t, "doctor", res.Account.Role)

	_, err = f.svc.DoctorLogin(ctx, "k@x.io", "nope-nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAdminLogin(t *testing.T) {
	f := newFixture(t, defaultCfg())
	ctx := context.Background()
	signUpPatient(t, f, "p@x.io")

	first, err := f.svc.EnsureAdmin(ctx, "Root", "admin@x.io", "adminpass1")
	require.NoError(t, err)
	again, err := f.svc.EnsureAdmin(ctx, "Root", "admin@x.io", "other-pass")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	res, err := f.svc.AdminLogin(ctx, "admin@x.io", "adminpass1")
	require.NoError(t, err)
	assert.Equal(t, "admin", res.Account.Role)

	for _, tc := range [][2]string{
		{"admin@x.io", "wrong"},
		{"p@x.io", "s3cretpass"},
		{"ghost@x.io", "adminpass1"},
	} {
		_, err := f.svc.AdminLogin(ctx, tc[0], tc[1])
		assert.ErrorIs(t, err, ErrInvalidCredentials, "%s", tc[0])
	}
}

func TestRefreshAndLogout(t *testing.T) {
	f := newFixture(t, defaultCfg())
	ctx := context.Background()
	signUpPatient(t, f, "p@x.io")

	res, err := f.svc.Login(ctx, "p@x.io", "s3cretpass")
	require.NoError(t, err)

	pair, err := f.svc.Refresh(ctx, res.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, res.Tokens.RefreshToken, pair.RefreshToken)
	assert.NotEmpty(t, pair.AccessToken)

	_, err = f.svc.Refresh(ctx, res.Tokens.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	claims, err := f.paseto.Verify(res.Tokens.RefreshToken)
	require.NoError(t, err)
	require.NoError(t, f.svc.Logout(ctx, *claims.SessionID))

	_, err = f.svc.Refresh(ctx, res.Tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRefreshRejectsBlockedAccount(t *testing.T) {
	f := newFixture(t, defaultCfg())
	ctx := context.Background()
	signUpPatient(t, f, "p@x.io")

	res, err := f.svc.Login(ctx, "p@x.io", "s3cretpass")
	require.NoError(t, err)

	u, err := f.store.Users.FindByEmail(ctx, "p@x.io")
	require.NoError(t, err)
	_, err = f.store.Users.SetBlocked(ctx, u.ID, true)
	require.NoError(t, err)

	_, err = f.svc.Refresh(ctx, res.Tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrAccountBlocked)

	_, err = f.store.Users.SetBlocked(ctx, u.ID, false)
	require.NoError(t, err)
	_, err = f.svc.Refresh(ctx, res.Tokens.RefreshToken)
	assert.NoError(t, err)
}
