package servicetest

import (
	"regexp"
	"testing"
	"time"

	pasetotoken "github.com/healthplus/backend/pkg/paseto"
	"github.com/healthplus/backend/pkg/util/password"
)

// Hasher returns an argon2id hasher with parameters cheap enough for tests.
func Hasher() *password.Hasher {
	return password.NewHasher(password.Config{
		MemoryKiB:   1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
}

// Paseto returns a local-mode token manager with a fresh key.
func Paseto(t *testing.T) *pasetotoken.Manager {
	t.Helper()
	m, err := pasetotoken.New(pasetotoken.Config{
		Mode:       pasetotoken.ModeLocal,
		Issuer:     "healthplus-test",
		Audience:   "healthplus-test",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: time.Hour,
	}, pasetotoken.NewLocalKeys())
	if err != nil {
		t.Fatalf("paseto manager: %v", err)
	}
	return m
}

var otpPattern = regexp.MustCompile(`\b\d{6}\b`)

// OTPFromMailer pulls the code out of the last OTP email sent.
func OTPFromMailer(t *testing.T, m *Mailer) string {
	t.Helper()
	code := otpPattern.FindString(m.Last().TextBody)
	if code == "" {
		t.Fatalf("no OTP code in last email: %q", m.Last().TextBody)
	}
	return code
}
