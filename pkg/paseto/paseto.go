// Package pasetotoken issues and verifies the v4 PASETO access and refresh
// tokens handed out at login. Both tokens of a pair carry the session id.
package pasetotoken

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	paseto "aidanwoods.dev/go-paseto"
	"github.com/google/uuid"
)

type Config struct {
	Mode       Mode
	Issuer     string
	Audience   string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Implicit is authenticated but not embedded in the token.
	Implicit []byte
}

type Manager struct {
	cfg    Config
	keys   Keys
	parser paseto.Parser
}

// Pair is an access/refresh token pair bound to one session.
type Pair struct {
	AccessToken      string    `json:"accessToken"`
	RefreshToken     string    `json:"refreshToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

func New(cfg Config, keys Keys) (*Manager, error) {
	switch {
	case cfg.Mode != keys.Mode:
		return nil, fmt.Errorf("%w: config mode %q but keys are %q", ErrConfig, cfg.Mode, keys.Mode)
	case cfg.Issuer == "":
		return nil, fmt.Errorf("%w: issuer is required", ErrConfig)
	case cfg.Audience == "":
		return nil, fmt.Errorf("%w: audience is required", ErrConfig)
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}

	p := paseto.NewParser()
	p.AddRule(paseto.IssuedBy(cfg.Issuer))
	p.AddRule(paseto.ForAudience(cfg.Audience))
	p.AddRule(paseto.NotExpired())
	p.AddRule(notBeforeNow)

	return &Manager{cfg: cfg, keys: keys, parser: p}, nil
}

// paseto.ValidAt would freeze the clock when the parser is built.
func notBeforeNow(tok paseto.Token) error {
	nbf, err := tok.GetNotBefore()
	if err != nil {
		return err
	}
	if time.Now().Before(nbf) {
		return errors.New("token used before nbf")
	}
	return nil
}

func (m *Manager) RefreshTTL() time.Duration { return m.cfg.RefreshTTL }

// IssueAccess returns a new access token and its expiry.
func (m *Manager) IssueAccess(sub Subject, sessionID *uuid.UUID) (string, time.Time, error) {
	return m.issue(TokenTypeAccess, sub, sessionID, m.cfg.AccessTTL)
}

func (m *Manager) IssueRefresh(sub Subject, sessionID *uuid.UUID) (string, time.Time, error) {
	return m.issue(TokenTypeRefresh, sub, sessionID, m.cfg.RefreshTTL)
}

func (m *Manager) IssuePair(sub Subject, sessionID uuid.UUID) (Pair, error) {
	access, accessExp, err := m.IssueAccess(sub, &sessionID)
	if err != nil {
		return Pair{}, err
	}
	refresh, refreshExp, err := m.IssueRefresh(sub, &sessionID)
	if err != nil {
		return Pair{}, err
	}
	return Pair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Verify checks signature or encryption, issuer, audience and time bounds.
func (m *Manager) Verify(raw string) (*Claims, error) {
	tok, err := m.keys.open(&m.parser, raw, m.cfg.Implicit)
	if err != nil {
		if errors.Is(err, ErrConfig) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, err := readClaims(tok)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims.Issuer, claims.Audience = m.cfg.Issuer, m.cfg.Audience
	return claims, nil
}

// VerifyAs is Verify plus a check that the token is of type tt and bound to
// a session.
func (m *Manager) VerifyAs(raw string, tt TokenType) (*Claims, error) {
	claims, err := m.Verify(raw)
	if err != nil {
		return nil, err
	}
	if claims.Type != tt || claims.SessionID == nil {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrWrongTokenType, claims.Type, tt)
	}
	return claims, nil
}

func (m *Manager) issue(tt TokenType, sub Subject, sessionID *uuid.UUID, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(ttl)

	tok := paseto.NewToken()
	tok.SetIssuer(m.cfg.Issuer)
	tok.SetAudience(m.cfg.Audience)
	tok.SetJti(newTokenID())
	tok.SetIssuedAt(now)
	tok.SetNotBefore(now)
	tok.SetExpiration(exp)
	tok.SetSubject(sub.ID)
	tok.SetString(claimType, string(tt))
	tok.SetString(claimRole, sub.Role)
	if sessionID != nil {
		tok.SetString(claimSession, sessionID.String())
	}

	out, err := m.keys.seal(&tok, m.cfg.Implicit)
	if err != nil {
		return "", time.Time{}, err
	}
	return out, exp, nil
}

func newTokenID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
