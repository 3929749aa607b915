package pasetotoken

import (
	"time"

	paseto "aidanwoods.dev/go-paseto"
	"github.com/google/uuid"
)

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

const (
	claimType    = "typ"
	claimRole    = "role"
	claimSession = "sid"
)

// Subject identifies who a token is issued to.
type Subject struct {
	ID   string // account object id, hex
	Role string
}

// Claims is the verified token payload. It satisfies reqctx.AuthClaims.
type Claims struct {
	Type      TokenType
	UserID    string
	Role      string
	SessionID *uuid.UUID

	Issuer    string
	Audience  string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

func (c *Claims) GetUserID() string { return c.UserID }
func (c *Claims) GetRole() string { return c.Role }
func (c *Claims) GetSessionID() *uuid.UUID { return c.SessionID }
func (c *Claims) GetTokenType() string { return string(c.Type) }
func (c *Claims) IsExpired() bool { return time.Now().After(c.ExpiresAt) }

func readClaims(tok *paseto.Token) (*Claims, error) {
	var (
		c   Claims
		err error
	)
	if c.UserID, err = tok.GetSubject(); err != nil {
		return nil, err
	}
	if c.TokenID, err = tok.GetJti(); err != nil {
		return nil, err
	}
	if c.IssuedAt, err = tok.GetIssuedAt(); err != nil {
		return nil, err
	}
	if c.ExpiresAt, err = tok.GetExpiration(); err != nil {
		return nil, err
	}
	typ, err := tok.GetString(claimType)
	if err != nil {
		return nil, err
	}
	c.Type = TokenType(typ)
	if c.Role, err = tok.GetString(claimRole); err != nil {
		return nil, err
	}

	if raw, err := tok.GetString(claimSession); err == nil {
		sid, err := uuid.Parse(raw)
		if err != nil {
			return nil, err
		}
		c.SessionID = &sid
	}
	return &c, nil
}
