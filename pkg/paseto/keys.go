package pasetotoken

import (
	"fmt"
	"strings"

	paseto "aidanwoods.dev/go-paseto"

	"github.com/healthplus/backend/config"
)

type Mode string

const (
	ModeLocal  Mode = "local"  // v4.local, encrypted
	ModePublic Mode = "public" // v4.public, signed
)

// Keys holds the key material for one mode. A public-mode Keys without a
// secret can verify but not issue.
type Keys struct {
	Mode      Mode
	Symmetric *paseto.V4SymmetricKey
	Secret    *paseto.V4AsymmetricSecretKey
	Public    *paseto.V4AsymmetricPublicKey
}

func KeysFromConfig(p config.PasetoConfig) (Keys, error) {
	switch Mode(p.Mode) {
	case ModeLocal:
		raw := strings.TrimSpace(p.LocalKeyHex)
		if raw == "" {
			return Keys{}, fmt.Errorf("%w: local mode needs local_key_hex", ErrConfig)
		}
		k, err := paseto.V4SymmetricKeyFromHex(raw)
		if err != nil {
			return Keys{}, fmt.Errorf("%w: local_key_hex: %v", ErrConfig, err)
		}
		return Keys{Mode: ModeLocal, Symmetric: &k}, nil

	case ModePublic:
		keys := Keys{Mode: ModePublic}
		if raw := strings.TrimSpace(p.SecretKeyHex); raw != "" {
			sk, err := paseto.NewV4AsymmetricSecretKeyFromHex(raw)
			if err != nil {
				return Keys{}, fmt.Errorf("%w: secret_key_hex: %v", ErrConfig, err)
			}
			pk := sk.Public()
			keys.Secret, keys.Public = &sk, &pk
		}
		if raw := strings.TrimSpace(p.PublicKeyHex); raw != "" && keys.Public == nil {
			pk, err := paseto.NewV4AsymmetricPublicKeyFromHex(raw)
			if err != nil {
				return Keys{}, fmt.Errorf("%w: public_key_hex: %v", ErrConfig, err)
			}
			keys.Public = &pk
		}
		if keys.Public == nil {
			return Keys{}, fmt.Errorf("%w: public mode needs secret_key_hex or public_key_hex", ErrConfig)
		}
		return keys, nil

	default:
		return Keys{}, fmt.Errorf("%w: mode %q, want local or public", ErrConfig, p.Mode)
	}
}

func NewLocalKeys() Keys {
	k := paseto.NewV4SymmetricKey()
	return Keys{Mode: ModeLocal, Symmetric: &k}
}

func NewPublicKeys() Keys {
	sk := paseto.NewV4AsymmetricSecretKey()
	pk := sk.Public()
	return Keys{Mode: ModePublic, Secret: &sk, Public: &pk}
}

// ConfigValues renders the keys as the hex strings the config file expects,
// keyed by config field name.
func (k Keys) ConfigValues() map[string]string {
	out := map[string]string{"mode": string(k.Mode)}
	if k.Symmetric != nil {
		out["local_key_hex"] = k.Symmetric.ExportHex()
	}
	if k.Secret != nil {
		out["secret_key_hex"] = k.Secret.ExportHex()
	}
	if k.Public != nil {
		out["public_key_hex"] = k.Public.ExportHex()
	}
	return out
}

func (k Keys) seal(tok *paseto.Token, implicit []byte) (string, error) {
	switch {
	case k.Mode == ModeLocal && k.Symmetric != nil:
		return tok.V4Encrypt(*k.Symmetric, implicit), nil
	case k.Mode == ModePublic && k.Secret != nil:
		return tok.V4Sign(*k.Secret, implicit), nil
	}
	return "", fmt.Errorf("%w: no key to issue %s tokens", ErrConfig, k.Mode)
}

func (k Keys) open(p *paseto.Parser, raw string, implicit []byte) (*paseto.Token, error) {
	switch {
	case k.Mode == ModeLocal && k.Symmetric != nil:
		return p.ParseV4Local(*k.Symmetric, raw, implicit)
	case k.Mode == ModePublic && k.Public != nil:
		return p.ParseV4Public(*k.Public, raw, implicit)
	}
	return nil, fmt.Errorf("%w: no key to verify %s tokens", ErrConfig, k.Mode)
}
