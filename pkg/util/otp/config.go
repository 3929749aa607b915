package otp

import "github.com/healthplus/backend/config"

// Config holds OTP generation settings.
type Config struct {
	// Length is the number of digits in a generated code.
	Length int
}

func DefaultConfig() Config {
	return Config{Length: DefaultLength}
}

// Validate checks if the config values are valid
func (c Config) Validate() error {
	if c.Length < MinLength || c.Length > MaxLength {
		return ErrInvalidLength
	}
	return nil
}

// FromCentralConfig converts central config.OTPConfig to package Config
func FromCentralConfig(c config.OTPConfig) Config {
	if c.Length == 0 {
		return DefaultConfig()
	}
	return Config{Length: c.Length}
}
