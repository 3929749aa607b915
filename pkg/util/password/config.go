package password

import "github.com/healthplus/backend/config"

// Config holds Argon2id password hashing parameters
type Config struct {
	// Memory usage in KiB (64 MiB default, OWASP recommended)
	MemoryKiB uint32

	// Number of iterations
	Iterations uint32

	// Degree of parallelism
	Parallelism uint8

	// Length of random salt in bytes
	SaltLength uint32

	// Length of derived key in bytes
	KeyLength uint32

	// LowMemoryMode caps memory at 32 MiB for constrained environments
	LowMemoryMode bool
}

func (c Config) params() Params {
	memory := c.MemoryKiB
	if c.LowMemoryMode && memory > 32*1024 {
		memory = 32 * 1024
	}
	return Params{
		Memory:      memory,
		Iterations:  c.Iterations,
		Parallelism: c.Parallelism,
		SaltLength:  c.SaltLength,
		KeyLength:   c.KeyLength,
	}
}

// DefaultConfig returns OWASP-recommended defaults for password hashing
func DefaultConfig() Config {
	return Config{
		MemoryKiB:   64 * 1024,
		Iterations:  3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// FromCentralConfig converts central config.PasswordConfig to package Config.
// Zero values fall back to the defaults.
func FromCentralConfig(c config.PasswordConfig) Config {
	d := DefaultConfig()
	if c.MemoryKiB != 0 {
		d.MemoryKiB = c.MemoryKiB
	}
	if c.Iterations != 0 {
		d.Iterations = c.Iterations
	}
	if c.Parallelism != 0 {
		d.Parallelism = c.Parallelism
	}
	if c.SaltLength != 0 {
		d.SaltLength = c.SaltLength
	}
	if c.KeyLength != 0 {
		d.KeyLength = c.KeyLength
	}
	d.LowMemoryMode = c.LowMemoryMode
	return d
}
