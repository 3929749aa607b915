package database

import (
	"time"

	"github.com/healthplus/backend/config"
)

// Config holds database connection and behavior settings
type Config struct {
	URI      string
	Database string

	// Connection pooling
	MaxPoolSize uint64
	MinPoolSize uint64

	ConnectTimeoutSeconds int

	// Index management
	AutoIndex bool
}

// ConnectTimeout returns the connect timeout as a duration
func (c Config) ConnectTimeout() time.Duration {
	if c.ConnectTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.ConnectTimeoutSeconds) * time.Second
}

// DefaultConfig returns sensible defaults for database configuration
func DefaultConfig() Config {
	return Config{
		URI:                   "mongodb://localhost:27017",
		Database:              "healthplus",
		MaxPoolSize:           50,
		ConnectTimeoutSeconds: 10,
		AutoIndex:             true,
	}
}

// FromCentralConfig converts central config.MongoConfig to package Config
func FromCentralConfig(c config.MongoConfig) Config {
	d := DefaultConfig()
	out := Config{
		URI:                   c.URI,
		Database:              c.Database,
		MaxPoolSize:           c.MaxPoolSize,
		MinPoolSize:           c.MinPoolSize,
		ConnectTimeoutSeconds: c.ConnectTimeoutSeconds,
		AutoIndex:             c.AutoIndex,
	}
	if out.URI == "" {
		out.URI = d.URI
	}
	if out.Database == "" {
		out.Database = d.Database
	}
	if out.MaxPoolSize == 0 {
		out.MaxPoolSize = d.MaxPoolSize
	}
	return out
}
