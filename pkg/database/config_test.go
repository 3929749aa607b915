package database

import (
	"testing"
	"time"

	"github.com/healthplus/backend/config"
)

func TestFromCentralConfig(t *testing.T) {
	got := FromCentralConfig(config.MongoConfig{})
	if got.URI != "mongodb://localhost:27017" || got.Database != "healthplus" || got.MaxPoolSize != 50 {
		t.Errorf("FromCentralConfig(empty) = %+v", got)
	}

	got = FromCentralConfig(config.MongoConfig{
		URI:                   "mongodb://db:27017",
		Database:              "clinic",
		MaxPoolSize:           5,
		ConnectTimeoutSeconds: 3,
	})
	if got.URI != "mongodb://db:27017" || got.Database != "clinic" || got.MaxPoolSize != 5 {
		t.Errorf("FromCentralConfig() = %+v", got)
	}
	if got.ConnectTimeout() != 3*time.Second {
		t.Errorf("ConnectTimeout() = %v", got.ConnectTimeout())
	}
}

func TestConnectTimeoutDefault(t *testing.T) {
	if d := (Config{}).ConnectTimeout(); d != 10*time.Second {
		t.Errorf("ConnectTimeout() = %v, want 10s", d)
	}
}
