package redis

import (
	"testing"
	"time"

	"github.com/healthplus/backend/config"
)

func TestFromCentralConfigDefaults(t *testing.T) {
	got := FromCentralConfig(config.RedisConfig{Addr: "cache:6379", PoolSize: 25})

	if got.Addr != "cache:6379" {
		t.Errorf("Addr = %q", got.Addr)
	}
	if got.PoolSize != 25 {
		t.Errorf("PoolSize = %d, want 25", got.PoolSize)
	}
	if got.MinIdleConns != DefaultConfig().MinIdleConns {
		t.Errorf("MinIdleConns = %d, want default", got.MinIdleConns)
	}
	if got.DialTimeout() != 5*time.Second {
		t.Errorf("DialTimeout() = %v, want 5s", got.DialTimeout())
	}
}
