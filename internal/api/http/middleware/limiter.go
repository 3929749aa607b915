package middleware

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	fiberredis "github.com/gofiber/storage/redis/v3"
	"github.com/redis/go-redis/v9"

	"github.com/healthplus/backend/config"
)

const (
	limitPrefixGeneral = "rl:general:"
	limitPrefixAuth    = "rl:auth:"
)

// NewLimiter builds a sliding-window limiter allowing perMinute requests per
// client IP. Counters are keyed under prefix so limiters sharing one storage
// keep separate budgets. A nil storage keeps counters in process memory.
func NewLimiter(storage fiber.Storage, prefix string, perMinute int) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               perMinute,
		Expiration:        time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		Storage:           storage,
		KeyGenerator: func(c fiber.Ctx) string {
			return prefix + c.IP()
		},
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many requests"})
		},
	})
}

// Limiters returns the general and the stricter auth limiter. Both are no-ops
// when rate limiting is disabled.
func Limiters(cfg config.RateLimitConfig, rdb *redis.Client) (general, auth fiber.Handler) {
	if !cfg.Enabled {
		pass := func(c fiber.Ctx) error { return c.Next() }
		return pass, pass
	}
	var storage fiber.Storage
	if rdb != nil {
		storage = fiberredis.NewFromConnection(rdb)
	}
	general = NewLimiter(storage, limitPrefixGeneral, orDefault(cfg.RequestsPerMinute, 120))
	auth = NewLimiter(storage, limitPrefixAuth, orDefault(cfg.AuthPerMinute, 10))
	return general, auth
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
