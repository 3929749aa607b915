package middleware

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthplus/backend/config"
	"github.com/healthplus/backend/pkg/reqctx"
)

func TestRequestIDPreservesIncoming(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())
	app.Get("/", func(c fiber.Ctx) error {
		meta, ok := reqctx.RequestMetaFromContext(c.Context())
		require.True(t, ok)
		rid, ok := RequestIDFromFiber(c)
		require.True(t, ok)
		assert.Equal(t, meta.RequestID, rid)
		return c.SendString(rid)
	})

	req := httptest.NewRequest(fiber.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "req-123")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "req-123", resp.Header.Get(HeaderRequestID))

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Header.Get(HeaderRequestID))
}

func TestLimiterRejectsOverBudget(t *testing.T) {
	app := fiber.New()
	app.Use(NewLimiter(nil, limitPrefixGeneral, 2))
	app.Get("/", func(c fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	codes := make([]int, 0, 3)
	for range 3 {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
		require.NoError(t, err)
		codes = append(codes, resp.StatusCode)
	}
	assert.Equal(t, []int{fiber.StatusOK, fiber.StatusOK, fiber.StatusTooManyRequests}, codes)
}

func TestLimitersDisabledPassThrough(t *testing.T) {
	general, auth := Limiters(config.RateLimitConfig{Enabled: false}, nil)

	app := fiber.New()
	app.Use(general, auth)
	app.Get("/", func(c fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	for range 20 {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}
}

// mapStorage is a minimal fiber.Storage shared between limiters.
type mapStorage struct {
	mu sync.Mutex
	m  map[string][]byte
}

func newMapStorage() *mapStorage { return &mapStorage{m: map[string][]byte{}} }

func (s *mapStorage) GetWithContext(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m[key], nil
}

func (s *mapStorage) Get(key string) ([]byte, error) {
	return s.GetWithContext(context.Background(), key)
}

func (s *mapStorage) SetWithContext(_ context.Context, key string, val []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = append([]byte(nil), val...)
	return nil
}

func (s *mapStorage) Set(key string, val []byte, exp time.Duration) error {
	return s.SetWithContext(context.Background(), key, val, exp)
}

func (s *mapStorage) DeleteWithContext(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}

func (s *mapStorage) Delete(key string) error {
	return s.DeleteWithContext(context.Background(), key)
}

func (s *mapStorage) ResetWithContext(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m = map[string][]byte{}
	return nil
}

func (s *mapStorage) Reset() error { return s.ResetWithContext(context.Background()) }

func (s *mapStorage) Close() error { return nil }

func TestLimitersOnSharedStorageKeepSeparateBudgets(t *testing.T) {
	storage := newMapStorage()

	app := fiber.New()
	app.Use(NewLimiter(storage, limitPrefixGeneral, 5))
	app.Get("/api/doctors", func(c fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Post("/api/auth/login", NewLimiter(storage, limitPrefixAuth, 2), func(c fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	for range 4 {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/doctors", nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	// general traffic does not eat into the auth budget
	resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/api/auth/login", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	storage.mu.Lock()
	defer storage.mu.Unlock()
	var general, auth int
	for k := range storage.m {
		switch {
		case strings.HasPrefix(k, limitPrefixGeneral):
			general++
		case strings.HasPrefix(k, limitPrefixAuth):
			auth++
		}
	}
	assert.Equal(t, 1, general)
	assert.Equal(t, 1, auth)
}
