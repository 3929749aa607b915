package cache

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore keeps entries in a bounded LRU. Entries carry their own
// expiry; maxTTL is only the eviction horizon of the underlying LRU.
type MemoryStore struct {
	mu  sync.Mutex
	lru *expirable.LRU[string, entry]
	now func() time.Time
}

func NewMemory(size int, maxTTL time.Duration) *MemoryStore {
	if size <= 0 {
		size = 10000
	}
	return &MemoryStore{
		lru: expirable.NewLRU[string, entry](size, nil, maxTTL),
		now: time.Now,
	}
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := append([]byte(nil), value...)

	if ttl == KeepTTL {
		old, ok := s.lru.Peek(key)
		if !ok || !s.now().Before(old.expiresAt) {
			return ErrNotFound
		}
		s.lru.Add(key, entry{value: v, expiresAt: old.expiresAt})
		return nil
	}

	s.lru.Add(key, entry{value: v, expiresAt: s.now().Add(ttl)})
	return nil
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lru.Get(key)
	if !ok {
		return nil, ErrNotFound
	}
	if !s.now().Before(e.expiresAt) {
		s.lru.Remove(key)
		return nil, ErrNotFound
	}
	return append([]byte(nil), e.value...), nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lru.Remove(key)
	return nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }
