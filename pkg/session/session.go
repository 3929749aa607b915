package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/healthplus/backend/pkg/cache"
)

var ErrNotFound = errors.New("session not found")

type Session struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Store tracks live login sessions. A token is only honored while its
// session key exists, which is what makes logout effective.
type Store struct {
	kv  cache.Store
	ttl time.Duration

	// guards the read-modify-write of user session indexes
	mu sync.Mutex
}

func NewStore(kv cache.Store, ttl time.Duration) *Store {
	return &Store{kv: kv, ttl: ttl}
}

func key(id uuid.UUID) string { return "session:" + id.String() }

func userKey(userID string) string { return "user_sessions:" + userID }

func (s *Store) Create(ctx context.Context, userID, role string) (*Session, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("session id: %w", err)
	}
	sess := &Session{
		ID:        id,
		UserID:    userID,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	b, err := json.Marshal(sess)
	if err != nil {
		return nil, err
	}
	if err := s.kv.Set(ctx, key(sess.ID), b, s.ttl); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	if err := s.index(ctx, userID, sess.ID); err != nil {
		_ = s.kv.Delete(ctx, key(sess.ID))
		return nil, fmt.Errorf("index session: %w", err)
	}
	return sess, nil
}

// index records id under the user's session list. The list expires with
// the newest session, so it never outlives any session it names.
func (s *Store) index(ctx context.Context, userID string, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.userSessions(ctx, userID)
	if err != nil {
		return err
	}
	live := make([]uuid.UUID, 0, len(ids)+1)
	for _, old := range ids {
		if _, err := s.kv.Get(ctx, key(old)); err == nil {
			live = append(live, old)
		}
	}
	b, err := json.Marshal(append(live, id))
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, userKey(userID), b, s.ttl)
}

func (s *Store) userSessions(ctx context.Context, userID string) ([]uuid.UUID, error) {
	b, err := s.kv.Get(ctx, userKey(userID))
	if errors.Is(err, cache.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var ids []uuid.UUID
	if err := json.Unmarshal(b, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	b, err := s.kv.Get(ctx, key(id))
	if errors.Is(err, cache.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal(b, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Validate confirms the session exists and belongs to userID.
func (s *Store) Validate(ctx context.Context, id uuid.UUID, userID string) error {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if sess.UserID != userID {
		return ErrNotFound
	}
	return nil
}

func (s *Store) Revoke(ctx context.Context, id uuid.UUID) error {
	return s.kv.Delete(ctx, key(id))
}

// RevokeAll ends every session of userID.
func (s *Store) RevokeAll(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.userSessions(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user sessions: %w", err)
	}
	for _, id := range ids {
		if err := s.kv.Delete(ctx, key(id)); err != nil {
			return fmt.Errorf("delete session %s: %w", id, err)
		}
	}
	return s.kv.Delete(ctx, userKey(userID))
}
