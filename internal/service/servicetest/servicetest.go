// Package servicetest holds fakes shared by service and HTTP tests.
package servicetest

import (
	"context"
	"io"
	"sync"

	"github.com/healthplus/backend/pkg/email"
)

// Storage keeps uploaded objects in memory.
type Storage struct {
	mu      sync.Mutex
	Objects map[string][]byte
}

func NewStorage() *Storage {
	return &Storage{Objects: map[string][]byte{}}
}

func (s *Storage) Upload(_ context.Context, key, _ string, body io.Reader, _ int64) error {
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Objects[key] = b
	return nil
}

func (s *Storage) ObjectURL(key string) string { return "https://files.test/" + key }

func (s *Storage) PresignDownload(_ context.Context, key string) (string, error) {
	return s.ObjectURL(key) + "?signed=1", nil
}

func (s *Storage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Objects, key)
	return nil
}

// Mailer records every message instead of sending it.
type Mailer struct {
	mu   sync.Mutex
	Sent []email.Message
	Err  error
}

func (m *Mailer) Send(_ context.Context, msg email.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, msg)
	return nil
}

// Last returns the most recent message, or the zero value.
func (m *Mailer) Last() email.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return email.Message{}
	}
	return m.Sent[len(m.Sent)-1]
}
