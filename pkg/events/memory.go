package events

import (
	"context"
	"log/slog"
	"sync"
)

// Memory delivers events synchronously in-process. Tests and single-binary
// setups use it.
type Memory struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	closed   bool
}

func NewMemory() *Memory {
	return &Memory{handlers: make(map[string][]Handler)}
}

func (m *Memory) Publish(ctx context.Context, subject string, payload any) error {
	data, err := encode(payload)
	if err != nil {
		return err
	}

	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return ErrClosed
	}
	hs := append([]Handler(nil), m.handlers[subject]...)
	m.mu.RUnlock()

	for _, h := range hs {
		if err := h(ctx, data); err != nil {
			slog.Warn("events: handler failed", "subject", subject, "err", err)
		}
	}
	return nil
}

func (m *Memory) Subscribe(subject string, h Handler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.handlers[subject] = append(m.handlers[subject], h)
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.handlers = nil
	return nil
}
