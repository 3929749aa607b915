package events

import (
	"context"
	"log/slog"

	"github.com/nats-io/nats.go"
)

type NatsBus struct {
	nc *nats.Conn
}

func NewNats(url string) (*NatsBus, error) {
	nc, err := nats.Connect(url,
		nats.Name("healthplus"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, err
	}
	return &NatsBus{nc: nc}, nil
}

func (b *NatsBus) Publish(ctx context.Context, subject string, payload any) error {
	data, err := encode(payload)
	if err != nil {
		return err
	}
	return b.nc.Publish(subject, data)
}

func (b *NatsBus) Subscribe(subject string, h Handler) error {
	_, err := b.nc.Subscribe(subject, func(msg *nats.Msg) {
		if err := h(context.Background(), msg.Data); err != nil {
			slog.Warn("events: handler failed", "subject", msg.Subject, "err", err)
		}
	})
	return err
}

func (b *NatsBus) Close() error {
	return b.nc.Drain()
}
