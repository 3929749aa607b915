package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPBus publishes to a topic exchange using the subject as routing key.
// Each subscription gets a durable queue named after the subject.
type AMQPBus struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	mu       sync.Mutex
}

func NewAMQP(url, exchange string) (*AMQPBus, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("amqp exchange declare: %w", err)
	}

	return &AMQPBus{conn: conn, channel: ch, exchange: exchange}, nil
}

func (b *AMQPBus) Publish(ctx context.Context, subject string, payload any) error {
	data, err := encode(payload)
	if err != nil {
		return err
	}

	// amqp channels are not safe for concurrent publishing
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.channel.PublishWithContext(ctx, b.exchange, subject, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         data,
	})
}

func (b *AMQPBus) Subscribe(subject string, h Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	q, err := b.channel.QueueDeclare(subject, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("amqp queue declare: %w", err)
	}
	if err := b.channel.QueueBind(q.Name, subject, b.exchange, false, nil); err != nil {
		return fmt.Errorf("amqp queue bind: %w", err)
	}

	msgs, err := b.channel.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("amqp consume: %w", err)
	}

	go func() {
		for d := range msgs {
			if err := h(context.Background(), d.Body); err != nil {
				slog.Warn("events: handler failed", "subject", subject, "err", err)
				// dropped, or dead-lettered when the queue has a DLX
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}()

	return nil
}

func (b *AMQPBus) Close() error {
	if b == nil || b.channel == nil {
		return nil
	}
	if err := b.channel.Close(); err != nil {
		return err
	}
	return b.conn.Close()
}
