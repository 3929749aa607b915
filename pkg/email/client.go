package email

import (
	"context"
	"crypto/tls"
	"log/slog"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/healthplus/backend/config"
)

type Client struct {
	cfg    Config
	dialer *gomail.Dialer
}

func NewFromCentral(cfg config.EmailConfig) *Client {
	return New(FromCentralConfig(cfg))
}

func New(cfg Config) *Client {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	// 465 is implicit TLS, other ports upgrade with STARTTLS.
	d.SSL = cfg.UseTLS && cfg.Port == 465
	d.TLSConfig = &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}
	return &Client{cfg: cfg, dialer: d}
}

// Send validates m and delivers it. With email disabled the message is only
// logged, so local setups need no mail server.
func (c *Client) Send(ctx context.Context, m Message) error {
	msg, err := c.compose(m)
	if err != nil {
		return err
	}

	if !c.cfg.Enabled {
		slog.DebugContext(ctx, "email disabled, message dropped", "to", m.To, "subject", m.Subject)
		return nil
	}

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() { done <- c.dialer.DialAndSend(msg) }()

	select {
	case err := <-done:
		if err != nil {
			return &SendError{Host: c.cfg.Host, Err: err}
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) compose(m Message) (*gomail.Message, error) {
	from := strings.TrimSpace(c.cfg.From)
	if from == "" {
		return nil, invalid("sender address is not configured")
	}

	var to []string
	for _, addr := range m.To {
		if addr = strings.TrimSpace(addr); addr != "" {
			to = append(to, addr)
		}
	}
	if len(to) == 0 {
		return nil, invalid("no recipients")
	}

	subject := strings.TrimSpace(m.Subject)
	if subject == "" {
		return nil, invalid("empty subject")
	}

	text, htmlBody := strings.TrimSpace(m.TextBody) != "", strings.TrimSpace(m.HTMLBody) != ""
	if !text && !htmlBody {
		return nil, invalid("empty body")
	}

	msg := gomail.NewMessage()
	if c.cfg.SenderName != "" {
		msg.SetAddressHeader("From", from, c.cfg.SenderName)
	} else {
		msg.SetHeader("From", from)
	}
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", subject)
	if r := strings.TrimSpace(m.ReplyTo); r != "" {
		msg.SetHeader("Reply-To", r)
	}

	// Plain text first so clients that prefer it pick it up.
	if text {
		msg.SetBody("text/plain", m.TextBody)
		if htmlBody {
			msg.AddAlternative("text/html", m.HTMLBody)
		}
	} else {
		msg.SetBody("text/html", m.HTMLBody)
	}
	return msg, nil
}
