// Package email sends transactional mail (signup codes, verification and
// appointment notices) over SMTP.
package email

import (
	"errors"
	"fmt"
	"time"

	"github.com/healthplus/backend/config"
)

// ErrInvalidMessage wraps every validation failure from Send.
var ErrInvalidMessage = errors.New("invalid email message")

// SendError is returned when the SMTP exchange itself fails.
type SendError struct {
	Host string
	Err  error
}

func (e *SendError) Error() string { return fmt.Sprintf("smtp send via %s: %v", e.Host, e.Err) }
func (e *SendError) Unwrap() error { return e.Err }

type Message struct {
	To       []string
	ReplyTo  string
	Subject  string
	TextBody string
	HTMLBody string
}

type Config struct {
	Enabled    bool
	From       string
	SenderName string

	Host     string
	Port     int
	Username string
	Password string
	UseTLS   bool
	Timeout  time.Duration
}

func FromCentralConfig(c config.EmailConfig) Config {
	timeout := time.Duration(c.SMTP.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return Config{
		Enabled:    c.Enabled,
		From:       c.From,
		SenderName: appName,
		Host:       c.SMTP.Host,
		Port:       c.SMTP.Port,
		Username:   c.SMTP.Username,
		Password:   c.SMTP.Password,
		UseTLS:     c.SMTP.UseTLS,
		Timeout:    timeout,
	}
}

func invalid(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidMessage, reason)
}
