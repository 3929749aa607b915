// Package logs builds the process slog.Logger from the logging config
// section: stdout, a rotated file and Loki, in any combination.
package logs

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/healthplus/backend/config"
)

const redacted = "[REDACTED]"

// sensitiveKeys never reach a sink with their value.
var sensitiveKeys = map[string]struct{}{
	"password":      {},
	"password_hash": {},
	"otp":           {},
	"code":          {},
	"token":         {},
	"access_token":  {},
	"refresh_token": {},
	"authorization": {},
}

func New(cfg *config.Config) *slog.Logger {
	level := parseLevel(cfg.Logging.Level)
	dev := strings.EqualFold(cfg.Server.Environment, "development")

	var handlers []slog.Handler
	if h := localHandler(cfg, level, dev); h != nil {
		handlers = append(handlers, h)
	}
	if cfg.Logging.Output.Loki.Enabled {
		handlers = append(handlers, newLokiHandler(cfg, level))
	}

	var h slog.Handler = &multiHandler{handlers: handlers}
	if len(handlers) == 1 {
		h = handlers[0]
	}

	return slog.New(h).With(
		slog.String("service", cfg.Observability.ServiceName),
		slog.String("version", cfg.Observability.ServiceVersion),
		slog.String("env", cfg.Server.Environment),
	)
}

// localHandler writes to stdout and/or the rotated log file. Stdout is used
// when no other sink is enabled.
func localHandler(cfg *config.Config, level slog.Level, dev bool) slog.Handler {
	out := cfg.Logging.Output

	var writers []io.Writer
	if out.Stdout || (!out.File.Enabled && !out.Loki.Enabled) {
		writers = append(writers, os.Stdout)
	}
	if out.File.Enabled {
		writers = append(writers, &lumberjack.Logger{
			Filename:   out.File.Path,
			MaxSize:    out.File.MaxSizeMB,
			MaxBackups: out.File.MaxBackups,
			MaxAge:     out.File.MaxAgeDays,
			Compress:   out.File.Compress,
		})
	}
	if len(writers) == 0 {
		return nil
	}

	w := io.MultiWriter(writers...)
	opts := handlerOptions(level, dev)
	// Text output is a development convenience only.
	if dev && strings.EqualFold(cfg.Logging.Format, "text") {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

func handlerOptions(level slog.Level, source bool) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level:       level,
		AddSource:   source,
		ReplaceAttr: redact,
	}
}

func redact(_ []string, a slog.Attr) slog.Attr {
	if _, ok := sensitiveKeys[strings.ToLower(a.Key)]; ok {
		return slog.String(a.Key, redacted)
	}
	return a
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return l
}
