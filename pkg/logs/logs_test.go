package logs

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/healthplus/backend/config"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"info":  slog.LevelInfo,
		"":      slog.LevelInfo,
		"bogus": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestMultiHandlerFanOut(t *testing.T) {
	var infoBuf, errBuf bytes.Buffer
	h := &multiHandler{handlers: []slog.Handler{
		slog.NewJSONHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(&errBuf, &slog.HandlerOptions{Level: slog.LevelError}),
	}}
	log := slog.New(h).With("component", "test")

	log.Info("hello")
	log.Error("boom")

	if got := strings.Count(infoBuf.String(), "\n"); got != 2 {
		t.Errorf("info handler got %d lines, want 2", got)
	}
	if got := strings.Count(errBuf.String(), "\n"); got != 1 {
		t.Errorf("error handler got %d lines, want 1", got)
	}
	if !strings.Contains(errBuf.String(), `"component":"test"`) {
		t.Errorf("attrs not propagated: %s", errBuf.String())
	}
	if h.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Enabled(debug) = true, want false")
	}
}

func TestLokiWriter(t *testing.T) {
	var got lokiPush
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/loki/api/v1/push" {
			t.Errorf("path = %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("bad payload: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	cfg := &config.Config{}
	cfg.Observability.ServiceName = "healthplus"
	cfg.Server.Environment = "test"
	cfg.Logging.Output.Loki.Endpoint = srv.URL + "/"

	log := slog.New(newLokiHandler(cfg, slog.LevelInfo))
	log.Info("doctor approved", "doctor_id", "abc")

	if len(got.Streams) != 1 {
		t.Fatalf("streams = %d, want 1", len(got.Streams))
	}
	s := got.Streams[0]
	if s.Stream["service"] != "healthplus" || s.Stream["env"] != "test" {
		t.Errorf("labels = %v", s.Stream)
	}
	if !strings.Contains(s.Values[0][1], "doctor approved") {
		t.Errorf("line = %q", s.Values[0][1])
	}
}

func TestLokiPayloadEscapes(t *testing.T) {
	lw := &lokiWriter{labels: map[string]string{"service": "x"}}
	body, err := lw.payload([]byte(`{"msg":"quote \" here"}`+"\n"), time.Unix(0, 42))
	if err != nil {
		t.Fatalf("payload() error = %v", err)
	}
	var p lokiPush
	if err := json.Unmarshal(body, &p); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if p.Streams[0].Values[0][0] != "42" {
		t.Errorf("timestamp = %q", p.Streams[0].Values[0][0])
	}
}

func TestRedactsSensitiveAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, handlerOptions(slog.LevelInfo, false)))

	log.Info("otp issued", "email", "asha@example.com", "otp", "042137", "Password", "hunter22")

	out := buf.String()
	if strings.Contains(out, "042137") || strings.Contains(out, "hunter22") {
		t.Errorf("secret leaked: %s", out)
	}
	if !strings.Contains(out, "asha@example.com") {
		t.Errorf("non-sensitive attr dropped: %s", out)
	}
}
