package log

import (
	"bytes"
	"context"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"chatty", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Component: ComponentAuth, Output: &buf})

	logger.Info("user logged in", FieldUserID, 7)

	out := buf.String()
	if !strings.Contains(out, "component=auth") {
		t.Errorf("log line %q missing component", out)
	}
	if !strings.Contains(out, "user_id=7") {
		t.Errorf("log line %q missing user_id", out)
	}
}

func TestLogHTTPEndLevelByStatus(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{200, "level=INFO"},
		{404, "level=WARN"},
		{500, "level=ERROR"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		sl := NewStructuredLogger(New(Config{Level: slog.LevelDebug, Output: &buf}))
		r := httptest.NewRequest("GET", "/api/expenses", nil)

		sl.LogHTTPEnd(context.Background(), r, "req-1", tt.status, 3, "127.0.0.1")

		out := buf.String()
		if !strings.Contains(out, tt.level) {
			t.Errorf("status %d: log line %q, want %s", tt.status, out, tt.level)
		}
		if !strings.Contains(out, "request_id=req-1") {
			t.Errorf("status %d: log line %q missing request id", tt.status, out)
		}
	}
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("FromContext() returned nil")
	}

	logger := New(DefaultConfig())
	ctx := WithLogger(context.Background(), logger)
	if FromContext(ctx) != logger {
		t.Error("FromContext() did not return the stored logger")
	}
}
