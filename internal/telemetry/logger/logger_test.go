package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func newBufferLogger(t *testing.T, level, format string) (Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l, err := New(Config{Level: level, Format: format, Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return l, &buf
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse JSON log %q: %v", buf.String(), err)
	}
	return entry
}

func TestLogger_Levels(t *testing.T) {
	l, buf := newBufferLogger(t, "debug", "json")

	tests := []struct {
		level   string
		logFunc func(string, ...any)
	}{
		{"DEBUG", l.Debug},
		{"INFO", l.Info},
		{"WARN", l.Warn},
		{"ERROR", l.Error},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf.Reset()
			tt.logFunc("test message", "component", "auth")

			entry := decode(t, buf)
			if entry["level"] != tt.level {
				t.Errorf("level = %v, want %s", entry["level"], tt.level)
			}
			if entry["component"] != "auth" {
				t.Errorf("component = %v, want auth", entry["component"])
			}
		})
	}
}

func TestLogger_With(t *testing.T) {
	l, buf := newBufferLogger(t, "info", "json")
	l.With("service", "fp4").Info("started")

	if entry := decode(t, buf); entry["service"] != "fp4" {
		t.Errorf("service = %v, want fp4", entry["service"])
	}
}

func TestSetLevel(t *testing.T) {
	l, buf := newBufferLogger(t, "warn", "json")
	defer SetLevel("info")

	l.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level, got %q", buf.String())
	}

	SetLevel("debug")
	if GetLevel() != "debug" {
		t.Errorf("GetLevel() = %q, want debug", GetLevel())
	}
	l.Debug("visible")
	if buf.Len() == 0 {
		t.Error("debug should be logged after SetLevel(debug)")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]string{
		"debug":   "debug",
		"WARNING": "warn",
		"error":   "error",
		"bogus":   "info",
		"":        "info",
	}
	defer SetLevel("info")
	for in, want := range tests {
		SetLevel(in)
		if got := GetLevel(); got != want {
			t.Errorf("SetLevel(%q) -> GetLevel() = %q, want %q", in, got, want)
		}
	}
}

func TestLogger_TextFormat(t *testing.T) {
	l, buf := newBufferLogger(t, "info", "text")
	l.Info("hello", "k", "v")
	if !strings.Contains(buf.String(), "msg=hello") {
		t.Errorf("text output = %q", buf.String())
	}
}

func TestSlog_SharesRedaction(t *testing.T) {
	l, buf := newBufferLogger(t, "info", "json")
	Slog(l).Info("login", "email", "jane@rcmp.ca", "session_secret", "abc")

	entry := decode(t, buf)
	if entry["email"] != "j***@rcmp.ca" {
		t.Errorf("email = %v", entry["email"])
	}
	if entry["session_secret"] != redactedValue {
		t.Errorf("session_secret = %v", entry["session_secret"])
	}
}

func TestLogger_WithContext(t *testing.T) {
	l, buf := newBufferLogger(t, "info", "json")
	l.WithContext(context.Background()).Info("ctx")
	if buf.Len() == 0 {
		t.Error("WithContext logger produced no output")
	}
}
