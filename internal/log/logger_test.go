package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http/httptest"
	"testing"
)

func newJSONLogger(buf *bytes.Buffer, component string) *Logger {
	return New(Config{
		Component: component,
		Handler:   slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	})
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	buf.Reset()
	return rec
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLogger_Component(t *testing.T) {
	var buf bytes.Buffer
	logger := newJSONLogger(&buf, ComponentNotify)

	logger.Info("Connected", FieldUserID, "u1")
	rec := decodeLine(t, &buf)
	if rec[FieldComponent] != ComponentNotify || rec[FieldUserID] != "u1" {
		t.Errorf("unexpected record %v", rec)
	}

	logger.WithComponent(ComponentRelay).With(FieldAttempt, 2).Warn("Retrying")
	rec = decodeLine(t, &buf)
	if rec[FieldComponent] != ComponentRelay || rec[FieldAttempt] != float64(2) {
		t.Errorf("unexpected record %v", rec)
	}
}

func TestFromContext(t *testing.T) {
	if l := FromContext(context.Background()); l.Component() != "unknown" {
		t.Errorf("fallback component = %q", l.Component())
	}

	var buf bytes.Buffer
	ctx := NewContext(context.Background(), newJSONLogger(&buf, ComponentHTTP))
	LogError(ctx, "Export failed", errors.New("quota"), ComponentSheets, OpExport, nil)

	rec := decodeLine(t, &buf)
	if rec[FieldError] != "quota" || rec[FieldOperation] != OpExport || rec["level"] != "ERROR" {
		t.Errorf("unexpected record %v", rec)
	}
}

func TestLogHTTPEnd_Levels(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{200, "INFO"},
		{422, "WARN"},
		{503, "ERROR"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		ctx := NewContext(context.Background(), newJSONLogger(&buf, ComponentHTTP))
		r := httptest.NewRequest("GET", "/api/words?amount=5", nil)

		LogHTTPEnd(ctx, r, tt.status, 12, "10.0.0.1")
		rec := decodeLine(t, &buf)
		if rec["level"] != tt.level {
			t.Errorf("status %d logged at %v, want %s", tt.status, rec["level"], tt.level)
		}
		if rec[FieldPath] != "/api/words" || rec[FieldClientIP] != "10.0.0.1" {
			t.Errorf("unexpected record %v", rec)
		}
	}
}
