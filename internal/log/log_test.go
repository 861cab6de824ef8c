package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Component: ComponentWorker, Output: &buf})
	l.Info("sync done", FieldSection, "payroll")
	l.WithComponent(ComponentAMQP).Warn("retry")

	out := buf.String()
	assert.Contains(t, out, "component=worker")
	assert.Contains(t, out, "section=payroll")
	assert.Contains(t, out, "component=amqp")

	buf.Reset()
	l.WithComponent(ComponentCache).Slog().Debug("cleanup")
	assert.Contains(t, buf.String(), "component=cache")
}

func TestFieldsToSliceSorted(t *testing.T) {
	f := NewFields().WithOperation(OpSync).WithError(errors.New("boom")).WithRequestID("")
	got := f.ToSlice()
	require.Len(t, got, 4)
	assert.Equal(t, []any{FieldError, "boom", FieldOperation, OpSync}, got)
}

func TestMiddlewareStoresLogger(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Component: ComponentHTTP, Output: &buf})

	var seen *Logger
	h := Middleware(base)(RequestIDMiddleware(func(*http.Request) string { return "req_1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = FromContext(r.Context())
			seen.InfoContext(r.Context(), "inside")
		})))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotNil(t, seen)
	assert.True(t, strings.Contains(buf.String(), "request_id=req_1"))

	assert.Equal(t, "unknown", FromContext(context.Background()).Component())
}

func TestStructuredLoggerHTTPEndLevels(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Output: &buf}))
	r := httptest.NewRequest(http.MethodGet, "/payroll?x=1", nil)

	sl.LogHTTPEnd(context.Background(), r, "req_2", http.StatusNotFound, 3, "10.0.0.1")
	sl.LogHTTPEnd(context.Background(), r, "req_3", http.StatusInternalServerError, 3, "10.0.0.1")

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, "status_code=404")
	assert.Contains(t, out, "component=http")
}
