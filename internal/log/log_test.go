package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"smartspend/internal/core"
)

func newBufferLogger(buf *bytes.Buffer) *Logger {
	return New(Config{Level: slog.LevelDebug, Component: ComponentExpense, JSON: true, Output: buf})
}

func TestLogger_AddsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf)

	logger.Info("hello", FieldUserID, "alice")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid JSON log line %q: %v", buf.String(), err)
	}
	if entry[FieldComponent] != ComponentExpense {
		t.Errorf("component = %v, want %s", entry[FieldComponent], ComponentExpense)
	}
	if entry[FieldUserID] != "alice" {
		t.Errorf("user_id = %v, want alice", entry[FieldUserID])
	}
}

func TestLogger_WithComponentDoesNotDuplicate(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf).WithComponent(ComponentBudget)
	logger.Warn("over budget")

	if got := strings.Count(buf.String(), `"component"`); got != 1 {
		t.Errorf("component attribute appears %d times in %s", got, buf.String())
	}
	if !strings.Contains(buf.String(), ComponentBudget) {
		t.Errorf("log line %s missing component %s", buf.String(), ComponentBudget)
	}
}

func TestFromContext(t *testing.T) {
	if got := FromContext(context.Background()); got.Component() != "unknown" {
		t.Errorf("FromContext() component = %s, want unknown", got.Component())
	}

	var buf bytes.Buffer
	logger := newBufferLogger(&buf)
	handler := Middleware(logger)(RequestIDMiddleware(func(*http.Request) string { return "req-1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).Info("inside")
		})))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/expenses", nil))

	if !strings.Contains(buf.String(), `"request_id":"req-1"`) {
		t.Errorf("log line %s missing request id", buf.String())
	}
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(newBufferLogger(&buf))
	ctx := context.Background()

	sl.LogRecordChanged(ctx, ComponentExpense, OpCreate, "alice", "e1", string(core.Food), "-120.50")
	sl.LogError(ctx, "save failed", errors.New("boom"), ComponentStorage, OpCreate, nil)

	r := httptest.NewRequest(http.MethodDelete, "/api/expenses?id=x", nil)
	sl.LogHTTPEnd(ctx, r, http.StatusNotFound, 3, "127.0.0.1")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d log lines, want 3:\n%s", len(lines), buf.String())
	}
	for _, want := range []string{`"record_id":"e1"`, `"error":"boom"`, `"level":"WARN"`} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("logs missing %s:\n%s", want, buf.String())
		}
	}
}
