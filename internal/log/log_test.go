package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"seta/internal/core"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestLoggerJSONCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentLedger, Output: &buf})
	l.With(FieldOwnerID, "u1").Info("summary computed", FieldWindow, "last7")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("not JSON: %v (%s)", err, buf.String())
	}
	if rec[FieldComponent] != ComponentLedger || rec[FieldOwnerID] != "u1" || rec[FieldWindow] != "last7" {
		t.Errorf("record = %v", rec)
	}
}

func TestIssueLoggerCountsAndWarns(t *testing.T) {
	var buf bytes.Buffer
	l := NewIssueLogger(New(Config{Level: slog.LevelInfo, Output: &buf}))

	var obs core.Observer = l
	obs.Malformed(core.IssueAmount|core.IssueCategory, "r1", "bad")
	obs.Malformed(core.IssueTimestamp, "r2", "bad")

	ts, amt, cat := l.Counts()
	if ts != 1 || amt != 1 || cat != 1 {
		t.Errorf("Counts() = %d %d %d", ts, amt, cat)
	}
	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "record_id=r1") || !strings.Contains(out, "component=core") {
		t.Errorf("unexpected log output:\n%s", out)
	}
}

func TestMiddlewareInjectsLogger(t *testing.T) {
	l := New(DefaultConfig()).WithComponent(ComponentHTTP)
	var got *Logger
	h := Middleware(l)(RequestIDMiddleware(func(*http.Request) string { return "req_1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = FromContext(r.Context())
		})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got == nil || got.Component() != ComponentHTTP {
		t.Fatalf("logger not injected: %+v", got)
	}
	if FromContext(context.Background()).Component() != "unknown" {
		t.Error("missing logger should fall back to default")
	}
}
