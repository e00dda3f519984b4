package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},  // capped at 30s
		{10, 30 * time.Second}, // capped at 30s
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			result := exponentialBackoff(tt.attempt)
			if result != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, result, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("connection refused"), true},
		{"EOF error", errors.New("unexpected EOF"), true},
		{"broken pipe error", errors.New("broken pipe"), true},
		{"closed network connection", errors.New("use of closed network connection"), true},
		{"other error", errors.New("some other error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestClient_CircuitBreaker(t *testing.T) {
	client := &Client{exchangeName: "test_exchange"}

	if client.isCircuitOpen() {
		t.Fatal("Circuit breaker should be closed initially")
	}

	for i := 0; i < maxFailures; i++ {
		client.recordFailure()
	}
	if !client.isCircuitOpen() {
		t.Fatal("Circuit breaker should be open after max failures")
	}

	client.lastFailure = time.Now().Add(-openTimeout - time.Second)
	if client.isCircuitOpen() {
		t.Fatal("Circuit should transition to half-open after timeout")
	}
	if atomic.LoadInt32(&client.state) != StateHalfOpen {
		t.Fatal("State should be StateHalfOpen after timeout")
	}

	client.recordSuccess()
	if atomic.LoadInt64(&client.failureCount) != 0 || atomic.LoadInt32(&client.state) != StateClosed {
		t.Fatal("success should reset the breaker")
	}
}

func TestClient_PublishGuards(t *testing.T) {
	client := &Client{exchangeName: "test_exchange"}
	msg := NewRecordsChanged("u1", "r1", OpCreated)

	t.Run("publish fails when circuit is open", func(t *testing.T) {
		atomic.StoreInt32(&client.state, StateOpen)
		client.lastFailure = time.Now()

		err := client.PublishRecordsChanged(context.Background(), msg)
		if !errors.Is(err, ErrCircuitOpen) {
			t.Errorf("expected circuit open error, got: %v", err)
		}
	})

	t.Run("publish respects context cancellation", func(t *testing.T) {
		client.recordSuccess()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if err := client.PublishRecordsChanged(ctx, msg); err != context.Canceled {
			t.Errorf("expected context.Canceled, got: %v", err)
		}
	})

	t.Run("publish without channel counts as failure", func(t *testing.T) {
		client.recordSuccess()
		err := client.PublishRecordsChanged(context.Background(), msg)
		if err == nil || !strings.Contains(err.Error(), "not open") {
			t.Errorf("expected channel error, got: %v", err)
		}
		if atomic.LoadInt64(&client.failureCount) != 1 {
			t.Errorf("failure count = %d, want 1", client.failureCount)
		}
	})
}

func TestRecordsChanged_JSON(t *testing.T) {
	msg := &RecordsChanged{
		OwnerID:   "u1",
		RecordID:  "r1",
		Op:        OpDeleted,
		Timestamp: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	b, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}
	if !strings.Contains(string(b), `"owner_id":"u1"`) {
		t.Errorf("unexpected wire form %s", b)
	}

	parsed, err := RecordsChangedFromJSON(b)
	if err != nil {
		t.Fatalf("RecordsChangedFromJSON() error = %v", err)
	}
	if parsed.OwnerID != msg.OwnerID || parsed.RecordID != msg.RecordID || parsed.Op != msg.Op || !parsed.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("parsed = %+v, want %+v", parsed, msg)
	}
}

func TestRecordsChanged_Invalid(t *testing.T) {
	for _, body := range []string{
		`{"owner_id": 5}`,
		`{"owner_id": "", "op": "created"}`,
		`{"owner_id": "u1", "op": "renamed"}`,
	} {
		if _, err := RecordsChangedFromJSON([]byte(body)); err == nil {
			t.Errorf("expected error for %s", body)
		}
	}
}
