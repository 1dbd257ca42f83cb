package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 2 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 2 * time.Second},
		{"negative failures", -1, 2 * time.Second},
		{"one failure", 1, 4 * time.Second},
		{"two failures", 2, 8 * time.Second},
		{"three failures", 3, 16 * time.Second},
		{"four failures capped", 4, 30 * time.Second}, // Would be 32s, capped to 30s
		{"many failures capped", 10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_MaxCap(t *testing.T) {
	// Verify that backoff never exceeds maxBackoff regardless of input
	baseInterval := 2 * time.Second
	for failures := 0; failures <= 20; failures++ {
		got := calculateBackoff(failures, baseInterval)
		if got > maxBackoff {
			t.Errorf("calculateBackoff(%d, %v) = %v, exceeds maxBackoff %v", failures, baseInterval, got, maxBackoff)
		}
	}
}

type countingRefresher struct {
	calls atomic.Int32
	fail  atomic.Bool
}

func (r *countingRefresher) RefreshStats(context.Context) error {
	r.calls.Add(1)
	if r.fail.Load() {
		return errors.New("server down")
	}
	return nil
}

func TestStartPoller_RefreshesUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := &countingRefresher{}
	StartPoller(ctx, r, 10*time.Millisecond, nil)

	deadline := time.Now().Add(2 * time.Second)
	for r.calls.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("poller made %d calls, want at least 3", r.calls.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	time.Sleep(30 * time.Millisecond)
	after := r.calls.Load()
	time.Sleep(50 * time.Millisecond)
	if got := r.calls.Load(); got != after {
		t.Fatalf("poller kept running after cancel: %d -> %d calls", after, got)
	}
}

func TestStartPoller_BacksOffOnFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := &countingRefresher{}
	r.fail.Store(true)
	StartPoller(ctx, r, 20*time.Millisecond, nil)

	// Backoff doubles: 20ms, 40ms, 80ms, 160ms. Within 200ms at most a
	// handful of attempts fit where a fixed ticker would make ten.
	time.Sleep(200 * time.Millisecond)
	if got := r.calls.Load(); got < 1 || got > 5 {
		t.Fatalf("calls during backoff = %d, want between 1 and 5", got)
	}
}
