package app

import (
	"context"
	"log/slog"
	"time"
)

const (
	defaultPollInterval = 10 * time.Second
	maxBackoff          = 30 * time.Second
)

// StatsRefresher updates the aggregate counts in the store.
type StatsRefresher interface {
	RefreshStats(ctx context.Context) error
}

// StartPoller refreshes stats until ctx is cancelled. Failures back off
// exponentially and are only logged; the list itself keeps working.
func StartPoller(ctx context.Context, r StatsRefresher, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	go func() {
		failures := 0
		timer := time.NewTimer(interval)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}

			if err := r.RefreshStats(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				failures++
				next := calculateBackoff(failures, interval)
				logger.Debug("stats refresh failed", "error", err, "failures", failures, "retry_in", next)
				timer.Reset(next)
				continue
			}
			if failures > 0 {
				logger.Info("stats refresh recovered", "after_failures", failures)
			}
			failures = 0
			timer.Reset(interval)
		}
	}()
}

// calculateBackoff returns base * 2^failures capped at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	backoff := base
	for range failures {
		backoff *= 2
		if backoff >= maxBackoff {
			return maxBackoff
		}
	}
	return backoff
}
