package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	DefaultAttempts = 3
	DefaultDelay    = 2 * time.Second
)

// Do runs op up to attempts times with a fixed delay between attempts.
// The wait is cancellable through ctx. The last error is returned wrapped
// once all attempts are exhausted.
func Do(ctx context.Context, attempts int, delay time.Duration, op func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}

		if attempt == attempts {
			break
		}

		slog.Debug("Operation failed, retrying", "attempt", attempt, "max_attempts", attempts, "delay", delay.String(), "error", lastErr)

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("operation failed after %d attempts: %w", attempts, lastErr)
}
