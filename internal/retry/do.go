package retry

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/beetmover/internal/errors"
	"git.home.luguber.info/inful/beetmover/internal/logfields"
)

// Do runs op under the policy. A failure marked retryable (errors.IsRetryable)
// schedules another attempt after the backoff delay; a permanent failure or an
// exhausted budget returns the last error as-is. Cancellation is observed
// between attempts and wins over remaining retry budget.
func Do(ctx context.Context, p Policy, stage string, op func(ctx context.Context) error) error {
	start := time.Now()
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, errors.CategoryInternal, errors.SeverityError, "canceled")
		}
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if !errors.IsRetryable(lastErr) {
			return lastErr
		}
		if attempt == p.MaxAttempts {
			break
		}
		if p.MaxElapsed > 0 && time.Since(start) >= p.MaxElapsed {
			slog.Warn("Retry budget elapsed", logfields.Stage(stage), logfields.Attempt(attempt), logfields.Error(lastErr))
			break
		}
		delay := p.Delay(attempt)
		slog.Info("Retrying after transient failure",
			logfields.Stage(stage), logfields.Attempt(attempt),
			slog.Duration("backoff", delay), logfields.Error(lastErr))
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), errors.CategoryInternal, errors.SeverityError, "canceled during backoff")
		case <-time.After(delay):
		}
	}
	return lastErr
}
