package resilience

import (
	"context"
	"time"
)

// Until calls fn until it succeeds, RetryIf rejects its error, MaxAttempts
// is reached or timeout elapses. It returns the number of attempts made.
//
// When time runs out the error of the last attempt is returned rather than
// the deadline error; a canceled ctx before the first attempt returns
// ctx.Err().
func Until[T any](ctx context.Context, timeout time.Duration, cfg RetryConfig, fn func(ctx context.Context, attempt int) (T, error)) (T, int, error) {
	var zero T
	cfg.fill()
	deadline := time.Now().Add(timeout)

	var lastErr error
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return zero, attempt - 1, lastErr
			}
			return zero, attempt - 1, err
		}

		result, err := fn(ctx, attempt)
		if err == nil {
			return result, attempt, nil
		}
		lastErr = err

		if !cfg.RetryIf(err) || (cfg.MaxAttempts > 0 && attempt >= cfg.MaxAttempts) {
			return zero, attempt, err
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return zero, attempt, err
		}
		wait := min(cfg.Delay(attempt), remaining)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, wait)
		}

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return zero, attempt, err
		case <-t.C:
		}
	}
}
