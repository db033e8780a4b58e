// Package resilience retries an operation with exponential backoff until a
// deadline:
//
//	records, attempts, err := resilience.Until(ctx, 10*time.Second, cfg,
//	    func(ctx context.Context, attempt int) ([]kafka.Message, error) {
//	        return session.Poll(ctx, time.Second)
//	    })
//
// Until returns the last operation error rather than the deadline error, so
// callers see why the final attempt failed.
package resilience
