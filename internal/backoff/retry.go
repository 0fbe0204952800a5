package backoff

import "context"

// Retry executes fn up to maxAttempts times, sleeping per the policy between
// failures. retryable decides whether an error is worth another attempt; a
// nil predicate retries every error. The last error is returned when
// attempts are exhausted or the error is not retryable.
//
// Context cancellation during a sleep aborts with ctx.Err().
func Retry[T any](
	ctx context.Context,
	policy Policy,
	maxAttempts int,
	retryable func(error) bool,
	fn func(attempt int) (T, error),
) (T, error) {
	var zero T
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		value, err := fn(attempt)
		if err == nil {
			return value, nil
		}
		lastErr = err

		if retryable != nil && !retryable(err) {
			break
		}
		if attempt < maxAttempts {
			if err := policy.Sleep(ctx, attempt); err != nil {
				return zero, err
			}
		}
	}
	return zero, lastErr
}
