package api

import (
	"context"
	"errors"
	"time"
)

// retryWithBackoff calls fn until it succeeds, returns a non-retryable
// error, or maxRetries extra attempts are spent.
func retryWithBackoff(ctx context.Context, maxRetries int, backoff func(int) time.Duration, fn func(attempt int) error) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		lastErr = fn(attempt)
		if lastErr == nil {
			return nil
		}

		var netErr *NetworkError
		if !errors.As(lastErr, &netErr) || !netErr.retryable {
			return lastErr
		}
		if ctx.Err() != nil {
			return lastErr
		}

		if attempt < maxRetries {
			select {
			case <-ctx.Done():
				return lastErr
			case <-time.After(backoff(attempt)):
			}
		}
	}
	return lastErr
}
