package store

import (
	"context"
	"errors"
	"time"
)

const (
	pingAttempts = 3
	pingDelay    = 250 * time.Millisecond
)

// retryableError marks a failure worth another attempt.
type retryableError struct{ err error }

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// retry executes fn up to attempts times, doubling delay after each failure.
// Only errors wrapped in retryableError are retried. It returns the last
// error if all attempts fail, or ctx.Err() if ctx is cancelled while waiting.
func retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)
	var lastErr error

	for i := range attempts {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !errors.As(err, new(*retryableError)) {
			return err
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return lastErr
}

// ping checks a backend connection, retrying failures other than the
// caller's own cancellation.
func ping(ctx context.Context, fn func(context.Context) error) error {
	err := retry(ctx, pingAttempts, pingDelay, func() error {
		err := fn(ctx)
		if err == nil || ctx.Err() != nil {
			return err
		}
		return &retryableError{err: err}
	})
	var re *retryableError
	if errors.As(err, &re) {
		return re.err
	}
	return err
}
