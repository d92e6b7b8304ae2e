package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNetwork is wrapped by failures to reach a remote cache backend.
var ErrNetwork = errors.New("network error")

// RetryableError tags a transient backend failure. RetryWithBackoff only
// repeats calls whose error carries this tag.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable tags err as transient. A nil err stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// IsRetryable reports whether any error in err's chain is tagged transient.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// retryDelay is the wait before the second attempt; tests shorten it.
var retryDelay = 100 * time.Millisecond

const maxAttempts = 3

// RetryWithBackoff calls fn until it succeeds, fails permanently, or has
// run maxAttempts times. The wait doubles after each transient failure and
// is cut short when ctx ends.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	wait := retryDelay
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil || !IsRetryable(err) || attempt == maxAttempts {
			return err
		}

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		wait *= 2
	}
}
