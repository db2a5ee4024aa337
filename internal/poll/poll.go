// Package poll retries a check until it passes, the timeout elapses or the
// context is cancelled. DOM assertions go through Until instead of relying
// on hidden framework retries.
package poll

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Options bounds a poll loop.
type Options struct {
	Interval time.Duration
	Timeout  time.Duration
}

// DefaultOptions matches the usual assertion budget of a browser suite.
func DefaultOptions() Options {
	return Options{Interval: 100 * time.Millisecond, Timeout: 4 * time.Second}
}

// Check is one attempt. A nil error ends the loop.
type Check func(ctx context.Context) error

// TimeoutError is returned when the check never passed. Last is the error
// of the final attempt.
type TimeoutError struct {
	Timeout  time.Duration
	Attempts int
	Last     error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("condition not met within %s after %d attempts: %v", e.Timeout, e.Attempts, e.Last)
}

func (e *TimeoutError) Unwrap() error {
	return e.Last
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying; Until returns it at once.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Until runs check immediately and then every Interval until it returns
// nil. The loop always makes at least one attempt.
func Until(ctx context.Context, opts Options, check Check) error {
	if opts.Interval <= 0 {
		opts.Interval = DefaultOptions().Interval
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultOptions().Timeout
	}

	deadline := time.Now().Add(opts.Timeout)
	attempts := 0
	for {
		attempts++
		err := check(ctx)
		if err == nil {
			return nil
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return &TimeoutError{Timeout: opts.Timeout, Attempts: attempts, Last: err}
		}
		wait := opts.Interval
		if wait > remaining {
			wait = remaining
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("poll cancelled after %d attempts (last: %v): %w", attempts, err, ctx.Err())
		case <-timer.C:
		}
	}
}
