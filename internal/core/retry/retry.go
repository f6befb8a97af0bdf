// Package retry wraps external calls in a bounded exponential-backoff policy.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Policy describes how many times a call is attempted and how long to wait
// between attempts. The wait before attempt n (n >= 1) is Base * 2^(n-1).
type Policy struct {
	Attempts int
	Base     time.Duration
	MaxDelay time.Duration

	// OnRetry, when set, is called after every failed attempt that will be retried.
	OnRetry func(attempt int, err error)
}

const (
	DefaultAttempts = 3
	// QueryAttempts is used for the validator and query-generation paths.
	QueryAttempts = 2
	DefaultBase   = 500 * time.Millisecond
)

// Default returns the shared policy for language-model calls.
func Default(base time.Duration) Policy {
	return Policy{Attempts: DefaultAttempts, Base: base, MaxDelay: 10 * time.Second}
}

// Query returns the tighter policy used by the validator and query paths.
func Query(base time.Duration) Policy {
	return Policy{Attempts: QueryAttempts, Base: base, MaxDelay: 10 * time.Second}
}

// ExhaustedError is returned when every attempt failed. It wraps the last error.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("giving up after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// Permanent marks an error that must not be retried.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Delay returns the backoff before the given retry (1-based).
func (p Policy) Delay(retry int) time.Duration {
	if retry <= 0 || p.Base <= 0 {
		return 0
	}
	d := p.Base << (retry - 1)
	if d <= 0 || (p.MaxDelay > 0 && d > p.MaxDelay) {
		return p.MaxDelay
	}
	return d
}

// Do runs fn until it succeeds, returns a permanent error, the context ends or
// the attempts are exhausted.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return zero, fmt.Errorf("retry cancelled: %w", ctx.Err())
			case <-time.After(p.Delay(attempt)):
			}
		}

		out, err := fn(ctx)
		if err == nil {
			return out, nil
		}
		lastErr = err

		var perm *permanentError
		if errors.As(err, &perm) {
			return zero, perm.err
		}
		if ctx.Err() != nil {
			return zero, err
		}
		if attempt+1 < attempts && p.OnRetry != nil {
			p.OnRetry(attempt+1, err)
		}
	}
	return zero, &ExhaustedError{Attempts: attempts, Last: lastErr}
}
