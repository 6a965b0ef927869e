package jigsaw

import (
	"context"
	"errors"
	"log"
	"time"
)

// RetryPolicy retries a failing remote call a fixed number of times with a fixed delay
type RetryPolicy struct {
	MaxRetries int
	Delay      time.Duration
}

// DefaultRetryPolicy retries three times, one second apart
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, Delay: time.Second}
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying. Do returns the wrapped error at once.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Do runs fn until it succeeds, the retries are used up, or ctx is done.
// The last error is returned.
func (p RetryPolicy) Do(ctx context.Context, op string, fn func(context.Context) error) error {
	err := fn(ctx)
	for left := p.MaxRetries; err != nil && left > 0; left-- {
		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if p.Delay > 0 {
			t := time.NewTimer(p.Delay)
			select {
			case <-ctx.Done():
				t.Stop()
				return err
			case <-t.C:
			}
		} else if ctx.Err() != nil {
			return err
		}
		log.Printf("Retrying %s, %d attempts left...", op, left)
		err = fn(ctx)
	}
	var perm *permanentError
	if errors.As(err, &perm) {
		return perm.err
	}
	return err
}
