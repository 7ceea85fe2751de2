package rewrite

import (
	"context"
	"time"
)

// retry calls fn until it succeeds, retryable reports false, or attempts run
// out. The wait doubles after every failure.
func retry(ctx context.Context, attempts int, wait time.Duration, retryable func(error) bool, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil || !retryable(err) || i == attempts-1 {
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
	return err
}
