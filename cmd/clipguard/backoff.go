// cmd/clipguard/backoff.go
package main

import (
	"context"
	"math/rand"
	"time"
)

// BackoffPolicy is the shared retry policy: exponential delay with
// jitter, bounded attempts, and a pluggable error classifier. Every
// retrying collaborator call goes through the same policy object
// instead of carrying its own sleep loop.
type BackoffPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxJitter   time.Duration

	// Classify decides whether an attempt's error is worth retrying.
	// Nil means ClassifyError.
	Classify func(error) RetryClass
}

// DefaultBackoffPolicy matches the transcript chain contract: up to 5
// attempts, delay = 4s·2^attempt + rand(0,2s).
func DefaultBackoffPolicy() BackoffPolicy {
	return BackoffPolicy{
		MaxAttempts: 5,
		BaseDelay:   4 * time.Second,
		MaxJitter:   2 * time.Second,
	}
}

// Delay returns the wait before the given zero-based retry attempt.
func (p BackoffPolicy) Delay(attempt int) time.Duration {
	d := p.BaseDelay * (1 << attempt)
	if p.MaxJitter > 0 {
		d += time.Duration(rand.Int63n(int64(p.MaxJitter)))
	}
	return d
}

// Do runs fn until it succeeds, exhausts the attempt budget, hits a
// non-retryable error, or the context is cancelled. Cancellation aborts
// a backoff wait immediately rather than letting it complete.
func (p BackoffPolicy) Do(ctx context.Context, fn func() error) error {
	classify := p.Classify
	if classify == nil {
		classify = ClassifyError
	}

	var err error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if err = ctx.Err(); err != nil {
			return err
		}

		if err = fn(); err == nil {
			return nil
		}

		if classify(err) == RetryClassNonRetryable {
			return err
		}

		if attempt == p.MaxAttempts-1 {
			break
		}

		timer := time.NewTimer(p.Delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}
