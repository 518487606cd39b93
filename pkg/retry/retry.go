// Package retry executes functions under a bounded fixed-delay retry policy.
package retry

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

// Policy bounds the retry behavior for a single call site.
type Policy struct {
	// MaxAttempts counts the first attempt. Values below 1 mean one attempt.
	MaxAttempts int
	// Delay is the fixed wait between attempts.
	Delay time.Duration
	// Retryable decides whether an error is worth another attempt. A nil
	// Retryable retries every error.
	Retryable func(error) bool
}

// Do runs fn until it succeeds, returns a non-retryable error, exhausts the
// policy's attempts, or the context is canceled.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	backoff := retry.WithMaxRetries(uint64(attempts-1), retry.NewConstant(max(p.Delay, time.Nanosecond)))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}
		return retry.RetryableError(err)
	})
}
