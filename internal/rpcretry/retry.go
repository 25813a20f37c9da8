// Package rpcretry implements the reusable retry combinator spec.md
// section 9 calls for: exponential backoff bounded either by an attempt
// budget or, without one, by the backoff reaching its cap.
package rpcretry

import (
	"context"
	"time"
)

// Do invokes fn until it succeeds, the context is done, or the retry
// policy is exhausted.
//
// budget <= 0 means "no attempt-count limit": retry until ctx.Done() or
// until the backoff itself has grown past maxBackoff and one further
// attempt still fails, matching cancelCompaction's "short retries... no
// retry budget limit beyond the max backoff" policy.
//
// budget > 0 caps the number of attempts (used by CompactionCompleted's
// N_complete_retries).
func Do(ctx context.Context, initialBackoff, maxBackoff time.Duration, budget int, fn func(ctx context.Context) error) error {
	backoff := initialBackoff
	attempt := 0
	capped := false

	for {
		attempt++
		err := fn(ctx)
		if err == nil {
			return nil
		}

		if budget > 0 && attempt >= budget {
			return err
		}
		if budget <= 0 && capped {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
			capped = true
		}
	}
}
