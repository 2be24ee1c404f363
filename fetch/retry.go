package fetch

import (
	"context"
	"time"
)

// RetryPolicy bounds how often and how long a retryable fetch is reattempted.
type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
	BackoffMax time.Duration
}

// Do fetches url, retrying transient and rate-limited outcomes with
// exponential backoff. A rate-limited response seeds the backoff with the
// server's Retry-After hint. Fatal results and successes return immediately.
// The second return value is the number of backoff delays taken.
func Do(ctx context.Context, f Fetcher, url string, policy RetryPolicy) (Result, int) {
	retries := 0
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return Transient(url, err), retries
		}

		res := f.Fetch(ctx, url)
		if !res.Retryable() || attempt >= policy.MaxRetries {
			return res, retries
		}

		delay := backoffDelay(policy, res.RetryAfter, attempt+1)
		retries++

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return Transient(url, ctx.Err()), retries
		}
	}
}

// backoffDelay doubles the seed per attempt, capped by the policy maximum.
func backoffDelay(policy RetryPolicy, seed time.Duration, attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}
	base := seed
	if base <= 0 {
		base = policy.Backoff
	}
	if base <= 0 {
		base = 100 * time.Millisecond
	}

	delay := base * time.Duration(1<<(attempt-1))
	if max := policy.BackoffMax; max > 0 && delay > max {
		delay = max
	}
	return delay
}
