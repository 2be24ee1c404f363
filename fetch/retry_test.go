package fetch

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

// scriptedFetcher replays a fixed sequence of results.
type scriptedFetcher struct {
	results []Result
	calls   int
}

func (s *scriptedFetcher) Fetch(ctx context.Context, url string) Result {
	if s.calls >= len(s.results) {
		return Fatal(url, errors.New("script exhausted"))
	}
	res := s.results[s.calls]
	s.calls++
	return res
}

func (s *scriptedFetcher) Close() error { return nil }

func TestDoRetriesUntilSuccess(t *testing.T) {
	f := &scriptedFetcher{results: []Result{
		RateLimited("u", http.StatusTooManyRequests, 5*time.Millisecond),
		RateLimited("u", http.StatusTooManyRequests, 5*time.Millisecond),
		Success("u", []byte("<html></html>"), http.StatusOK),
	}}
	policy := RetryPolicy{MaxRetries: 3, Backoff: time.Millisecond, BackoffMax: 5 * time.Millisecond}

	res, retries := Do(context.Background(), f, "u", policy)
	if res.Kind != KindSuccess {
		t.Fatalf("kind = %s, want success", res.Kind)
	}
	if retries != 2 {
		t.Fatalf("retries = %d, want 2", retries)
	}
	if f.calls != 3 {
		t.Fatalf("fetch calls = %d, want 3", f.calls)
	}
}

func TestDoStopsAtRetryLimit(t *testing.T) {
	f := &scriptedFetcher{results: []Result{
		Transient("u", errors.New("blip")),
		Transient("u", errors.New("blip")),
		Transient("u", errors.New("blip")),
		Success("u", nil, http.StatusOK),
	}}
	policy := RetryPolicy{MaxRetries: 2, Backoff: time.Millisecond}

	res, retries := Do(context.Background(), f, "u", policy)
	if res.Kind != KindTransient {
		t.Fatalf("kind = %s, want transient after exhausting retries", res.Kind)
	}
	if retries != 2 {
		t.Fatalf("retries = %d, want 2", retries)
	}
	if f.calls != 3 {
		t.Fatalf("fetch calls = %d, want 3 (initial + 2 retries)", f.calls)
	}
}

func TestDoFatalNotRetried(t *testing.T) {
	f := &scriptedFetcher{results: []Result{
		Fatal("u", errors.New("gone")),
		Success("u", nil, http.StatusOK),
	}}
	res, retries := Do(context.Background(), f, "u", RetryPolicy{MaxRetries: 5, Backoff: time.Millisecond})
	if res.Kind != KindFatal {
		t.Fatalf("kind = %s, want fatal", res.Kind)
	}
	if retries != 0 || f.calls != 1 {
		t.Fatalf("fatal result should return immediately, retries=%d calls=%d", retries, f.calls)
	}
}

func TestDoCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := &scriptedFetcher{results: []Result{Success("u", nil, http.StatusOK)}}
	res, _ := Do(ctx, f, "u", RetryPolicy{MaxRetries: 1, Backoff: time.Millisecond})
	if res.Kind != KindTransient {
		t.Fatalf("cancelled context should yield a transient result, got %s", res.Kind)
	}
	if f.calls != 0 {
		t.Fatalf("no fetch should run after cancellation, got %d", f.calls)
	}
}

func TestBackoffDelayDoublesAndCaps(t *testing.T) {
	policy := RetryPolicy{Backoff: 100 * time.Millisecond, BackoffMax: 500 * time.Millisecond}

	if got := backoffDelay(policy, 0, 1); got != 100*time.Millisecond {
		t.Fatalf("attempt 1 = %v, want 100ms", got)
	}
	if got := backoffDelay(policy, 0, 2); got != 200*time.Millisecond {
		t.Fatalf("attempt 2 = %v, want 200ms", got)
	}
	if got := backoffDelay(policy, 0, 4); got != 500*time.Millisecond {
		t.Fatalf("attempt 4 = %v, want capped at 500ms", got)
	}
	if got := backoffDelay(policy, 300*time.Millisecond, 1); got != 300*time.Millisecond {
		t.Fatalf("retry-after seed = %v, want 300ms", got)
	}
}
