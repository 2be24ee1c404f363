// Package fetch issues rate-limited HTTP and browser requests and classifies
// their outcomes into a small set of typed results.
package fetch

import (
	"context"
	"time"
)

// Kind tags a fetch outcome.
type Kind int

const (
	// KindSuccess carries the raw page body.
	KindSuccess Kind = iota
	// KindRateLimited means the target asked us to slow down; retry with backoff.
	KindRateLimited
	// KindTransient covers network blips and 5xx responses; retryable.
	KindTransient
	// KindFatal covers permanent 4xx and malformed requests; never retried.
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindRateLimited:
		return "rate_limited"
	case KindTransient:
		return "transient"
	case KindFatal:
		return "fatal"
	}
	return "unknown"
}

// Result is the outcome of a single fetch attempt.
type Result struct {
	Kind       Kind
	URL        string
	StatusCode int
	Body       []byte
	RetryAfter time.Duration
	Err        error
}

// Retryable reports whether the caller may try the URL again.
func (r Result) Retryable() bool {
	return r.Kind == KindRateLimited || r.Kind == KindTransient
}

// Success builds a successful result.
func Success(url string, body []byte, status int) Result {
	return Result{Kind: KindSuccess, URL: url, Body: body, StatusCode: status}
}

// RateLimited builds a rate-limited result with the server-suggested wait.
func RateLimited(url string, status int, retryAfter time.Duration) Result {
	return Result{Kind: KindRateLimited, URL: url, StatusCode: status, RetryAfter: retryAfter}
}

// Transient builds a retryable failure.
func Transient(url string, err error) Result {
	return Result{Kind: KindTransient, URL: url, Err: err}
}

// Fatal builds a non-retryable failure.
func Fatal(url string, err error) Result {
	return Result{Kind: KindFatal, URL: url, Err: err}
}

// Fetcher abstracts page retrieval so the crawl engine does not care whether
// pages come from a plain HTTP client or an automated browser.
type Fetcher interface {
	Fetch(ctx context.Context, url string) Result
	Close() error
}
