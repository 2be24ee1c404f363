package fetch

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/AsmaZgo/fashionWebScrapping/config"
	"github.com/jarcoal/httpmock"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.CategoryURL = "http://example.test/dresses"
	cfg.Timeout = 2 * time.Second
	return NewClient(cfg, NewPacer(0))
}

func TestClientFetchSuccess(t *testing.T) {
	client := newTestClient(t)
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "http://example.test/dresses",
		httpmock.NewStringResponder(http.StatusOK, "<html><body>ok</body></html>"))
	client.WithTransport(transport)

	res := client.Fetch(context.Background(), "http://example.test/dresses")
	if res.Kind != KindSuccess {
		t.Fatalf("kind = %s, want success (err=%v)", res.Kind, res.Err)
	}
	if !strings.Contains(string(res.Body), "ok") {
		t.Fatalf("body not captured: %q", res.Body)
	}
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", res.StatusCode)
	}
}

func TestClientFetchStatusClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   Kind
	}{
		{name: "too many requests", status: http.StatusTooManyRequests, want: KindRateLimited},
		{name: "service unavailable", status: http.StatusServiceUnavailable, want: KindRateLimited},
		{name: "internal error", status: http.StatusInternalServerError, want: KindTransient},
		{name: "bad gateway", status: http.StatusBadGateway, want: KindTransient},
		{name: "not found", status: http.StatusNotFound, want: KindFatal},
		{name: "forbidden", status: http.StatusForbidden, want: KindFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t)
			transport := httpmock.NewMockTransport()
			transport.RegisterResponder("GET", "http://example.test/dresses",
				httpmock.NewStringResponder(tt.status, ""))
			client.WithTransport(transport)

			res := client.Fetch(context.Background(), "http://example.test/dresses")
			if res.Kind != tt.want {
				t.Fatalf("status %d classified as %s, want %s", tt.status, res.Kind, tt.want)
			}
			if res.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", res.StatusCode, tt.status)
			}
		})
	}
}

func TestClientFetchRetryAfterHint(t *testing.T) {
	client := newTestClient(t)
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "http://example.test/dresses",
		func(req *http.Request) (*http.Response, error) {
			resp := httpmock.NewStringResponse(http.StatusTooManyRequests, "")
			resp.Header.Set("Retry-After", "7")
			return resp, nil
		})
	client.WithTransport(transport)

	before := client.rotator.Current()
	res := client.Fetch(context.Background(), "http://example.test/dresses")
	if res.Kind != KindRateLimited {
		t.Fatalf("kind = %s, want rate_limited", res.Kind)
	}
	if res.RetryAfter != 7*time.Second {
		t.Fatalf("retry after = %v, want 7s", res.RetryAfter)
	}
	if after := client.rotator.Current(); after.SessionID == before.SessionID {
		t.Fatalf("identity should rotate after a rate-limited response")
	}
}

func TestClientFetchBotDetection(t *testing.T) {
	client := newTestClient(t)
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "http://example.test/dresses",
		httpmock.NewStringResponder(http.StatusOK,
			"<html><body>Our systems have detected unusual traffic from your network.</body></html>"))
	client.WithTransport(transport)

	res := client.Fetch(context.Background(), "http://example.test/dresses")
	if res.Kind != KindFatal {
		t.Fatalf("interstitial page classified as %s, want fatal", res.Kind)
	}
}

func TestClientFetchSendsIdentityHeaders(t *testing.T) {
	client := newTestClient(t)
	transport := httpmock.NewMockTransport()
	var gotUA string
	var gotCookie *http.Cookie
	transport.RegisterResponder("GET", "http://example.test/dresses",
		func(req *http.Request) (*http.Response, error) {
			gotUA = req.Header.Get("User-Agent")
			gotCookie, _ = req.Cookie("session-id")
			return httpmock.NewStringResponse(http.StatusOK, "<html></html>"), nil
		})
	client.WithTransport(transport)

	if res := client.Fetch(context.Background(), "http://example.test/dresses"); res.Kind != KindSuccess {
		t.Fatalf("fetch failed: %v", res.Err)
	}
	if gotUA == "" {
		t.Fatalf("request carried no user agent")
	}
	if gotCookie == nil || gotCookie.Value == "" {
		t.Fatalf("request carried no session cookie")
	}
}

func TestClientFetchMalformedURL(t *testing.T) {
	client := newTestClient(t)
	tests := []string{"", "not a url", "ftp://example.test/file"}
	for _, raw := range tests {
		if res := client.Fetch(context.Background(), raw); res.Kind != KindFatal {
			t.Fatalf("Fetch(%q) = %s, want fatal", raw, res.Kind)
		}
	}
}

func TestParseRetryAfter(t *testing.T) {
	if got := parseRetryAfter("30"); got != 30*time.Second {
		t.Fatalf("delta-seconds = %v, want 30s", got)
	}
	future := time.Now().Add(90 * time.Second).UTC().Format(http.TimeFormat)
	if got := parseRetryAfter(future); got <= 0 || got > 90*time.Second {
		t.Fatalf("http-date = %v, want (0, 90s]", got)
	}
	if got := parseRetryAfter("garbage"); got != 0 {
		t.Fatalf("garbage = %v, want 0", got)
	}
	if got := parseRetryAfter(""); got != 0 {
		t.Fatalf("empty = %v, want 0", got)
	}
}

func TestResultRetryable(t *testing.T) {
	if !RateLimited("u", http.StatusTooManyRequests, 0).Retryable() {
		t.Fatalf("rate-limited should be retryable")
	}
	if !Transient("u", context.DeadlineExceeded).Retryable() {
		t.Fatalf("transient should be retryable")
	}
	if Fatal("u", nil).Retryable() {
		t.Fatalf("fatal should not be retryable")
	}
	if Success("u", nil, http.StatusOK).Retryable() {
		t.Fatalf("success should not be retryable")
	}
}
