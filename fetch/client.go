package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/AsmaZgo/fashionWebScrapping/config"
)

const maxBodyBytes = 10 << 20

// Markers some sites inject into interstitial pages when they suspect a bot.
// Hitting one means further requests with this setup are pointless.
var botMarkers = [][]byte{
	[]byte("unusual traffic"),
	[]byte("verify you are human"),
}

// Client fetches pages over plain HTTP, pacing every request through the
// shared gate and rotating identities as it goes.
type Client struct {
	http    *http.Client
	pacer   *Pacer
	rotator *Rotator
	timeout time.Duration
}

// NewClient builds a fetch client from cfg, sharing the given pacing gate.
func NewClient(cfg *config.Config, pacer *Pacer) *Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	return &Client{
		http:    &http.Client{Transport: transport},
		pacer:   pacer,
		rotator: NewRotator(cfg.UserAgents, cfg.RotateEvery),
		timeout: cfg.Timeout,
	}
}

// WithTransport swaps the underlying round tripper. Used by tests to plug in
// a mock transport.
func (c *Client) WithTransport(rt http.RoundTripper) {
	c.http.Transport = rt
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// Fetch retrieves one URL and classifies the outcome. The pacing gate is
// waited on before the request and observed after it, so the inter-request
// floor is measured from the end of one request to the start of the next.
func (c *Client) Fetch(ctx context.Context, rawURL string) Result {
	parsed, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return Fatal(rawURL, fmt.Errorf("malformed url: %w", err))
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return Fatal(rawURL, fmt.Errorf("unsupported scheme %q", parsed.Scheme))
	}

	if err := c.pacer.Wait(ctx); err != nil {
		return Transient(rawURL, err)
	}
	defer c.pacer.Observe()

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Fatal(rawURL, fmt.Errorf("build request: %w", err))
	}

	identity := c.rotator.Next()
	req.Header.Set("User-Agent", identity.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-GB,en;q=0.9")
	req.AddCookie(&http.Cookie{Name: "session-id", Value: identity.SessionID})

	resp, err := c.http.Do(req)
	if err != nil {
		return classifyNetworkError(rawURL, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable:
		io.Copy(io.Discard, resp.Body)
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		c.rotator.Rotate()
		slog.Debug("rate limited, identity rotated",
			slog.String("url", rawURL),
			slog.Int("status", resp.StatusCode),
			slog.Duration("retry_after", retryAfter),
		)
		return RateLimited(rawURL, resp.StatusCode, retryAfter)

	case resp.StatusCode >= http.StatusInternalServerError:
		io.Copy(io.Discard, resp.Body)
		return Result{
			Kind:       KindTransient,
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("http status %d", resp.StatusCode),
		}

	case resp.StatusCode >= http.StatusBadRequest:
		io.Copy(io.Discard, resp.Body)
		return Result{
			Kind:       KindFatal,
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("http status %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Transient(rawURL, fmt.Errorf("read body: %w", err))
	}

	for _, marker := range botMarkers {
		if bytes.Contains(bytes.ToLower(body), marker) {
			c.rotator.Rotate()
			return Fatal(rawURL, fmt.Errorf("bot detection triggered (%q)", marker))
		}
	}

	return Success(rawURL, body, resp.StatusCode)
}

// classifyNetworkError maps transport-level failures onto the result taxonomy.
func classifyNetworkError(rawURL string, err error) Result {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return Transient(rawURL, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Transient(rawURL, err)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		var opErr *net.OpError
		if errors.As(urlErr.Err, &opErr) {
			return Transient(rawURL, err)
		}
	}
	return Transient(rawURL, err)
}

// parseRetryAfter handles both delta-seconds and HTTP-date forms.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(header); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(header); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}
