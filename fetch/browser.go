package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/AsmaZgo/fashionWebScrapping/config"
)

// Browser fetches pages through a headless browser for sites that render
// their product grids with scripts. It shares the same pacing gate as the
// HTTP client and satisfies the same Fetcher contract.
type Browser struct {
	browser    *rod.Browser
	pacer      *Pacer
	rotator    *Rotator
	timeout    time.Duration
	scrolls    int
	scrollWait time.Duration
}

// NewBrowser launches a headless browser fetcher. scrolls controls how many
// scroll passes each page gets so infinite-scroll grids load more products.
func NewBrowser(cfg *config.Config, pacer *Pacer, scrolls int) (*Browser, error) {
	controlURL, err := launcher.New().Headless(true).Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	if scrolls < 0 {
		scrolls = 0
	}
	return &Browser{
		browser:    browser,
		pacer:      pacer,
		rotator:    NewRotator(cfg.UserAgents, cfg.RotateEvery),
		timeout:    cfg.Timeout,
		scrolls:    scrolls,
		scrollWait: 2 * time.Second,
	}, nil
}

// Close shuts the browser down.
func (b *Browser) Close() error {
	return b.browser.Close()
}

// identityPage is the slice of the rod page surface needed to stamp a
// browsing identity onto outgoing requests.
type identityPage interface {
	SetUserAgent(req *proto.NetworkSetUserAgentOverride) error
	SetCookies(cookies []*proto.NetworkCookieParam) error
}

// applyIdentity overrides the page's user agent and session cookie so
// browser requests carry the same identity headers the HTTP client sends.
func applyIdentity(p identityPage, rawURL string, identity Identity) error {
	if err := p.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      identity.UserAgent,
		AcceptLanguage: "en-GB,en;q=0.9",
	}); err != nil {
		return fmt.Errorf("set user agent: %w", err)
	}
	if err := p.SetCookies([]*proto.NetworkCookieParam{{
		Name:  "session-id",
		Value: identity.SessionID,
		URL:   rawURL,
	}}); err != nil {
		return fmt.Errorf("set session cookie: %w", err)
	}
	return nil
}

// Fetch navigates to the URL in a fresh stealth page, scrolls to trigger
// lazy loading, and returns the rendered HTML.
func (b *Browser) Fetch(ctx context.Context, rawURL string) Result {
	if err := b.pacer.Wait(ctx); err != nil {
		return Transient(rawURL, err)
	}
	defer b.pacer.Observe()

	identity := b.rotator.Next()

	page, err := stealth.Page(b.browser)
	if err != nil {
		return Transient(rawURL, fmt.Errorf("open page: %w", err))
	}
	defer page.Close()

	page = page.Context(ctx).Timeout(b.timeout)

	if err := applyIdentity(page, rawURL, identity); err != nil {
		return Transient(rawURL, err)
	}

	if err := page.Navigate(rawURL); err != nil {
		return Transient(rawURL, fmt.Errorf("navigate: %w", err))
	}
	if err := page.WaitLoad(); err != nil {
		slog.Debug("page load wait failed, continuing", slog.String("url", rawURL), slog.Any("error", err))
	}

	for i := 0; i < b.scrolls; i++ {
		if _, err := page.Eval(`() => window.scrollTo(0, document.body.scrollHeight)`); err != nil {
			break
		}
		timer := time.NewTimer(b.scrollWait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return Transient(rawURL, ctx.Err())
		}
	}

	html, err := page.HTML()
	if err != nil {
		return Transient(rawURL, fmt.Errorf("read html: %w", err))
	}

	lowered := strings.ToLower(html)
	for _, marker := range botMarkers {
		if strings.Contains(lowered, string(marker)) {
			b.rotator.Rotate()
			return Fatal(rawURL, fmt.Errorf("bot detection triggered (%q)", marker))
		}
	}

	return Success(rawURL, []byte(html), 200)
}
