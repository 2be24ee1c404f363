// Package scraper drives the category crawl: a state machine walks listing
// pages through the fetch client, accumulates product links, and streams
// newly discovered links into the product pipeline.
package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/AsmaZgo/fashionWebScrapping/config"
	"github.com/AsmaZgo/fashionWebScrapping/extract"
	"github.com/AsmaZgo/fashionWebScrapping/fetch"
	"github.com/AsmaZgo/fashionWebScrapping/models"
	"github.com/AsmaZgo/fashionWebScrapping/pipeline"
)

// crawlState enumerates the pagination state machine.
type crawlState int

const (
	stateStart crawlState = iota
	stateFetchingPage
	stateAccumulating
	stateDone
	stateFailed
)

// maxBarrenPages bounds how many consecutive pages may yield no new links
// (failed pages included) before the crawl stops advancing on
// query-parameter sites.
const maxBarrenPages = 3

// Scraper walks one category listing end to end.
type Scraper struct {
	cfg     *config.Config
	fetcher fetch.Fetcher
	ex      extract.Extractor
	policy  fetch.RetryPolicy
	Metrics *Metrics
}

// New builds a scraper over the given fetcher and site extractor.
func New(cfg *config.Config, fetcher fetch.Fetcher, ex extract.Extractor) (*Scraper, error) {
	parsed, err := url.Parse(cfg.CategoryURL)
	if err != nil {
		return nil, fmt.Errorf("parse category url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("category url must include a host")
	}

	return &Scraper{
		cfg:     cfg,
		fetcher: fetcher,
		ex:      ex,
		policy: fetch.RetryPolicy{
			MaxRetries: cfg.MaxRetries,
			Backoff:    cfg.RetryBackoff,
			BackoffMax: cfg.RetryBackoffMax,
		},
		Metrics: NewMetrics(),
	}, nil
}

// Run paginates the category and feeds newly discovered product links into
// p. It returns when pagination terminates; the caller closes the pipeline
// to drain in-flight products. A FatalCrawlError aborts everything; ctx
// cancellation stops the crawl between pages.
func (s *Scraper) Run(ctx context.Context, p *pipeline.Pipeline) (*models.CrawlSummary, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	base, err := url.Parse(s.cfg.CategoryURL)
	if err != nil {
		return nil, fmt.Errorf("parse category url: %w", err)
	}

	summary := &models.CrawlSummary{
		Site:        s.ex.Site(),
		CategoryURL: s.cfg.CategoryURL,
		StartTime:   time.Now(),
		SkipReasons: make(map[string]int),
	}

	// CrawlState: owned here for the duration of one category crawl.
	visited := make(map[string]struct{})
	pageURL := s.cfg.CategoryURL
	page := 0
	barrenPages := 0

	var doc *goquery.Document
	var abort error
	state := stateStart

	for state != stateDone && state != stateFailed {
		switch state {
		case stateStart:
			page = 1
			state = stateFetchingPage

		case stateFetchingPage:
			if ctx.Err() != nil {
				summary.EndTime = time.Now()
				return summary, ctx.Err()
			}

			start := time.Now()
			res, retries := fetch.Do(ctx, s.fetcher, pageURL, s.policy)
			s.Metrics.ObserveDuration(time.Since(start))
			s.Metrics.AddRetries(retries)
			summary.RetryCount += retries
			summary.RequestCount += retries + 1

			switch res.Kind {
			case fetch.KindSuccess:
				parsed, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body))
				if err != nil {
					s.Metrics.IncPage("failed")
					summary.PagesFailed++
					summary.FailedPages = append(summary.FailedPages, pageURL)
					slog.Error("listing page parse failed", slog.String("url", pageURL), slog.Any("error", err))
					doc = nil
				} else {
					s.Metrics.IncPage("fetched")
					summary.PagesVisited++
					doc = parsed
				}
				state = stateAccumulating

			case fetch.KindFatal:
				s.Metrics.IncPage("fatal")
				abort = &FatalCrawlError{URL: pageURL, Err: res.Err}
				state = stateFailed

			default:
				// Retries exhausted on a transient/rate-limited page: record
				// it as failed and keep paginating.
				s.Metrics.IncPage("failed")
				summary.PagesFailed++
				summary.FailedPages = append(summary.FailedPages, pageURL)
				slog.Warn("listing page failed after retries",
					slog.String("url", pageURL),
					slog.String("kind", res.Kind.String()),
					slog.Any("error", res.Err),
				)
				doc = nil
				state = stateAccumulating
			}

		case stateAccumulating:
			newLinks := s.accumulate(doc, base, visited)
			summary.LinksFound = len(visited)
			s.Metrics.AddLinks(len(newLinks))

			if len(newLinks) > 0 {
				if err := p.Enqueue(newLinks...); err != nil && !errors.Is(err, pipeline.ErrPipelineClosed) {
					slog.Error("pipeline enqueue failed", slog.Any("error", err))
				}
			}

			if doc != nil && len(newLinks) == 0 {
				// Natural end of the listing.
				if s.cfg.DebugDump {
					s.dumpDebugPage(pageURL, doc)
				}
				state = stateDone
				continue
			}
			if len(newLinks) == 0 {
				barrenPages++
				if barrenPages >= maxBarrenPages {
					state = stateDone
					continue
				}
			} else {
				barrenPages = 0
			}
			if page >= s.cfg.MaxPages || len(visited) >= s.cfg.MaxProducts {
				state = stateDone
				continue
			}

			next := s.ex.NextPage(doc, base, page)
			if next == "" {
				state = stateDone
				continue
			}

			pageURL = next
			page++
			doc = nil
			state = stateFetchingPage
		}
	}

	summary.EndTime = time.Now()
	if state == stateFailed {
		slog.Error("crawl aborted", slog.Any("error", abort))
		return summary, abort
	}
	summary.Completed = true
	return summary, nil
}

// accumulate unions the page's links into the visited set and returns only
// the previously unseen ones, capped so the crawl never exceeds MaxProducts.
func (s *Scraper) accumulate(doc *goquery.Document, base *url.URL, visited map[string]struct{}) []string {
	if doc == nil {
		return nil
	}

	var fresh []string
	for _, link := range s.ex.Links(doc, base) {
		if _, seen := visited[link]; seen {
			continue
		}
		if len(visited) >= s.cfg.MaxProducts {
			break
		}
		visited[link] = struct{}{}
		fresh = append(fresh, link)
	}
	return fresh
}

// dumpDebugPage saves the rendered markup of a page that produced no links,
// the manual-diagnosis aid for selector drift.
func (s *Scraper) dumpDebugPage(pageURL string, doc *goquery.Document) {
	html, err := doc.Html()
	if err != nil {
		return
	}
	name := fmt.Sprintf("debug_page_%d.html", time.Now().Unix())
	path := filepath.Join(s.cfg.OutputDir, name)
	content := "<!-- " + pageURL + " -->\n" + html
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		slog.Debug("debug dump failed", slog.Any("error", err))
	}
}
