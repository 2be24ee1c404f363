// Package pipeline turns discovered product links into persisted records:
// fetch the detail page, extract, validate, deduplicate, and hand off to the
// storage sink.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/AsmaZgo/fashionWebScrapping/config"
	"github.com/AsmaZgo/fashionWebScrapping/extract"
	"github.com/AsmaZgo/fashionWebScrapping/fetch"
	"github.com/AsmaZgo/fashionWebScrapping/storage"
)

// ErrPipelineClosed is returned when Enqueue is called after shutdown.
var ErrPipelineClosed = errors.New("pipeline: closed")

// Skip reasons reported in the crawl summary.
const (
	SkipFetchFailed   = "fetch_failed"
	SkipMissingField  = "missing_field"
	SkipExtractError  = "extract_error"
	SkipInvalidRecord = "invalid_record"
	SkipDuplicate     = "duplicate_product"
	SkipCancelled     = "cancelled"
)

// Pipeline processes product URLs with a bounded worker pool. Network calls
// from all workers still pass through the shared pacing gate, so parallelism
// here never violates the inter-request floor.
type Pipeline struct {
	ctx     context.Context
	cfg     *config.Config
	sink    storage.Sink
	fetcher fetch.Fetcher
	ex      extract.Extractor
	policy  fetch.RetryPolicy

	urlCh chan string
	wg    sync.WaitGroup

	seen *lru.Cache[string, struct{}]

	stats stats

	mu     sync.Mutex // guards closed/err
	closed bool
	err    error

	closeOnce    sync.Once
	shutdown     chan struct{}
	shutdownOnce sync.Once
}

// New builds a pipeline writing to sink.
func New(ctx context.Context, sink storage.Sink, fetcher fetch.Fetcher, ex extract.Extractor, cfg *config.Config) (*Pipeline, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	seen, err := lru.New[string, struct{}](cfg.DedupeMaxSize)
	if err != nil {
		return nil, fmt.Errorf("create dedupe cache: %w", err)
	}
	return &Pipeline{
		ctx:     ctx,
		cfg:     cfg,
		sink:    sink,
		fetcher: fetcher,
		ex:      ex,
		policy: fetch.RetryPolicy{
			MaxRetries: cfg.MaxRetries,
			Backoff:    cfg.RetryBackoff,
			BackoffMax: cfg.RetryBackoffMax,
		},
		urlCh:    make(chan string, 512),
		seen:     seen,
		stats:    newStats(),
		shutdown: make(chan struct{}),
	}, nil
}

// Start launches worker goroutines.
func (p *Pipeline) Start(workers int) {
	if workers <= 0 {
		workers = 1
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// Enqueue submits product URLs for processing.
func (p *Pipeline) Enqueue(urls ...string) error {
	if len(urls) == 0 {
		return nil
	}

	closed, err := p.state()
	if err != nil {
		return err
	}
	if closed {
		return ErrPipelineClosed
	}

	for _, u := range urls {
		if u == "" {
			continue
		}
		if err := p.enqueue(u); err != nil {
			return err
		}
	}
	return nil
}

// Close waits for workers to drain and prevents more submissions.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
	}
	p.mu.Unlock()

	p.signalShutdown()
	p.closeOnce.Do(func() {
		close(p.urlCh)
	})

	p.wg.Wait()
	return p.Err()
}

// Err returns the first storage error encountered.
func (p *Pipeline) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Stats returns a snapshot of the processing counters.
func (p *Pipeline) Stats() Stats {
	return p.stats.snapshot()
}

func (p *Pipeline) worker() {
	defer p.wg.Done()

	for u := range p.urlCh {
		if p.ctx.Err() != nil {
			p.stats.skip(SkipCancelled)
			continue
		}
		p.processOne(u)
	}
}

// processOne runs the full per-product sequence. Any failure here is scoped
// to this one product; the batch keeps going.
func (p *Pipeline) processOne(u string) {
	res, retries := fetch.Do(p.ctx, p.fetcher, u, p.policy)
	p.stats.addRetries(retries)
	if res.Kind != fetch.KindSuccess {
		slog.Warn("product fetch failed",
			slog.String("url", u),
			slog.String("kind", res.Kind.String()),
			slog.Any("error", res.Err),
		)
		p.stats.skip(SkipFetchFailed)
		return
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body))
	if err != nil {
		slog.Warn("product page parse failed", slog.String("url", u), slog.Any("error", err))
		p.stats.skip(SkipExtractError)
		return
	}

	rec, err := p.ex.Product(doc, u)
	if err != nil {
		if extract.IsMissingField(err) {
			slog.Info("product skipped", slog.String("url", u), slog.Any("reason", err))
			p.stats.skip(SkipMissingField)
		} else {
			slog.Warn("product extraction failed", slog.String("url", u), slog.Any("error", err))
			p.stats.skip(SkipExtractError)
		}
		return
	}

	rec.Source.Website = p.ex.Site()
	rec.Source.URL = u
	rec.Source.ScrapedAt = time.Now()

	if err := extract.ValidateRecord(rec); err != nil {
		slog.Warn("record failed validation", slog.String("url", u), slog.Any("error", err))
		p.stats.skip(SkipInvalidRecord)
		return
	}

	if _, dup := p.seen.Get(rec.ProductID); dup {
		p.stats.skip(SkipDuplicate)
		return
	}
	p.seen.Add(rec.ProductID, struct{}{})

	if err := p.sink.Persist(rec); err != nil {
		p.setErr(fmt.Errorf("persist %s: %w", rec.ProductID, err))
		return
	}
	p.stats.incPersisted()
}

func (p *Pipeline) enqueue(u string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ErrPipelineClosed
		}
	}()

	select {
	case <-p.shutdown:
		return ErrPipelineClosed
	case p.urlCh <- u:
		return nil
	}
}

func (p *Pipeline) setErr(err error) {
	if err == nil {
		return
	}

	p.mu.Lock()
	if p.err != nil {
		p.mu.Unlock()
		return
	}
	p.err = err
	p.closed = true
	p.mu.Unlock()

	p.signalShutdown()
	p.closeOnce.Do(func() {
		close(p.urlCh)
	})
}

func (p *Pipeline) state() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed, p.err
}

func (p *Pipeline) signalShutdown() {
	p.shutdownOnce.Do(func() {
		close(p.shutdown)
	})
}

// Stats is a snapshot of pipeline counters.
type Stats struct {
	Persisted   int
	Skipped     int
	SkipReasons map[string]int
	Retries     int
}

type stats struct {
	mu        sync.Mutex
	persisted int
	skipped   map[string]int
	retries   int
}

func newStats() stats {
	return stats{skipped: make(map[string]int)}
}

func (s *stats) incPersisted() {
	s.mu.Lock()
	s.persisted++
	s.mu.Unlock()
}

func (s *stats) skip(reason string) {
	s.mu.Lock()
	s.skipped[reason]++
	s.mu.Unlock()
}

func (s *stats) addRetries(n int) {
	if n == 0 {
		return
	}
	s.mu.Lock()
	s.retries += n
	s.mu.Unlock()
}

func (s *stats) snapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	reasons := make(map[string]int, len(s.skipped))
	total := 0
	for k, v := range s.skipped {
		reasons[k] = v
		total += v
	}
	return Stats{
		Persisted:   s.persisted,
		Skipped:     total,
		SkipReasons: reasons,
		Retries:     s.retries,
	}
}
