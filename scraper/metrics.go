package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the crawl engine.
type Metrics struct {
	Registry        *prometheus.Registry
	PagesTotal      *prometheus.CounterVec
	RequestDuration prometheus.Histogram
	LinksTotal      prometheus.Counter
	RetriesTotal    prometheus.Counter
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	pages := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_pages_total",
			Help: "Listing pages processed, by outcome.",
		},
		[]string{"status"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "crawler_page_fetch_duration_seconds",
			Help:    "Listing page fetch latency including retries.",
			Buckets: prometheus.DefBuckets,
		},
	)
	links := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crawler_links_discovered_total",
			Help: "Unique product links discovered across listing pages.",
		},
	)
	retries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crawler_retries_total",
			Help: "Retry attempts taken while fetching listing pages.",
		},
	)

	registry.MustRegister(pages, requestDuration, links, retries)

	return &Metrics{
		Registry:        registry,
		PagesTotal:      pages,
		RequestDuration: requestDuration,
		LinksTotal:      links,
		RetriesTotal:    retries,
	}
}

// IncPage increments the page counter for an outcome label.
func (m *Metrics) IncPage(status string) {
	if m == nil {
		return
	}
	m.PagesTotal.WithLabelValues(status).Inc()
}

// ObserveDuration records one page fetch duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

// AddLinks counts newly discovered product links.
func (m *Metrics) AddLinks(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.LinksTotal.Add(float64(n))
}

// AddRetries counts retry attempts.
func (m *Metrics) AddRetries(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RetriesTotal.Add(float64(n))
}
