package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/AsmaZgo/fashionWebScrapping/config"
	"github.com/AsmaZgo/fashionWebScrapping/extract"
	"github.com/AsmaZgo/fashionWebScrapping/fetch"
	"github.com/AsmaZgo/fashionWebScrapping/models"
	"github.com/AsmaZgo/fashionWebScrapping/pipeline"
	"github.com/AsmaZgo/fashionWebScrapping/scraper"
	"github.com/AsmaZgo/fashionWebScrapping/storage"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	defaultCfg := config.DefaultConfig()
	pagesDefault := defaultCfg.MaxPages
	if value, ok, err := config.EnvInt("SCRAPER_PAGES"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid SCRAPER_PAGES: %v\n", err)
		os.Exit(1)
	} else if ok {
		pagesDefault = value
	}
	delayDefault := int(defaultCfg.Delay / time.Millisecond)
	if value, ok, err := config.EnvInt("SCRAPER_DELAY_MS"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid SCRAPER_DELAY_MS: %v\n", err)
		os.Exit(1)
	} else if ok {
		delayDefault = value
	}
	outputDefault := defaultCfg.OutputDir
	if value, ok := config.EnvString("SCRAPER_OUTPUT"); ok {
		outputDefault = value
	}
	metricsDefault := defaultCfg.MetricsAddr
	if value, ok := config.EnvString("SCRAPER_METRICS_ADDR"); ok {
		metricsDefault = value
	}

	site := flag.String("site", "asos", "Site profile to scrape")
	category := flag.String("category", "", "Category listing URL to crawl (required)")
	outputDir := flag.String("output", outputDefault, "Directory for output files")
	outputFormat := flag.String("format", defaultCfg.OutputFormat, "Output format: json, csv, dual, or sqlite")
	maxPages := flag.Int("pages", pagesDefault, "Maximum listing pages to visit")
	maxProducts := flag.Int("products", defaultCfg.MaxProducts, "Maximum product links to collect")
	parallelism := flag.Int("parallel", defaultCfg.Parallelism, "Number of concurrent product workers")
	delayMs := flag.Int("delay", delayDefault, "Minimum delay between requests (milliseconds)")
	maxRetries := flag.Int("max-retries", defaultCfg.MaxRetries, "Maximum retry attempts per URL")
	retryBackoffMs := flag.Int("retry-backoff", int(defaultCfg.RetryBackoff/time.Millisecond), "Initial retry backoff (milliseconds)")
	retryBackoffMaxMs := flag.Int("retry-backoff-max", int(defaultCfg.RetryBackoffMax/time.Millisecond), "Maximum retry backoff (milliseconds)")
	rotateEvery := flag.Int("rotate-every", defaultCfg.RotateEvery, "Requests between identity rotations")
	sitesFile := flag.String("sites", "", "YAML file with site profile overrides")
	metricsAddr := flag.String("metrics-addr", metricsDefault, "Prometheus metrics listen address (e.g. :9090)")
	debug := flag.Bool("debug", false, "Enable debug logging and page dumps")

	flag.Parse()

	logger, level := newLogger(*debug)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	profiles := config.DefaultSiteProfiles()
	if *sitesFile != "" {
		loaded, err := config.LoadSiteProfiles(*sitesFile)
		if err != nil {
			slog.Error("loading site profiles", slog.Any("error", err))
			os.Exit(1)
		}
		profiles = loaded
	}
	profile, err := config.SiteProfileFor(*site, profiles)
	if err != nil {
		slog.Error("unknown site", slog.Any("error", err))
		os.Exit(1)
	}

	cfg := buildConfigFromFlags(*site, *category, *outputDir, *outputFormat, *maxPages, *maxProducts, *parallelism, *delayMs, *maxRetries, *retryBackoffMs, *retryBackoffMaxMs, *rotateEvery, *metricsAddr, *debug)
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("starting crawl",
		slog.String("site", cfg.Site),
		slog.String("category", cfg.CategoryURL),
		slog.Int("pages", cfg.MaxPages),
		slog.Int("workers", cfg.Parallelism),
	)

	pacer := fetch.NewPacer(cfg.Delay)
	var fetcher fetch.Fetcher
	if profile.Fetcher == "browser" {
		fetcher, err = fetch.NewBrowser(cfg, pacer, profile.ScrollPasses)
		if err != nil {
			slog.Error("launching browser", slog.Any("error", err))
			os.Exit(1)
		}
	} else {
		fetcher = fetch.NewClient(cfg, pacer)
	}
	defer func() {
		if err := fetcher.Close(); err != nil {
			slog.Error("close fetcher", slog.Any("error", err))
		}
	}()

	ex, err := extract.New(profile)
	if err != nil {
		slog.Error("initialising extractor", slog.Any("error", err))
		os.Exit(1)
	}

	sink, err := createSink(cfg.OutputFormat, cfg.OutputDir)
	if err != nil {
		slog.Error("creating sink", slog.Any("error", err))
		os.Exit(1)
	}

	s, err := scraper.New(cfg, fetcher, ex)
	if err != nil {
		slog.Error("initialising scraper", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received, waiting for in-flight work to finish")
	}()

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" && s.Metrics != nil {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(s.Metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	p, err := pipeline.New(ctx, sink, fetcher, ex, cfg)
	if err != nil {
		slog.Error("initialising pipeline", slog.Any("error", err))
		os.Exit(1)
	}
	p.Start(cfg.Parallelism)

	summary, runErr := s.Run(ctx, p)

	if err := p.Close(); err != nil {
		slog.Error("pipeline shutdown failed", slog.Any("error", err))
		os.Exit(1)
	}

	if err := sink.Validate(); err != nil {
		slog.Error("output validation failed", slog.Any("error", err))
	}
	if err := sink.Close(); err != nil {
		slog.Error("writing output failed", slog.Any("error", err))
		os.Exit(1)
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	stats := p.Stats()
	summary.ProductsPersisted = stats.Persisted
	summary.ProductsSkipped = stats.Skipped
	summary.SkipReasons = stats.SkipReasons
	summary.RetryCount += stats.Retries

	printSummary(summary, cfg.OutputDir)

	if runErr != nil {
		slog.Error("crawl aborted", slog.Any("error", runErr))
		os.Exit(1)
	}
}

func buildConfigFromFlags(site, category, outputDir, outputFormat string, maxPages, maxProducts, parallelism, delayMs, maxRetries, retryBackoffMs, retryBackoffMaxMs, rotateEvery int, metricsAddr string, debug bool) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Site = site
	cfg.CategoryURL = category
	cfg.MaxPages = maxPages
	cfg.MaxProducts = maxProducts
	cfg.Parallelism = parallelism
	cfg.Delay = time.Duration(delayMs) * time.Millisecond
	cfg.MaxRetries = maxRetries
	cfg.RetryBackoff = time.Duration(retryBackoffMs) * time.Millisecond
	cfg.RetryBackoffMax = time.Duration(retryBackoffMaxMs) * time.Millisecond
	cfg.RotateEvery = rotateEvery
	cfg.OutputDir = outputDir
	cfg.OutputFormat = strings.ToLower(outputFormat)
	cfg.MetricsAddr = metricsAddr
	cfg.Verbose = debug
	cfg.DebugDump = debug
	return cfg
}

func createSink(format, dir string) (storage.Sink, error) {
	switch format {
	case "json":
		return storage.NewJSONSink(storage.TimestampedPath(dir, "products", ".json"))
	case "csv":
		return storage.NewCSVSink(
			storage.TimestampedPath(dir, "products", ".csv"),
			storage.TimestampedPath(dir, "reviews", ".csv"),
		)
	case "dual":
		return storage.NewDualSink(
			storage.TimestampedPath(dir, "products", ".json"),
			storage.TimestampedPath(dir, "products", ".csv"),
			storage.TimestampedPath(dir, "reviews", ".csv"),
		)
	case "sqlite":
		return storage.NewSQLiteSink(filepath.Join(dir, "products.db"))
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func printSummary(summary *models.CrawlSummary, outputDir string) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Crawl complete")

	fmt.Printf("  Site:             %s\n", summary.Site)
	fmt.Printf("  Pages visited:    %d\n", summary.PagesVisited)
	fmt.Printf("  Pages failed:     %d\n", summary.PagesFailed)
	fmt.Printf("  Links found:      %d\n", summary.LinksFound)
	fmt.Printf("  Products saved:   %d\n", summary.ProductsPersisted)
	fmt.Printf("  Products skipped: %d\n", summary.ProductsSkipped)
	if len(summary.SkipReasons) > 0 {
		fmt.Printf("  Skip reasons:     %v\n", summary.SkipReasons)
	}
	fmt.Printf("  Retries:          %d\n", summary.RetryCount)
	successRate := 0.0
	if summary.RequestCount > 0 {
		successRate = float64(summary.RequestCount-summary.PagesFailed) / float64(summary.RequestCount) * 100
	}
	fmt.Printf("  Success rate:     %.2f%%\n", successRate)
	fmt.Printf("  Duration:         %v\n", summary.EndTime.Sub(summary.StartTime).Round(time.Millisecond))
	fmt.Printf("  Output dir:       %s\n", outputDir)
	fmt.Println(separator)
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
