package scraper

import "fmt"

// FatalCrawlError aborts a whole category crawl. It carries the URL whose
// fetch produced the non-retryable failure.
type FatalCrawlError struct {
	URL string
	Err error
}

func (e *FatalCrawlError) Error() string {
	return fmt.Sprintf("crawl aborted at %s: %v", e.URL, e.Err)
}

func (e *FatalCrawlError) Unwrap() error {
	return e.Err
}
