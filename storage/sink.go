// Package storage persists canonical product records. All sinks are
// idempotent: persisting the same product_id twice keeps the record with the
// later scraped_at timestamp.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/AsmaZgo/fashionWebScrapping/models"
)

// Sink is the write contract between the crawl engine and persistence.
type Sink interface {
	Persist(rec *models.ProductRecord) error
	Close() error
	Validate() error
}

// recordSet buffers records keyed by product_id with last-write-wins
// resolution on scraped_at. Insertion order of first appearance is kept so
// output files are stable.
type recordSet struct {
	mu    sync.Mutex
	byID  map[string]*models.ProductRecord
	order []string
}

func newRecordSet() *recordSet {
	return &recordSet{byID: make(map[string]*models.ProductRecord)}
}

func (rs *recordSet) put(rec *models.ProductRecord) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	existing, ok := rs.byID[rec.ProductID]
	if !ok {
		rs.byID[rec.ProductID] = rec
		rs.order = append(rs.order, rec.ProductID)
		return
	}
	if rec.Source.ScrapedAt.Before(existing.Source.ScrapedAt) {
		return
	}
	rs.byID[rec.ProductID] = rec
}

func (rs *recordSet) records() []*models.ProductRecord {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	out := make([]*models.ProductRecord, 0, len(rs.order))
	for _, id := range rs.order {
		out = append(out, rs.byID[id])
	}
	return out
}

func (rs *recordSet) size() int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return len(rs.order)
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}

// TimestampedPath builds dir/prefix_YYYYMMDD_HHMMSS.ext so repeated crawls
// never clobber earlier output.
func TimestampedPath(dir, prefix, ext string) string {
	stamp := time.Now().Format("20060102_150405")
	return filepath.Join(dir, fmt.Sprintf("%s_%s%s", prefix, stamp, ext))
}

func validateFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("output file %s is empty", path)
	}
	return nil
}
