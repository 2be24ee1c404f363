package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/AsmaZgo/fashionWebScrapping/models"
)

// ProductHeader is the flattened product projection, one row per product.
var ProductHeader = []string{
	"product_id", "website", "url", "scraped_at",
	"name", "brand", "price", "currency", "description",
	"sizes", "colors", "materials", "images", "review_count",
}

// ReviewHeader is the review projection, one row per review, joined to the
// product rows by product_id.
var ReviewHeader = []string{
	"product_id", "user_id", "rating", "title", "comment", "date", "verified",
}

// CSVSink buffers records and writes the two flattened projections on Close.
type CSVSink struct {
	productsPath string
	reviewsPath  string
	set          *recordSet

	mu     sync.Mutex
	closed bool
}

// NewCSVSink creates a CSV sink writing products and reviews files.
func NewCSVSink(productsPath, reviewsPath string) (*CSVSink, error) {
	if err := ensureDir(productsPath); err != nil {
		return nil, err
	}
	if err := ensureDir(reviewsPath); err != nil {
		return nil, err
	}
	return &CSVSink{
		productsPath: productsPath,
		reviewsPath:  reviewsPath,
		set:          newRecordSet(),
	}, nil
}

// Persist buffers one record.
func (cs *CSVSink) Persist(rec *models.ProductRecord) error {
	cs.mu.Lock()
	if cs.closed {
		cs.mu.Unlock()
		return fmt.Errorf("csv sink: already closed")
	}
	cs.mu.Unlock()

	cs.set.put(rec)
	return nil
}

// Close writes both projections out.
func (cs *CSVSink) Close() error {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.closed {
		return nil
	}
	cs.closed = true

	records := cs.set.records()
	if err := cs.writeProducts(records); err != nil {
		return err
	}
	return cs.writeReviews(records)
}

// Validate ensures the products file has rows besides the header.
func (cs *CSVSink) Validate() error {
	cs.mu.Lock()
	closed := cs.closed
	cs.mu.Unlock()
	if !closed {
		if cs.set.size() == 0 {
			return fmt.Errorf("csv sink: no records persisted")
		}
		return nil
	}
	return validateFile(cs.productsPath)
}

func (cs *CSVSink) writeProducts(records []*models.ProductRecord) error {
	f, err := os.Create(cs.productsPath)
	if err != nil {
		return fmt.Errorf("create products csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(ProductHeader); err != nil {
		return fmt.Errorf("write products header: %w", err)
	}
	for _, rec := range records {
		row := []string{
			rec.ProductID,
			rec.Source.Website,
			rec.Source.URL,
			rec.Source.ScrapedAt.Format(time.RFC3339),
			rec.Info.Name,
			rec.Info.Brand,
			strconv.FormatFloat(rec.Info.Price, 'f', -1, 64),
			rec.Info.Currency,
			rec.Info.Description,
			strings.Join(rec.Info.Sizes, ","),
			strings.Join(rec.Info.Colors, ","),
			strings.Join(rec.Info.Materials, ","),
			strings.Join(rec.Info.Images, ","),
			strconv.Itoa(len(rec.Reviews)),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write product row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush products csv: %w", err)
	}
	return nil
}

func (cs *CSVSink) writeReviews(records []*models.ProductRecord) error {
	f, err := os.Create(cs.reviewsPath)
	if err != nil {
		return fmt.Errorf("create reviews csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(ReviewHeader); err != nil {
		return fmt.Errorf("write reviews header: %w", err)
	}
	for _, rec := range records {
		for _, review := range rec.Reviews {
			row := []string{
				rec.ProductID,
				review.UserID,
				strconv.FormatFloat(review.Rating, 'f', -1, 64),
				review.Title,
				review.Comment,
				review.Date,
				strconv.FormatBool(review.Verified),
			}
			if err := w.Write(row); err != nil {
				return fmt.Errorf("write review row: %w", err)
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush reviews csv: %w", err)
	}
	return nil
}
