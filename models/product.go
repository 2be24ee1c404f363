// Package models defines the canonical record shapes shared by all site scrapers.
package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// ProductRecord is the normalized schema every site extractor must produce.
// It is also the wire shape written by the JSON sink.
type ProductRecord struct {
	ProductID string      `json:"product_id"`
	Source    Source      `json:"source"`
	Info      ProductInfo `json:"product_info"`
	Reviews   []Review    `json:"reviews"`
}

// Source records where and when a product was scraped.
type Source struct {
	Website   string    `json:"website"`
	URL       string    `json:"url"`
	ScrapedAt time.Time `json:"scraped_at"`
}

// ProductInfo holds the product attributes extracted from a detail page.
type ProductInfo struct {
	Name        string      `json:"name"`
	Brand       string      `json:"brand,omitempty"`
	Price       float64     `json:"price"`
	Currency    string      `json:"currency"`
	Description string      `json:"description,omitempty"`
	Sizes       StringSlice `json:"sizes"`
	Colors      StringSlice `json:"colors"`
	Materials   StringSlice `json:"materials"`
	Images      StringSlice `json:"images"`
}

// Review is a single customer review attached to a product.
type Review struct {
	UserID   string  `json:"user_id"`
	Rating   float64 `json:"rating"`
	Title    string  `json:"title,omitempty"`
	Comment  string  `json:"comment"`
	Date     string  `json:"date"`
	Verified bool    `json:"verified,omitempty"`
}

// StringSlice stores a []string as JSON in SQL columns.
type StringSlice []string

// Value implements driver.Valuer for database storage.
func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return errors.New("models: unsupported type for StringSlice")
	}
	return json.Unmarshal(b, s)
}

// CrawlSummary holds the overall result of one category crawl.
type CrawlSummary struct {
	Site              string
	CategoryURL       string
	StartTime         time.Time
	EndTime           time.Time
	PagesVisited      int
	PagesFailed       int
	FailedPages       []string
	LinksFound        int
	ProductsPersisted int
	ProductsSkipped   int
	SkipReasons       map[string]int
	RetryCount        int
	RequestCount      int
	Completed         bool
}
