package storage

import (
	"path/filepath"
	"testing"
	"time"
)

func TestSQLiteSinkUpsert(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.db")
	sink, err := NewSQLiteSink(path)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	defer sink.Close()

	older := testRecord("4001", time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	newer := testRecord("4001", time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	newer.Info.Price = 15.00

	if err := sink.Persist(older); err != nil {
		t.Fatalf("persist older: %v", err)
	}
	if err := sink.Persist(newer); err != nil {
		t.Fatalf("persist newer: %v", err)
	}

	var price float64
	if err := sink.db.QueryRow(`SELECT price FROM products WHERE product_id = ?`, "4001").Scan(&price); err != nil {
		t.Fatalf("query: %v", err)
	}
	if price != 15.00 {
		t.Fatalf("price = %v, want the later scrape to win", price)
	}

	// Replaying the stale record must not roll the row back.
	if err := sink.Persist(older); err != nil {
		t.Fatalf("persist stale: %v", err)
	}
	if err := sink.db.QueryRow(`SELECT price FROM products WHERE product_id = ?`, "4001").Scan(&price); err != nil {
		t.Fatalf("query: %v", err)
	}
	if price != 15.00 {
		t.Fatalf("stale record overwrote a fresher one, price = %v", price)
	}

	var count int
	if err := sink.db.QueryRow(`SELECT COUNT(*) FROM products`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("got %d rows, want 1", count)
	}

	if err := sink.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestSQLiteSinkReviewsReplaced(t *testing.T) {
	sink, err := NewSQLiteSink(filepath.Join(t.TempDir(), "products.db"))
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	defer sink.Close()

	rec := testRecord("4002", time.Now())
	if err := sink.Persist(rec); err != nil {
		t.Fatalf("persist: %v", err)
	}

	update := testRecord("4002", time.Now().Add(time.Minute))
	update.Reviews = append(update.Reviews, update.Reviews[0])
	if err := sink.Persist(update); err != nil {
		t.Fatalf("persist update: %v", err)
	}

	var count int
	if err := sink.db.QueryRow(`SELECT COUNT(*) FROM reviews WHERE product_id = ?`, "4002").Scan(&count); err != nil {
		t.Fatalf("count reviews: %v", err)
	}
	if count != 2 {
		t.Fatalf("got %d reviews, want the update's full set", count)
	}
}

func TestSQLiteSinkStringSliceRoundTrip(t *testing.T) {
	sink, err := NewSQLiteSink(filepath.Join(t.TempDir(), "products.db"))
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	defer sink.Close()

	if err := sink.Persist(testRecord("4003", time.Now())); err != nil {
		t.Fatalf("persist: %v", err)
	}

	var sizes string
	if err := sink.db.QueryRow(`SELECT sizes FROM products WHERE product_id = ?`, "4003").Scan(&sizes); err != nil {
		t.Fatalf("query sizes: %v", err)
	}
	if sizes != `["UK 8","UK 10"]` {
		t.Fatalf("sizes column = %q, want JSON-encoded slice", sizes)
	}
}

func TestSQLiteSinkValidateEmpty(t *testing.T) {
	sink, err := NewSQLiteSink(filepath.Join(t.TempDir(), "products.db"))
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	defer sink.Close()

	if err := sink.Validate(); err == nil {
		t.Fatalf("empty database should fail validation")
	}
}
