package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/AsmaZgo/fashionWebScrapping/models"
)

func TestJSONSinkRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "products.json")
	sink, err := NewJSONSink(path)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}

	first := testRecord("1001", time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	update := testRecord("1001", time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	update.Info.Price = 18.50
	for _, rec := range []*models.ProductRecord{first, update, testRecord("1002", time.Now())} {
		if err := sink.Persist(rec); err != nil {
			t.Fatalf("persist: %v", err)
		}
	}

	if err := sink.Validate(); err != nil {
		t.Fatalf("validate before close: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := sink.Validate(); err != nil {
		t.Fatalf("validate after close: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var records []models.ProductRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2 (duplicate collapsed)", len(records))
	}
	if records[0].ProductID != "1001" || records[0].Info.Price != 18.50 {
		t.Fatalf("duplicate should resolve to the later scrape: %+v", records[0])
	}
	if len(records[0].Reviews) != 1 {
		t.Fatalf("reviews not serialized: %+v", records[0])
	}
}

func TestJSONSinkPersistAfterClose(t *testing.T) {
	sink, err := NewJSONSink(filepath.Join(t.TempDir(), "products.json"))
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	if err := sink.Persist(testRecord("1", time.Now())); err != nil {
		t.Fatalf("persist: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := sink.Persist(testRecord("2", time.Now())); err == nil {
		t.Fatalf("persist after close should fail")
	}
}

func TestJSONSinkValidateEmpty(t *testing.T) {
	sink, err := NewJSONSink(filepath.Join(t.TempDir(), "products.json"))
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	if err := sink.Validate(); err == nil {
		t.Fatalf("empty sink should fail validation")
	}
}
