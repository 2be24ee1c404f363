package extract

import (
	"testing"
	"time"

	"github.com/AsmaZgo/fashionWebScrapping/models"
)

func validRecord() *models.ProductRecord {
	return &models.ProductRecord{
		ProductID: "1001",
		Source: models.Source{
			Website:   "asos",
			URL:       "https://www.asos.test/prd/1001",
			ScrapedAt: time.Now(),
		},
		Info: models.ProductInfo{Name: "Denim Jacket", Price: 45, Currency: "GBP"},
	}
}

func TestValidateRecord(t *testing.T) {
	if err := ValidateRecord(validRecord()); err != nil {
		t.Fatalf("valid record rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*models.ProductRecord)
	}{
		{name: "missing id", mutate: func(r *models.ProductRecord) { r.ProductID = "" }},
		{name: "missing name", mutate: func(r *models.ProductRecord) { r.Info.Name = "" }},
		{name: "negative price", mutate: func(r *models.ProductRecord) { r.Info.Price = -1 }},
		{name: "missing website", mutate: func(r *models.ProductRecord) { r.Source.Website = "" }},
		{name: "missing url", mutate: func(r *models.ProductRecord) { r.Source.URL = "" }},
		{name: "zero scraped_at", mutate: func(r *models.ProductRecord) { r.Source.ScrapedAt = time.Time{} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := validRecord()
			tt.mutate(rec)
			if err := ValidateRecord(rec); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}

	if err := ValidateRecord(nil); err == nil {
		t.Fatalf("nil record should fail")
	}
}
