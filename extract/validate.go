package extract

import (
	"fmt"

	"github.com/AsmaZgo/fashionWebScrapping/models"
)

// ValidateRecord is the last gate before storage: no partially populated
// record may reach a sink.
func ValidateRecord(rec *models.ProductRecord) error {
	if rec == nil {
		return fmt.Errorf("record is nil")
	}
	if rec.ProductID == "" {
		return fmt.Errorf("record missing product_id")
	}
	if rec.Info.Name == "" {
		return fmt.Errorf("record %s missing name", rec.ProductID)
	}
	if rec.Info.Price < 0 {
		return fmt.Errorf("record %s has negative price", rec.ProductID)
	}
	if rec.Source.Website == "" {
		return fmt.Errorf("record %s missing source website", rec.ProductID)
	}
	if rec.Source.URL == "" {
		return fmt.Errorf("record %s missing source url", rec.ProductID)
	}
	if rec.Source.ScrapedAt.IsZero() {
		return fmt.Errorf("record %s missing scraped_at", rec.ProductID)
	}
	return nil
}
