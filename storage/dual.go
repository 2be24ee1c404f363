package storage

import (
	"fmt"

	"github.com/AsmaZgo/fashionWebScrapping/models"
)

// DualSink persists to JSON and CSV simultaneously.
type DualSink struct {
	json *JSONSink
	csv  *CSVSink
}

// NewDualSink creates both underlying sinks.
func NewDualSink(jsonPath, productsPath, reviewsPath string) (*DualSink, error) {
	jsonSink, err := NewJSONSink(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("create json sink: %w", err)
	}
	csvSink, err := NewCSVSink(productsPath, reviewsPath)
	if err != nil {
		return nil, fmt.Errorf("create csv sink: %w", err)
	}
	return &DualSink{json: jsonSink, csv: csvSink}, nil
}

// Persist writes to both sinks.
func (ds *DualSink) Persist(rec *models.ProductRecord) error {
	if err := ds.json.Persist(rec); err != nil {
		return fmt.Errorf("json persist failed: %w", err)
	}
	if err := ds.csv.Persist(rec); err != nil {
		return fmt.Errorf("csv persist failed: %w", err)
	}
	return nil
}

// Close closes both sinks.
func (ds *DualSink) Close() error {
	var errs []error
	if err := ds.json.Close(); err != nil {
		errs = append(errs, fmt.Errorf("json close failed: %w", err))
	}
	if err := ds.csv.Close(); err != nil {
		errs = append(errs, fmt.Errorf("csv close failed: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("multiple errors: %v", errs)
	}
	return nil
}

// Validate validates both outputs.
func (ds *DualSink) Validate() error {
	var errs []error
	if err := ds.json.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("json validation failed: %w", err))
	}
	if err := ds.csv.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("csv validation failed: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("validation errors: %v", errs)
	}
	return nil
}
