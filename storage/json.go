package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/AsmaZgo/fashionWebScrapping/models"
)

// JSONSink buffers records and writes them as one pretty-printed JSON array
// on Close. Buffering is what makes repeated persists of the same product_id
// collapse into a single entry.
type JSONSink struct {
	path string
	set  *recordSet

	mu     sync.Mutex
	closed bool
}

// NewJSONSink creates a JSON sink writing to path.
func NewJSONSink(path string) (*JSONSink, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	return &JSONSink{path: path, set: newRecordSet()}, nil
}

// Persist buffers one record.
func (js *JSONSink) Persist(rec *models.ProductRecord) error {
	js.mu.Lock()
	if js.closed {
		js.mu.Unlock()
		return fmt.Errorf("json sink: already closed")
	}
	js.mu.Unlock()

	js.set.put(rec)
	return nil
}

// Close writes the buffered records out.
func (js *JSONSink) Close() error {
	js.mu.Lock()
	defer js.mu.Unlock()
	if js.closed {
		return nil
	}
	js.closed = true

	data, err := json.MarshalIndent(js.set.records(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode json records: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(js.path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}

// Validate ensures the output file has content.
func (js *JSONSink) Validate() error {
	js.mu.Lock()
	closed := js.closed
	js.mu.Unlock()
	if !closed {
		if js.set.size() == 0 {
			return fmt.Errorf("json sink: no records persisted")
		}
		return nil
	}
	return validateFile(js.path)
}
