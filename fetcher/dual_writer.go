package fetcher

import (
	"fmt"
	"sync"

	"github.com/aluiziolira/go-fetch-episodes/models"
)

// DualWriter writes the manifest to both CSV and JSONL outputs.
type DualWriter struct {
	csvWriter  *CSVWriter
	jsonWriter *JSONWriter
	mu         sync.Mutex
}

// NewDualWriter creates both underlying writers.
func NewDualWriter(csvFilename, jsonFilename string) (*DualWriter, error) {
	csvWriter, err := NewCSVWriter(csvFilename)
	if err != nil {
		return nil, fmt.Errorf("create csv writer: %w", err)
	}

	jsonWriter, err := NewJSONWriter(jsonFilename)
	if err != nil {
		csvWriter.Close()
		return nil, fmt.Errorf("create json writer: %w", err)
	}

	return &DualWriter{
		csvWriter:  csvWriter,
		jsonWriter: jsonWriter,
	}, nil
}

// Write records results in both formats.
func (dw *DualWriter) Write(results []models.ItemResult) error {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	if err := dw.csvWriter.Write(results); err != nil {
		return fmt.Errorf("csv write failed: %w", err)
	}
	if err := dw.jsonWriter.Write(results); err != nil {
		return fmt.Errorf("json write failed: %w", err)
	}
	return nil
}

// Close closes both writers, reporting every failure.
func (dw *DualWriter) Close() error {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	var errs []error
	if err := dw.csvWriter.Close(); err != nil {
		errs = append(errs, fmt.Errorf("csv close failed: %w", err))
	}
	if err := dw.jsonWriter.Close(); err != nil {
		errs = append(errs, fmt.Errorf("json close failed: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("multiple errors: %v", errs)
	}
	return nil
}

// Validate validates both output files.
func (dw *DualWriter) Validate() error {
	var errs []error
	if err := dw.csvWriter.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("csv validation failed: %w", err))
	}
	if err := dw.jsonWriter.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("json validation failed: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("validation errors: %v", errs)
	}
	return nil
}
