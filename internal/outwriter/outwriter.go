// Package outwriter renders logs and reports as tables, CSV, JSON or Parquet.
package outwriter

import (
	"fmt"
	"io"
	"time"

	"github.com/codemetrics/codemetrics/internal/contract"
	"github.com/codemetrics/codemetrics/schema"
)

// formatWriters holds the renderers of one result set, one per output format.
type formatWriters struct {
	table   func(io.Writer) error
	csv     func(io.Writer) error
	json    func(io.Writer) error
	parquet func(io.Writer) error // nil when the result set has no Parquet form
}

// writeResults dispatches to the renderer of the configured output format.
func writeResults(cfg *contract.Config, what string, fw formatWriters) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, fw.json, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, fw.csv, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if fw.parquet == nil {
			return fmt.Errorf("parquet output is not supported for %s", what)
		}
		if err := writeWithFile(cfg.OutputFile, fw.parquet, "Wrote Parquet"); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	default:
		// Default to human-readable table
		return writeWithFile(cfg.OutputFile, fw.table, "Wrote table")
	}
	return nil
}

// writeSummary prints the footer shared by all text tables.
func writeSummary(w io.Writer, count int, noun string, cfg *contract.Config, duration time.Duration) error {
	if _, err := fmt.Fprintf(w, "Showing %d %s\n", count, noun); err != nil {
		return err
	}
	backend := cfg.CacheBackend
	if backend == "" {
		backend = schema.NoneBackend
	}
	_, err := fmt.Fprintf(w, "Completed in %v with %d workers. Cache backend: %s\n", duration.Round(time.Millisecond), cfg.Workers, backend)
	return err
}
