// Package parquet exports the canonical log table to Parquet files using
// github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/codemetrics/codemetrics/schema"
	"github.com/parquet-go/parquet-go"
)

// LogRecord is one row of the canonical log table in Parquet form.
// Nullable columns of the table are optional columns here.
type LogRecord struct {
	Revision string `parquet:"revision,snappy"`
	Author   string `parquet:"author,snappy"`

	// Date is stored as TIMESTAMP with nanosecond precision, in UTC
	Date time.Time `parquet:"date,snappy"`

	Path    *string `parquet:"path,optional,snappy"`
	Message string  `parquet:"message,snappy"`

	// Kind and Action are dictionary encoded like the categorical columns they mirror
	Kind   string  `parquet:"kind,dict"`
	Action *string `parquet:"action,optional,dict"`

	TextMods     bool    `parquet:"textmods"`
	PropMods     bool    `parquet:"propmods"`
	CopyFromRev  *string `parquet:"copyfromrev,optional,snappy"`
	CopyFromPath *string `parquet:"copyfrompath,optional,snappy"`

	// Added and Removed are null when the line counts are unknown
	Added   *float64 `parquet:"added,optional,snappy"`
	Removed *float64 `parquet:"removed,optional,snappy"`
}

// ConvertLogRows converts canonical log rows to LogRecord for Parquet export.
func ConvertLogRows(rows []schema.LogRow) []LogRecord {
	result := make([]LogRecord, len(rows))
	for i, r := range rows {
		rec := LogRecord{
			Revision:     r.Revision,
			Author:       r.Author,
			Date:         r.Date.UTC(),
			Path:         r.Path,
			Message:      r.Message,
			Kind:         string(r.Kind),
			TextMods:     r.TextMods,
			PropMods:     r.PropMods,
			CopyFromRev:  r.CopyFromRev,
			CopyFromPath: r.CopyFromPath,
			Added:        schema.NullableFloat(r.Added),
			Removed:      schema.NullableFloat(r.Removed),
		}
		if r.Action != schema.NoAction {
			action := string(r.Action)
			rec.Action = &action
		}
		result[i] = rec
	}
	return result
}

// ConvertLogRecords converts Parquet records back to canonical log rows.
func ConvertLogRecords(records []LogRecord) []schema.LogRow {
	result := make([]schema.LogRow, len(records))
	for i, rec := range records {
		row := schema.LogRow{
			Revision:     rec.Revision,
			Author:       rec.Author,
			Date:         rec.Date.UTC(),
			Path:         rec.Path,
			Message:      rec.Message,
			Kind:         schema.Kind(rec.Kind),
			TextMods:     rec.TextMods,
			PropMods:     rec.PropMods,
			CopyFromRev:  rec.CopyFromRev,
			CopyFromPath: rec.CopyFromPath,
			Added:        schema.FloatOrNaN(rec.Added),
			Removed:      schema.FloatOrNaN(rec.Removed),
		}
		if rec.Action != nil {
			row.Action = schema.Action(*rec.Action)
		}
		result[i] = row
	}
	return result
}

// WriteLog writes the rows of table to w in Parquet format.
func WriteLog(w io.Writer, table schema.LogTable) error {
	// The schema is derived from the LogRecord struct tags
	writer := parquet.NewGenericWriter[LogRecord](w)
	if _, err := writer.Write(ConvertLogRows(table.Rows)); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// WriteLogParquet writes the rows of table to a Parquet file at outputPath.
func WriteLogParquet(table schema.LogTable, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := WriteLog(file, table); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// ReadLogParquet reads a Parquet file written by WriteLogParquet back into rows.
func ReadLogParquet(inputPath string) ([]schema.LogRow, error) {
	records, err := parquet.ReadFile[LogRecord](inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet file: %w", err)
	}
	return ConvertLogRecords(records), nil
}
