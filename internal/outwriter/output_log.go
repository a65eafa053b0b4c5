package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/codemetrics/codemetrics/internal/contract"
	"github.com/codemetrics/codemetrics/internal/parquet"
	"github.com/codemetrics/codemetrics/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// logMessageWidth caps the message column of the log table.
const logMessageWidth = 40

// WriteLog outputs the canonical log table in the configured format.
func WriteLog(table schema.LogTable, cfg *contract.Config, duration time.Duration) error {
	return writeResults(cfg, "the log", formatWriters{
		table: func(w io.Writer) error { return writeLogTable(w, table, cfg, duration) },
		csv:   func(w io.Writer) error { return writeLogCSV(w, table) },
		json:  func(w io.Writer) error { return writeJSON(w, table) },
		parquet: func(w io.Writer) error {
			return parquet.WriteLog(w, table)
		},
	})
}

// writeLogTable generates and writes the human-readable log table.
func writeLogTable(writer io.Writer, table schema.LogTable, cfg *contract.Config, duration time.Duration) error {
	tbl := tablewriter.NewWriter(writer)
	tbl.Header([]string{"Revision", "Author", "Date", "Path", "Kind", "Action", "Added", "Removed", "Message"})
	tbl.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})

	pathWidth := getMaxTablePathWidth(cfg, 60+logMessageWidth)
	var data [][]string
	for _, r := range table.Rows {
		data = append(data, []string{
			r.Revision,
			r.Author,
			r.Date.Format(contract.DateTimeFormat),
			contract.TruncatePath(r.PathOrEmpty(), pathWidth),
			string(r.Kind),
			string(r.Action),
			formatCount(r.Added, "-"),
			formatCount(r.Removed, "-"),
			truncateText(r.Message, logMessageWidth),
		})
	}

	if err := tbl.Bulk(data); err != nil {
		return err
	}
	if err := tbl.Render(); err != nil {
		return err
	}
	return writeSummary(writer, table.Len(), "log rows", cfg, duration)
}

// writeLogCSV writes the log with one column per canonical column.
// Null values are written as empty fields.
func writeLogCSV(w io.Writer, table schema.LogTable) error {
	return writeCSVWithHeader(w, schema.ColumnNames(), func(cw *csv.Writer) error {
		for _, r := range table.Rows {
			rec := []string{
				r.Revision,
				r.Author,
				r.Date.UTC().Format(time.RFC3339),
				r.PathOrEmpty(),
				r.Message,
				string(r.Kind),
				string(r.Action),
				strconv.FormatBool(r.TextMods),
				strconv.FormatBool(r.PropMods),
				valueOr(r.CopyFromRev, ""),
				valueOr(r.CopyFromPath, ""),
				formatCount(r.Added, ""),
				formatCount(r.Removed, ""),
			}
			if err := cw.Write(rec); err != nil {
				return fmt.Errorf("failed to write CSV row: %w", err)
			}
		}
		return nil
	})
}
