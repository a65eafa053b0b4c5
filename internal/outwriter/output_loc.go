package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/codemetrics/codemetrics/internal/contract"
	"github.com/codemetrics/codemetrics/schema"
)

// WriteLoc outputs per-file line counts.
func WriteLoc(entries []schema.ClocEntry, cfg *contract.Config, duration time.Duration) error {
	_, intFmt := createFormatters(cfg.Precision)
	return writeResults(cfg, "line counts", formatWriters{
		table: func(w io.Writer) error {
			pathWidth := getMaxTablePathWidth(cfg, 45)
			var data [][]string
			total := 0
			for _, e := range entries {
				data = append(data, []string{
					e.Language,
					contract.TruncatePath(e.Path, pathWidth),
					fmt.Sprintf(intFmt, e.Blank),
					fmt.Sprintf(intFmt, e.Comment),
					fmt.Sprintf(intFmt, e.Code),
				})
				total += e.Code
			}
			if err := renderTable(w, []string{"Language", "Path", "Blank", "Comment", "Code"}, data); err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "Total lines of code: %d\n", total); err != nil {
				return err
			}
			return writeSummary(w, len(entries), "files", cfg, duration)
		},
		csv: func(w io.Writer) error {
			return writeCSVWithHeader(w, []string{"language", "path", "blank", "comment", "code"}, func(cw *csv.Writer) error {
				for _, e := range entries {
					rec := []string{e.Language, e.Path, fmt.Sprintf(intFmt, e.Blank), fmt.Sprintf(intFmt, e.Comment), fmt.Sprintf(intFmt, e.Code)}
					if err := cw.Write(rec); err != nil {
						return err
					}
				}
				return nil
			})
		},
		json: func(w io.Writer) error { return writeJSON(w, entries) },
	})
}

// WriteDownloads outputs downloaded file contents. The text form prints each
// file under a header line so that single downloads can be piped as-is.
func WriteDownloads(results []schema.DownloadResult, cfg *contract.Config, _ time.Duration) error {
	return writeResults(cfg, "downloads", formatWriters{
		table: func(w io.Writer) error {
			for _, r := range results {
				if len(results) > 1 {
					if _, err := fmt.Fprintf(w, "==> %s@%s <==\n", r.Path, r.Revision); err != nil {
						return err
					}
				}
				content := r.Content
				if len(results) > 1 && !strings.HasSuffix(content, "\n") {
					content += "\n"
				}
				if _, err := io.WriteString(w, content); err != nil {
					return err
				}
			}
			return nil
		},
		csv: func(w io.Writer) error {
			return writeCSVWithHeader(w, []string{"revision", "path", "content"}, func(cw *csv.Writer) error {
				for _, r := range results {
					if err := cw.Write([]string{r.Revision, r.Path, r.Content}); err != nil {
						return err
					}
				}
				return nil
			})
		},
		json: func(w io.Writer) error { return writeJSON(w, results) },
	})
}
