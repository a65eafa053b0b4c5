package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/codemetrics/codemetrics/internal/contract"
	"github.com/codemetrics/codemetrics/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteAges outputs the age of the last change of each path.
func WriteAges(ages []schema.AgeResult, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, _ := createFormatters(cfg.Precision)
	return writeResults(cfg, "ages", formatWriters{
		table: func(w io.Writer) error {
			pathWidth := getMaxTablePathWidth(cfg, 40)
			var data [][]string
			for _, a := range ages {
				data = append(data, []string{
					contract.TruncatePath(a.Path, pathWidth),
					string(a.Kind),
					a.Date.Format(contract.DateTimeFormat),
					fmtFloat(a.AgeDays),
				})
			}
			if err := renderTable(w, []string{"Path", "Kind", "Last Change", "Age (days)"}, data); err != nil {
				return err
			}
			return writeSummary(w, len(ages), "paths", cfg, duration)
		},
		csv: func(w io.Writer) error {
			return writeCSVWithHeader(w, []string{"path", "kind", "date", "age_days"}, func(cw *csv.Writer) error {
				for _, a := range ages {
					if err := cw.Write([]string{a.Path, string(a.Kind), a.Date.UTC().Format(time.RFC3339), fmtFloat(a.AgeDays)}); err != nil {
						return err
					}
				}
				return nil
			})
		},
		json: func(w io.Writer) error { return writeJSON(w, ages) },
	})
}

// WriteHotSpots outputs paths ranked by hot spot score.
func WriteHotSpots(spots []schema.HotSpotResult, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)
	return writeResults(cfg, "hot spots", formatWriters{
		table: func(w io.Writer) error {
			pathWidth := getMaxTablePathWidth(cfg, 65)
			var data [][]string
			for i, s := range spots {
				data = append(data, []string{
					strconv.Itoa(i + 1),
					contract.TruncatePath(s.Path, pathWidth),
					s.Language,
					fmt.Sprintf(intFmt, int(s.Complexity)),
					fmt.Sprintf(intFmt, int(s.Changes)),
					fmtFloat(s.Score),
					contract.GetColorLabel(s.Score),
				})
			}
			if err := renderTable(w, []string{"Rank", "Path", "Language", "Lines", "Changes", "Score", "Label"}, data); err != nil {
				return err
			}
			return writeSummary(w, len(spots), "hot spots", cfg, duration)
		},
		csv: func(w io.Writer) error {
			header := []string{"rank", "path", "language", "complexity", "changes", "complexity_score", "changes_score", "score", "label"}
			return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
				for i, s := range spots {
					rec := []string{
						strconv.Itoa(i + 1),
						s.Path,
						s.Language,
						fmtFloat(s.Complexity),
						fmtFloat(s.Changes),
						fmtFloat(s.ComplexityScore),
						fmtFloat(s.ChangesScore),
						fmtFloat(s.Score),
						contract.GetPlainLabel(s.Score),
					}
					if err := cw.Write(rec); err != nil {
						return err
					}
				}
				return nil
			})
		},
		json: func(w io.Writer) error {
			type JSONHotSpotResult struct {
				Rank  int    `json:"rank"`
				Label string `json:"label"`
				schema.HotSpotResult
			}
			output := make([]JSONHotSpotResult, len(spots))
			for i, s := range spots {
				output[i] = JSONHotSpotResult{Rank: i + 1, Label: contract.GetPlainLabel(s.Score), HotSpotResult: s}
			}
			return writeJSON(w, output)
		},
	})
}

// WriteCoChanges outputs pairs of paths that change together.
func WriteCoChanges(pairs []schema.CoChangeResult, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)
	return writeResults(cfg, "co-changes", formatWriters{
		table: func(w io.Writer) error {
			// Two path columns share the available width
			pathWidth := getMaxTablePathWidth(cfg, 30) / 2
			var data [][]string
			for _, p := range pairs {
				data = append(data, []string{
					contract.TruncatePath(p.Primary, pathWidth),
					contract.TruncatePath(p.Secondary, pathWidth),
					fmt.Sprintf(intFmt, p.CoChanges),
					fmt.Sprintf(intFmt, p.Changes),
					fmtFloat(p.Coupling),
				})
			}
			if err := renderTable(w, []string{"Primary", "Secondary", "Co-changes", "Changes", "Coupling"}, data); err != nil {
				return err
			}
			return writeSummary(w, len(pairs), "pairs", cfg, duration)
		},
		csv: func(w io.Writer) error {
			return writeCSVWithHeader(w, []string{"primary", "secondary", "cochanges", "changes", "coupling"}, func(cw *csv.Writer) error {
				for _, p := range pairs {
					rec := []string{p.Primary, p.Secondary, fmt.Sprintf(intFmt, p.CoChanges), fmt.Sprintf(intFmt, p.Changes), fmtFloat(p.Coupling)}
					if err := cw.Write(rec); err != nil {
						return err
					}
				}
				return nil
			})
		},
		json: func(w io.Writer) error { return writeJSON(w, pairs) },
	})
}

// WriteChangesets outputs revisions that touched many paths at once.
func WriteChangesets(changesets []schema.MassChangeset, cfg *contract.Config, duration time.Duration) error {
	_, intFmt := createFormatters(cfg.Precision)
	return writeResults(cfg, "changesets", formatWriters{
		table: func(w io.Writer) error {
			var data [][]string
			for _, c := range changesets {
				data = append(data, []string{
					c.Revision,
					fmt.Sprintf(intFmt, c.PathCount),
					c.Author,
					truncateText(c.Message, logMessageWidth),
				})
			}
			if err := renderTable(w, []string{"Revision", "Paths", "Author", "Message"}, data); err != nil {
				return err
			}
			return writeSummary(w, len(changesets), "changesets", cfg, duration)
		},
		csv: func(w io.Writer) error {
			return writeCSVWithHeader(w, []string{"revision", "path_count", "author", "message"}, func(cw *csv.Writer) error {
				for _, c := range changesets {
					if err := cw.Write([]string{c.Revision, fmt.Sprintf(intFmt, c.PathCount), c.Author, c.Message}); err != nil {
						return err
					}
				}
				return nil
			})
		},
		json: func(w io.Writer) error { return writeJSON(w, changesets) },
	})
}

// renderTable writes a right-aligned table of data under headers.
func renderTable(w io.Writer, headers []string, data [][]string) error {
	table := tablewriter.NewWriter(w)
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
