// Package logtable turns collector entries into the canonical log table.
package logtable

import (
	"math"
	"slices"
	"strings"

	"github.com/codemetrics/codemetrics/schema"
)

// ToTable builds one row per entry in encounter order and normalizes the result.
// Empty input yields a table with zero rows and the full column set.
func ToTable(entries []schema.LogEntry) schema.LogTable {
	rows := make([]schema.LogRow, 0, len(entries))
	for _, e := range entries {
		row := schema.LogRow{
			Revision:     e.Revision,
			Author:       deref(e.Author),
			Path:         cloneString(e.Path),
			Message:      deref(e.Message),
			Kind:         e.Kind,
			Action:       e.Action,
			TextMods:     e.TextMods != nil && *e.TextMods,
			PropMods:     e.PropMods != nil && *e.PropMods,
			CopyFromRev:  cloneString(e.CopyFromRev),
			CopyFromPath: cloneString(e.CopyFromPath),
			Added:        e.Added,
			Removed:      e.Removed,
		}
		if e.Date != nil {
			row.Date = *e.Date
		}
		rows = append(rows, row)
	}
	return Normalize(schema.LogTable{Rows: rows})
}

// Normalize assigns the final types of every column so that tables from
// different backends are structurally identical. It never modifies its input
// and Normalize(Normalize(t)) equals Normalize(t).
func Normalize(t schema.LogTable) schema.LogTable {
	out := schema.LogTable{
		Columns: slices.Clone(schema.LogColumns),
		Kinds:   []schema.Kind{},
		Actions: []schema.Action{},
		Rows:    make([]schema.LogRow, len(t.Rows)),
	}

	kinds := map[schema.Kind]struct{}{}
	actions := map[schema.Action]struct{}{}
	for i, r := range t.Rows {
		r.Date = r.Date.UTC()
		r.Message = collapseNewlines(r.Message)
		r.Added = canonicalNaN(r.Added)
		r.Removed = canonicalNaN(r.Removed)
		out.Rows[i] = r

		if r.Kind != "" {
			kinds[r.Kind] = struct{}{}
		}
		if r.Action != schema.NoAction {
			actions[r.Action] = struct{}{}
		}
	}

	for k := range kinds {
		out.Kinds = append(out.Kinds, k)
	}
	slices.Sort(out.Kinds)
	for a := range actions {
		out.Actions = append(out.Actions, a)
	}
	slices.Sort(out.Actions)
	return out
}

// collapseNewlines replaces embedded line breaks with single spaces.
func collapseNewlines(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "\r", " ")
}

func canonicalNaN(v float64) float64 {
	if math.IsNaN(v) {
		return math.NaN()
	}
	return v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
