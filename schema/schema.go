// Package schema has the canonical log model, report rows and shared enums for codemetrics.
package schema

import (
	"encoding/json"
	"math"
	"time"
)

// LogEntry is one change to one path in one revision, as produced by a collector.
// Optional values are pointers; nil means unknown.
type LogEntry struct {
	Revision     string
	Author       *string
	Date         *time.Time
	Path         *string
	Message      *string
	Kind         Kind
	Action       Action
	TextMods     *bool
	PropMods     *bool
	CopyFromRev  *string
	CopyFromPath *string
	Added        float64 // NaN when unknown
	Removed      float64 // NaN when unknown
}

// WithModDefaults returns a copy of the entry where unknown textmods and
// propmods flags are replaced by the given backend defaults.
func (e LogEntry) WithModDefaults(textMods, propMods bool) LogEntry {
	if e.TextMods == nil {
		e.TextMods = &textMods
	}
	if e.PropMods == nil {
		e.PropMods = &propMods
	}
	return e
}

// Column describes a single column of the canonical log table.
type Column struct {
	Name     string     `json:"name"`
	Type     ColumnType `json:"type"`
	Nullable bool       `json:"nullable"`
}

// LogColumns is the fixed column set, in order, shared by every backend.
var LogColumns = []Column{
	{Name: "revision", Type: TextColumn},
	{Name: "author", Type: TextColumn},
	{Name: "date", Type: TimestampColumn},
	{Name: "path", Type: TextColumn, Nullable: true},
	{Name: "message", Type: TextColumn},
	{Name: "kind", Type: CategoryColumn},
	{Name: "action", Type: CategoryColumn, Nullable: true},
	{Name: "textmods", Type: BoolColumn},
	{Name: "propmods", Type: BoolColumn},
	{Name: "copyfromrev", Type: TextColumn, Nullable: true},
	{Name: "copyfrompath", Type: TextColumn, Nullable: true},
	{Name: "added", Type: FloatColumn, Nullable: true},
	{Name: "removed", Type: FloatColumn, Nullable: true},
}

// ColumnNames returns the names of LogColumns in order.
func ColumnNames() []string {
	names := make([]string, len(LogColumns))
	for i, c := range LogColumns {
		names[i] = c.Name
	}
	return names
}

// LogRow is a normalized row of the canonical log table.
type LogRow struct {
	Revision     string
	Author       string
	Date         time.Time
	Path         *string
	Message      string
	Kind         Kind
	Action       Action // NoAction when unset
	TextMods     bool
	PropMods     bool
	CopyFromRev  *string
	CopyFromPath *string
	Added        float64 // NaN when unknown
	Removed      float64 // NaN when unknown
}

// PathOrEmpty returns the row path, or "" for rows without a path.
func (r LogRow) PathOrEmpty() string {
	if r.Path == nil {
		return ""
	}
	return *r.Path
}

// logRowJSON is the wire form of LogRow. NaN and unset values are encoded as null.
type logRowJSON struct {
	Revision     string    `json:"revision"`
	Author       string    `json:"author"`
	Date         time.Time `json:"date"`
	Path         *string   `json:"path"`
	Message      string    `json:"message"`
	Kind         Kind      `json:"kind"`
	Action       *Action   `json:"action"`
	TextMods     bool      `json:"textmods"`
	PropMods     bool      `json:"propmods"`
	CopyFromRev  *string   `json:"copyfromrev"`
	CopyFromPath *string   `json:"copyfrompath"`
	Added        *float64  `json:"added"`
	Removed      *float64  `json:"removed"`
}

// MarshalJSON implements json.Marshaler.
func (r LogRow) MarshalJSON() ([]byte, error) {
	out := logRowJSON{
		Revision:     r.Revision,
		Author:       r.Author,
		Date:         r.Date,
		Path:         r.Path,
		Message:      r.Message,
		Kind:         r.Kind,
		TextMods:     r.TextMods,
		PropMods:     r.PropMods,
		CopyFromRev:  r.CopyFromRev,
		CopyFromPath: r.CopyFromPath,
		Added:        NullableFloat(r.Added),
		Removed:      NullableFloat(r.Removed),
	}
	if r.Action != NoAction {
		action := r.Action
		out.Action = &action
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *LogRow) UnmarshalJSON(data []byte) error {
	var in logRowJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*r = LogRow{
		Revision:     in.Revision,
		Author:       in.Author,
		Date:         in.Date,
		Path:         in.Path,
		Message:      in.Message,
		Kind:         in.Kind,
		TextMods:     in.TextMods,
		PropMods:     in.PropMods,
		CopyFromRev:  in.CopyFromRev,
		CopyFromPath: in.CopyFromPath,
		Added:        FloatOrNaN(in.Added),
		Removed:      FloatOrNaN(in.Removed),
	}
	if in.Action != nil {
		r.Action = *in.Action
	}
	return nil
}

// LogTable is the canonical log table returned to aggregation code.
type LogTable struct {
	Columns []Column `json:"columns"`
	Kinds   []Kind   `json:"kinds"`   // distinct kinds, sorted
	Actions []Action `json:"actions"` // distinct non-empty actions, sorted
	Rows    []LogRow `json:"rows"`
}

// Len returns the number of rows.
func (t LogTable) Len() int {
	return len(t.Rows)
}

// NullableFloat returns nil for NaN and a pointer to v otherwise.
func NullableFloat(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

// FloatOrNaN dereferences v, mapping nil to NaN.
func FloatOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
