package agg

import (
	"math"
	"testing"
	"time"

	"github.com/codemetrics/codemetrics/core/logtable"
	"github.com/codemetrics/codemetrics/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2018, 12, 5, 0, 0, 0, 0, time.UTC)

func row(rev, author, path string, date time.Time) schema.LogRow {
	r := schema.LogRow{
		Revision: rev,
		Author:   author,
		Date:     date,
		Message:  "msg " + rev,
		Kind:     schema.FileKind,
		TextMods: true,
		Added:    1,
		Removed:  1,
	}
	if path != "" {
		r.Path = &path
	}
	return r
}

// sampleTable has three revisions:
//
//	r1: a.py b.py
//	r2: a.py c.py
//	r3: a.py b.py
//	r4: no path
func sampleTable() schema.LogTable {
	return logtable.Normalize(schema.LogTable{Rows: []schema.LogRow{
		row("r1", "alice", "a.py", day.AddDate(0, 0, -10)),
		row("r1", "alice", "b.py", day.AddDate(0, 0, -10)),
		row("r2", "bob", "a.py", day.AddDate(0, 0, -5)),
		row("r2", "bob", "c.py", day.AddDate(0, 0, -5)),
		row("r3", "alice", "a.py", day.AddDate(0, 0, -1)),
		row("r3", "alice", "b.py", day.AddDate(0, 0, -1)),
		row("r4", "carol", "", day),
	}})
}

func TestFilter(t *testing.T) {
	table := sampleTable()
	filtered := Filter(table, []string{"b.py"})
	assert.Equal(t, 5, filtered.Len())
	for _, r := range filtered.Rows {
		assert.NotEqual(t, "b.py", r.PathOrEmpty())
	}
	assert.Equal(t, 7, table.Len(), "input is not modified")
	assert.Equal(t, table, Filter(table, nil))
}

func TestAges(t *testing.T) {
	now := day.Add(12 * time.Hour)
	ages := Ages(sampleTable(), now)
	require.Len(t, ages, 3, "rows without path are skipped")

	assert.Equal(t, "a.py", ages[0].Path)
	assert.Equal(t, schema.FileKind, ages[0].Kind)
	assert.Equal(t, day.AddDate(0, 0, -1), ages[0].Date)
	assert.InDelta(t, 1.5, ages[0].AgeDays, 1e-9)

	assert.Equal(t, "b.py", ages[1].Path)
	assert.InDelta(t, 1.5, ages[1].AgeDays, 1e-9)
	assert.Equal(t, "c.py", ages[2].Path)
	assert.InDelta(t, 5.5, ages[2].AgeDays, 1e-9)
}

func TestAgesGroupsByKind(t *testing.T) {
	dir := row("1", "a", "src", day)
	dir.Kind = schema.SvnDirKind
	file := row("2", "a", "src", day.AddDate(0, 0, -2))
	file.Kind = schema.SvnFileKind

	ages := Ages(schema.LogTable{Rows: []schema.LogRow{dir, file}}, day)
	require.Len(t, ages, 2)
	assert.Equal(t, schema.SvnDirKind, ages[0].Kind)
	assert.Equal(t, schema.SvnFileKind, ages[1].Kind)
}

func TestHotSpots(t *testing.T) {
	loc := []schema.ClocEntry{
		{Language: "Python", Path: "a.py", Code: 22},
		{Language: "Python", Path: "b.py", Code: 110},
		{Language: "Python", Path: "d.py", Code: 55},
	}
	spots := HotSpots(sampleTable(), loc)
	require.Len(t, spots, 4, "log and loc are outer merged on path")

	byPath := map[string]schema.HotSpotResult{}
	for _, s := range spots {
		byPath[s.Path] = s
	}

	a := byPath["a.py"]
	assert.Equal(t, 22.0, a.Complexity)
	assert.Equal(t, "Python", a.Language)
	assert.Equal(t, 3.0, a.Changes)
	assert.InDelta(t, 0.04, a.ComplexityScore, 1e-9)
	assert.InDelta(t, 1.0, a.ChangesScore, 1e-9)

	b := byPath["b.py"]
	assert.Equal(t, 2.0, b.Changes)
	assert.InDelta(t, 1.0, b.ComplexityScore, 1e-9)
	assert.InDelta(t, 4.0/9.0, b.ChangesScore, 1e-9)
	assert.InDelta(t, 1+4.0/9.0, b.Score, 1e-9)

	c := byPath["c.py"]
	assert.Equal(t, "", c.Language, "paths unknown to cloc have no language")
	assert.Equal(t, 0.0, c.Complexity)
	assert.InDelta(t, 1.0/9.0, c.ChangesScore, 1e-9)

	d := byPath["d.py"]
	assert.Equal(t, 0.0, d.Changes, "paths never changed count zero changes")
	assert.InDelta(t, 0.25, d.ComplexityScore, 1e-9)

	var order []string
	for _, s := range spots {
		order = append(order, s.Path)
	}
	assert.Equal(t, []string{"b.py", "a.py", "d.py", "c.py"}, order, "highest score first")
	for i := 1; i < len(spots); i++ {
		assert.GreaterOrEqual(t, spots[i-1].Score, spots[i].Score)
	}
	for _, s := range spots {
		assert.False(t, math.IsNaN(s.Score))
		assert.LessOrEqual(t, s.Score, 2.0)
	}
}

func TestHotSpotsCountsOneChangePerRevision(t *testing.T) {
	table := schema.LogTable{Rows: []schema.LogRow{
		row("r1", "a", "x.go", day),
		row("r1", "a", "x.go", day),
		row("r2", "a", "x.go", day),
	}}
	spots := HotSpots(table, nil)
	require.Len(t, spots, 1)
	assert.Equal(t, 2.0, spots[0].Changes)
	assert.Equal(t, 0.0, spots[0].Score, "a constant column scales to zero")
}

func TestHotSpotsEmpty(t *testing.T) {
	assert.Empty(t, HotSpots(schema.LogTable{}, nil))
}

func TestCoChanges(t *testing.T) {
	co := CoChanges(sampleTable())

	type key struct{ p, s string }
	got := map[key]schema.CoChangeResult{}
	for _, c := range co {
		got[key{c.Primary, c.Secondary}] = c
	}
	require.Len(t, got, 4)

	ab := got[key{"a.py", "b.py"}]
	assert.Equal(t, 2, ab.CoChanges)
	assert.Equal(t, 3, ab.Changes)
	assert.InDelta(t, 2.0/3.0, ab.Coupling, 1e-9)

	ba := got[key{"b.py", "a.py"}]
	assert.Equal(t, 2, ba.CoChanges)
	assert.Equal(t, 2, ba.Changes)
	assert.Equal(t, 1.0, ba.Coupling)

	ca := got[key{"c.py", "a.py"}]
	assert.Equal(t, 1.0, ca.Coupling)
	ac := got[key{"a.py", "c.py"}]
	assert.InDelta(t, 1.0/3.0, ac.Coupling, 1e-9)

	assert.Equal(t, "b.py", co[0].Primary, "ties on coupling favor more co-changes")
	assert.Equal(t, "c.py", co[1].Primary)
	assert.Equal(t, "a.py", co[3].Primary, "lowest coupling last")
	assert.Equal(t, "c.py", co[3].Secondary)
}

func TestCoChangesIgnoresDuplicateRows(t *testing.T) {
	table := schema.LogTable{Rows: []schema.LogRow{
		row("r1", "a", "x.go", day),
		row("r1", "a", "x.go", day),
		row("r1", "a", "y.go", day),
	}}
	co := CoChanges(table)
	require.Len(t, co, 2)
	for _, c := range co {
		assert.Equal(t, 1, c.CoChanges)
		assert.Equal(t, 1, c.Changes)
	}
}

func TestMassChangesets(t *testing.T) {
	table := sampleTable()
	mass := MassChangesets(table, 1)
	require.Len(t, mass, 3)
	assert.Equal(t, schema.MassChangeset{Revision: "r1", PathCount: 2, Author: "alice", Message: "msg r1"}, mass[0])
	assert.Equal(t, "r2", mass[1].Revision)
	assert.Equal(t, "r3", mass[2].Revision)

	assert.Empty(t, MassChangesets(table, 2), "the threshold is exclusive")
}
