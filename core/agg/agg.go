// Package agg has aggregations over the canonical log table.
package agg

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/codemetrics/codemetrics/internal/contract"
	"github.com/codemetrics/codemetrics/schema"
)

// Filter returns a copy of table without the rows whose path matches excludes.
// Rows without path are kept since they describe whole revisions.
func Filter(table schema.LogTable, excludes []string) schema.LogTable {
	if len(excludes) == 0 {
		return table
	}
	out := table
	out.Rows = make([]schema.LogRow, 0, len(table.Rows))
	for _, r := range table.Rows {
		if r.Path != nil && contract.ShouldIgnore(*r.Path, excludes) {
			continue
		}
		out.Rows = append(out.Rows, r)
	}
	return out
}

// revisionPath is the natural key of a log row.
type revisionPath struct {
	revision string
	path     string
}

// distinctChanges returns the distinct (revision, path) pairs of rows with a path,
// in order of first appearance.
func distinctChanges(table schema.LogTable) []revisionPath {
	seen := make(map[revisionPath]struct{}, len(table.Rows))
	out := make([]revisionPath, 0, len(table.Rows))
	for _, r := range table.Rows {
		if r.Path == nil {
			continue
		}
		key := revisionPath{r.Revision, *r.Path}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}

// Ages returns, for each (path, kind), the date of the last change and its
// age in fractional days relative to now. Results are sorted by path then kind.
func Ages(table schema.LogTable, now time.Time) []schema.AgeResult {
	type key struct {
		path string
		kind schema.Kind
	}
	latest := make(map[key]time.Time)
	for _, r := range table.Rows {
		if r.Path == nil {
			continue
		}
		k := key{*r.Path, r.Kind}
		if d, ok := latest[k]; !ok || r.Date.After(d) {
			latest[k] = r.Date
		}
	}

	results := make([]schema.AgeResult, 0, len(latest))
	for k, d := range latest {
		results = append(results, schema.AgeResult{
			Path:    k.path,
			Kind:    k.kind,
			Date:    d,
			AgeDays: now.Sub(d).Hours() / 24,
		})
	}
	slices.SortFunc(results, func(a, b schema.AgeResult) int {
		return cmp.Or(cmp.Compare(a.Path, b.Path), cmp.Compare(a.Kind, b.Kind))
	})
	return results
}

// HotSpots crosses change counts from the log with lines of code from cloc.
// Both inputs are merged on path; a path missing on one side counts as zero.
// Complexity and changes are each min-max scaled then squared, and the score
// is their sum, in [0, 2]. Results are sorted by score, highest first.
func HotSpots(table schema.LogTable, loc []schema.ClocEntry) []schema.HotSpotResult {
	byPath := make(map[string]*schema.HotSpotResult)
	get := func(path string) *schema.HotSpotResult {
		hs, ok := byPath[path]
		if !ok {
			hs = &schema.HotSpotResult{Path: path}
			byPath[path] = hs
		}
		return hs
	}

	for _, e := range loc {
		hs := get(e.Path)
		hs.Language = e.Language
		hs.Complexity += float64(e.Code)
	}
	for _, c := range distinctChanges(table) {
		get(c.path).Changes++
	}

	results := make([]schema.HotSpotResult, 0, len(byPath))
	for _, hs := range byPath {
		results = append(results, *hs)
	}

	complexity := minMaxScaler(results, func(r schema.HotSpotResult) float64 { return r.Complexity })
	changes := minMaxScaler(results, func(r schema.HotSpotResult) float64 { return r.Changes })
	for i := range results {
		results[i].ComplexityScore = math.Pow(complexity(results[i].Complexity), 2)
		results[i].ChangesScore = math.Pow(changes(results[i].Changes), 2)
		results[i].Score = results[i].ComplexityScore + results[i].ChangesScore
	}

	slices.SortFunc(results, func(a, b schema.HotSpotResult) int {
		return cmp.Or(cmp.Compare(b.Score, a.Score), cmp.Compare(a.Path, b.Path))
	})
	return results
}

// minMaxScaler returns a function mapping values of field to [0, 1].
// A constant column scales to 0.
func minMaxScaler[T any](rows []T, field func(T) float64) func(float64) float64 {
	if len(rows) == 0 {
		return func(float64) float64 { return 0 }
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, r := range rows {
		v := field(r)
		lo = min(lo, v)
		hi = max(hi, v)
	}
	span := hi - lo
	return func(v float64) float64 {
		if span == 0 {
			return 0
		}
		return (v - lo) / span
	}
}

// CoChanges returns how often each pair of paths changes in the same revision.
// Coupling is the ratio of revisions changing both primary and secondary to
// revisions changing primary. Results are sorted by coupling, highest first.
func CoChanges(table schema.LogTable) []schema.CoChangeResult {
	revisions := make(map[string][]string)
	var order []string
	for _, c := range distinctChanges(table) {
		if _, ok := revisions[c.revision]; !ok {
			order = append(order, c.revision)
		}
		revisions[c.revision] = append(revisions[c.revision], c.path)
	}

	type pair struct{ primary, secondary string }
	changes := make(map[string]int)
	cochanges := make(map[pair]int)
	for _, rev := range order {
		paths := revisions[rev]
		for _, p := range paths {
			changes[p]++
			for _, q := range paths {
				if p != q {
					cochanges[pair{p, q}]++
				}
			}
		}
	}

	results := make([]schema.CoChangeResult, 0, len(cochanges))
	for k, n := range cochanges {
		results = append(results, schema.CoChangeResult{
			Primary:   k.primary,
			Secondary: k.secondary,
			CoChanges: n,
			Changes:   changes[k.primary],
			Coupling:  float64(n) / float64(changes[k.primary]),
		})
	}
	slices.SortFunc(results, func(a, b schema.CoChangeResult) int {
		return cmp.Or(
			cmp.Compare(b.Coupling, a.Coupling),
			cmp.Compare(b.CoChanges, a.CoChanges),
			cmp.Compare(a.Primary, b.Primary),
			cmp.Compare(a.Secondary, b.Secondary),
		)
	})
	return results
}

// MassChangesets returns the revisions that changed more than minChanges paths,
// in log order, with the author and message of their first row.
func MassChangesets(table schema.LogTable, minChanges int) []schema.MassChangeset {
	counts := make(map[string]*schema.MassChangeset)
	var order []string
	for _, r := range table.Rows {
		mc, ok := counts[r.Revision]
		if !ok {
			mc = &schema.MassChangeset{Revision: r.Revision, Author: r.Author, Message: r.Message}
			counts[r.Revision] = mc
			order = append(order, r.Revision)
		}
		if r.Path != nil {
			mc.PathCount++
		}
	}

	var results []schema.MassChangeset
	for _, rev := range order {
		if mc := counts[rev]; mc.PathCount > minChanges {
			results = append(results, *mc)
		}
	}
	return results
}
