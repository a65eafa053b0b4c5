// Package core has the orchestration shared by the CLI and the MCP server:
// collector selection, cached log retrieval and report execution.
package core

import (
	"context"
	"errors"
	"time"

	"github.com/codemetrics/codemetrics/core/agg"
	"github.com/codemetrics/codemetrics/core/cloc"
	"github.com/codemetrics/codemetrics/core/scm"
	"github.com/codemetrics/codemetrics/internal/contract"
	"github.com/codemetrics/codemetrics/internal/outwriter"
	"github.com/codemetrics/codemetrics/schema"
)

// ExecutorFunc defines the function signature for executing report commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error

// ExecuteLog collects the canonical log and prints it.
func ExecuteLog(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	table, duration, err := GetLogResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.WriteLog(table, cfg, duration)
}

// ExecuteAges prints the age of the last change of each path.
func ExecuteAges(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	ages, duration, err := GetAgesResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.WriteAges(ages, cfg, duration)
}

// ExecuteHotSpots prints paths ranked by change frequency and size.
func ExecuteHotSpots(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	spots, duration, err := GetHotSpotsResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.WriteHotSpots(spots, cfg, duration)
}

// ExecuteCoChanges prints pairs of paths that change together.
func ExecuteCoChanges(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	co, duration, err := GetCoChangesResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.WriteCoChanges(co, cfg, duration)
}

// ExecuteMassChangesets prints the revisions touching many paths at once.
func ExecuteMassChangesets(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	mass, duration, err := GetMassChangesetsResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.WriteChangesets(mass, cfg, duration)
}

// ExecuteLoc prints the cloc line counts of the working copy.
func ExecuteLoc(ctx context.Context, cfg *contract.Config, _ contract.CacheManager) error {
	loc, duration, err := GetLocResults(ctx, cfg)
	if err != nil {
		return err
	}
	return outwriter.WriteLoc(loc, cfg, duration)
}

// ExecuteDownload prints the content of paths at revision.
func ExecuteDownload(ctx context.Context, cfg *contract.Config, revision string, paths []string) error {
	results, duration, err := GetDownloadResults(ctx, cfg, revision, paths)
	if err != nil {
		return err
	}
	return outwriter.WriteDownloads(results, cfg, duration)
}

// GetLogResults returns the canonical log of cfg.Path with excluded paths filtered out.
func GetLogResults(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (schema.LogTable, time.Duration, error) {
	start := time.Now()
	collector, err := newCollector(ctx, cfg)
	if err != nil {
		return schema.LogTable{}, 0, err
	}
	opts := scm.LogOptions{
		Path:        cfg.Path,
		After:       cfg.After,
		Before:      cfg.Before,
		RelativeURL: cfg.RelativeURL,
		Progress:    progressSinkFrom(ctx, cfg),
	}
	table, err := cachedLog(ctx, cfg, collector, opts, mgr)
	if err != nil {
		return schema.LogTable{}, 0, err
	}
	table = agg.Filter(table, cfg.Excludes)
	contract.Logger.WithField("rows", table.Len()).Debugf("collected %s log", collector.Backend())
	return table, time.Since(start), nil
}

// GetAgesResults returns the age of the last change of each (path, kind).
func GetAgesResults(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) ([]schema.AgeResult, time.Duration, error) {
	start := time.Now()
	table, _, err := GetLogResults(ctx, cfg, mgr)
	if err != nil {
		return nil, 0, err
	}
	return agg.Ages(table, contract.Now()), time.Since(start), nil
}

// GetHotSpotsResults crosses the log with cloc counts and returns the top cfg.ResultLimit paths.
func GetHotSpotsResults(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) ([]schema.HotSpotResult, time.Duration, error) {
	start := time.Now()
	table, _, err := GetLogResults(ctx, cfg, mgr)
	if err != nil {
		return nil, 0, err
	}
	loc, _, err := GetLocResults(ctx, cfg)
	if err != nil {
		return nil, 0, err
	}
	return limit(agg.HotSpots(table, loc), cfg.ResultLimit), time.Since(start), nil
}

// GetCoChangesResults returns the top cfg.ResultLimit coupled path pairs.
func GetCoChangesResults(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) ([]schema.CoChangeResult, time.Duration, error) {
	start := time.Now()
	table, _, err := GetLogResults(ctx, cfg, mgr)
	if err != nil {
		return nil, 0, err
	}
	return limit(agg.CoChanges(table), cfg.ResultLimit), time.Since(start), nil
}

// GetMassChangesetsResults returns revisions that changed more than cfg.MinChanges paths.
func GetMassChangesetsResults(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) ([]schema.MassChangeset, time.Duration, error) {
	start := time.Now()
	table, _, err := GetLogResults(ctx, cfg, mgr)
	if err != nil {
		return nil, 0, err
	}
	return limit(agg.MassChangesets(table, cfg.MinChanges), cfg.ResultLimit), time.Since(start), nil
}

// GetLocResults runs cloc on cfg.Path and drops excluded paths.
func GetLocResults(ctx context.Context, cfg *contract.Config) ([]schema.ClocEntry, time.Duration, error) {
	start := time.Now()
	entries, err := cloc.Get(ctx, runnerFrom(ctx), cfg.RepoPath, cfg.Path, cfg.ClocClient)
	if err != nil {
		return nil, 0, err
	}
	kept := entries[:0]
	for _, e := range entries {
		if !contract.ShouldIgnore(e.Path, cfg.Excludes) {
			kept = append(kept, e)
		}
	}
	return kept, time.Since(start), nil
}

// GetDownloadResults fetches paths at revision with cfg.Workers concurrent downloads.
func GetDownloadResults(ctx context.Context, cfg *contract.Config, revision string, paths []string) ([]schema.DownloadResult, time.Duration, error) {
	start := time.Now()
	if revision == "" {
		return nil, 0, errors.New("a revision is required")
	}
	if len(paths) == 0 {
		return nil, 0, errors.New("at least one path is required")
	}
	backend, err := backendFor(cfg)
	if err != nil {
		return nil, 0, err
	}
	d, err := scm.NewDownloader(backend, scmOptions(ctx, cfg, backend))
	if err != nil {
		return nil, 0, err
	}
	rows := make([]schema.LogRow, len(paths))
	for i, p := range paths {
		rows[i] = schema.LogRow{Revision: revision, Path: &p}
	}
	results, err := scm.DownloadAll(ctx, d, rows, cfg.Workers)
	if err != nil {
		return nil, 0, err
	}
	return results, time.Since(start), nil
}

// newCollector builds the collector for the configured backend.
func newCollector(ctx context.Context, cfg *contract.Config) (scm.Collector, error) {
	backend, err := backendFor(cfg)
	if err != nil {
		return nil, err
	}
	return scm.New(backend, scmOptions(ctx, cfg, backend))
}

// backendFor resolves an auto backend from the working copy so that the
// matching client executable is picked.
func backendFor(cfg *contract.Config) (schema.ScmBackend, error) {
	if cfg.Backend != "" && cfg.Backend != schema.AutoScm {
		return cfg.Backend, nil
	}
	return contract.DetectBackend(cfg.RepoPath)
}

func scmOptions(ctx context.Context, cfg *contract.Config, backend schema.ScmBackend) scm.Options {
	return scm.Options{
		Client: cfg.ClientFor(backend),
		Cwd:    cfg.RepoPath,
		Runner: runnerFrom(ctx),
		Logger: contract.Logger,
		Now:    contract.Now,
	}
}

// limit truncates results to at most n items.
func limit[T any](results []T, n int) []T {
	if n > 0 && len(results) > n {
		return results[:n]
	}
	return results
}
