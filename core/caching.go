package core

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/codemetrics/codemetrics/core/scm"
	"github.com/codemetrics/codemetrics/internal/contract"
	"github.com/codemetrics/codemetrics/schema"
)

// currentCacheVersion defines the version of the cached log encoding
const currentCacheVersion = 1

// cacheTTL bounds how long a cached log is trusted
const cacheTTL = 7 * 24 * time.Hour

// cachedLog returns the log for cfg, going through the log store when one is configured.
func cachedLog(ctx context.Context, cfg *contract.Config, collector scm.Collector, opts scm.LogOptions, mgr contract.CacheManager) (schema.LogTable, error) {
	var store contract.CacheStore
	if mgr != nil {
		store = mgr.GetLogStore()
	}
	if store == nil {
		// Fallback to direct computation
		return collector.GetLog(ctx, opts)
	}

	key := generateCacheKey(cfg, collector.Backend())

	// Check for cache hit
	if table, ok := checkCacheHit(store, key); ok {
		contract.Logger.WithField("key", key[:12]).Debug("log cache hit")
		return table, nil
	}

	// Cache miss: compute and store
	return computeAndStore(ctx, collector, opts, store, key)
}

// checkCacheHit attempts to retrieve and validate a cached log
func checkCacheHit(store contract.CacheStore, key string) (schema.LogTable, bool) {
	data, version, ts, err := store.Get(key)
	if err != nil {
		return schema.LogTable{}, false // Cache miss
	}

	// Validate version and staleness
	if version != currentCacheVersion || time.Since(time.Unix(ts, 0)) > cacheTTL {
		return schema.LogTable{}, false
	}
	var table schema.LogTable
	if err := json.Unmarshal(data, &table); err != nil {
		contract.Logger.WithError(err).Warn("discarding unreadable log cache entry")
		return schema.LogTable{}, false
	}
	return table, true
}

// computeAndStore collects the log and stores it in cache
func computeAndStore(ctx context.Context, collector scm.Collector, opts scm.LogOptions, store contract.CacheStore, key string) (schema.LogTable, error) {
	table, err := collector.GetLog(ctx, opts)
	if err != nil {
		return schema.LogTable{}, err
	}

	if data, err := json.Marshal(table); err == nil {
		if err := store.Set(key, data, currentCacheVersion, time.Now().Unix()); err != nil {
			contract.LogWarn("Failed to store log in cache", err)
		}
	}
	return table, nil
}

// generateCacheKey creates a unique key based on the log request.
// The upper bound is truncated to the cache granularity so that open-ended
// requests reuse a cached log until the next hour.
func generateCacheKey(cfg *contract.Config, backend schema.ScmBackend) string {
	key := fmt.Sprintf("%s:%s:%s:%d:%d:%s:%s",
		backend,
		cfg.RepoPath,
		cfg.Path,
		cfg.After.Unix(),
		cfg.GetCacheBeforeTime().Unix(),
		cfg.ClientFor(backend),
		cfg.RelativeURL,
	)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(key)))
}
