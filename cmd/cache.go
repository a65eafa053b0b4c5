package cmd

import (
	"fmt"
	"os"

	"github.com/codemetrics/codemetrics/internal/contract"
	"github.com/codemetrics/codemetrics/internal/iocache"
	"github.com/codemetrics/codemetrics/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// loadCacheConfig reads the cache backend settings without the full shared setup.
func loadCacheConfig() error {
	if err := readConfigFile(); err != nil {
		return err
	}

	backend := schema.DatabaseBackend(viper.GetString("cache-backend"))
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", backend)
	}
	connStr := viper.GetString("cache-db-connect")

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}
	if err := contract.SetLogLevel(viper.GetString("log-level")); err != nil {
		return err
	}

	cfg.CacheBackend = backend
	cfg.CacheDBConnect = connStr
	return nil
}

// cacheSetupWrapper loads cache settings and opens the cache store.
func cacheSetupWrapper(_ *cobra.Command, _ []string) error {
	if err := loadCacheConfig(); err != nil {
		return err
	}
	if err := iocache.InitStores(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	return nil
}

// cacheMigrateSetupWrapper loads cache settings without opening the store,
// allowing migrations to run on a fresh database.
func cacheMigrateSetupWrapper(_ *cobra.Command, _ []string) error {
	if err := loadCacheConfig(); err != nil {
		return err
	}
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.CacheDBConnect == "" {
		cfg.CacheDBConnect = contract.GetCacheDBFilePath()
	}
	return nil
}

// cacheCmd focused on cache management.
//
// Note: Cache subcommands use minimal initialization instead of the full
// sharedSetup used by report commands. This avoids working copy detection
// and date parsing for simple cache operations.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the log cache (improves performance)",
	Long: `Manage the cache of collected logs that speeds up repeated reports.

Collecting a log runs git or svn, which is slow on large histories. Collected
logs are cached for a week, keyed by working copy, path, date range and client.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status  - Show cache statistics and connection info
  clear   - Remove all cached data
  migrate - Run cache schema migrations

Examples:
  # Check cache status
  codemetrics cache status

  # Clear cache after history was rewritten
  codemetrics cache clear`,
}

// cacheClearCmd clears the cache.
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached logs",
	Long: `Delete all cached logs from the configured backend.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the cache and migration tables

Examples:
  # Clear SQLite cache (default)
  codemetrics cache clear

  # Clear MySQL cache (set connection string via env variable)
  CODEMETRICS_CACHE_BACKEND=mysql CODEMETRICS_CACHE_DB_CONNECT="..." codemetrics cache clear`,
	PreRunE: cacheMigrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		dbFilePath := cfg.CacheDBConnect
		if cfg.CacheBackend != schema.SQLiteBackend {
			dbFilePath = ""
		}
		if err := iocache.ClearCache(cfg.CacheBackend, dbFilePath, cfg.CacheDBConnect); err != nil {
			contract.LogFatal("Failed to clear cache", err)
		}
		fmt.Println("Cache cleared successfully.")
	},
}

// cacheStatusCmd shows cache status.
var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display cache statistics and connection details",
	Long: `Show detailed information about the log cache.

Displays:
- Backend type and connection status
- Schema version applied by cache migrate
- Total number of cached logs
- Last and oldest cache entry timestamps
- Cache table size

Examples:
  codemetrics cache status`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := iocache.Manager.GetLogStore()
		if store == nil {
			contract.LogFatal("Failed to get cache status", fmt.Errorf("cache is not initialized"))
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get cache status", err)
		}
		iocache.PrintCacheStatus(os.Stdout, status)
	},
}

// cacheMigrateCmd runs database migrations for the log cache.
var cacheMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run cache schema migrations (upgrades/downgrades)",
	Long: `Manage schema versions of the log cache.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  codemetrics cache migrate

  # Migrate to specific version
  codemetrics cache migrate --target-version 1

  # Roll back all migrations
  codemetrics cache migrate --target-version 0`,
	PreRunE: cacheMigrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		res, err := iocache.Migrate(cfg.CacheBackend, cfg.CacheDBConnect, targetVersion)
		if err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
		if !res.Changed {
			fmt.Printf("Cache schema is already at version %d.\n", res.To)
			return
		}
		fmt.Printf("Migrated cache schema from version %d to %d.\n", res.From, res.To)
	},
}
