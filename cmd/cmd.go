// Package cmd defines the command-line interface for codemetrics.
package cmd

import (
	"github.com/codemetrics/codemetrics/internal/contract"
	"github.com/codemetrics/codemetrics/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(agesCmd)
	rootCmd.AddCommand(hotspotsCmd)
	rootCmd.AddCommand(cochangesCmd)
	rootCmd.AddCommand(changesetsCmd)
	rootCmd.AddCommand(locCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(mcpCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)
	cacheCmd.AddCommand(cacheMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("backend", string(schema.AutoScm), "Source control backend: auto or git or svn")
	rootCmd.PersistentFlags().String("git-client", contract.DefaultGitClient, "Git executable to run")
	rootCmd.PersistentFlags().String("svn-client", contract.DefaultSvnClient, "Subversion executable to run")
	rootCmd.PersistentFlags().String("cloc-client", contract.DefaultClocClient, "cloc executable to run")
	rootCmd.PersistentFlags().String("after", "", "Only changes after this date, ISO8601 with timezone or time ago (default: one year before --before)")
	rootCmd.PersistentFlags().String("before", "", "Only changes before this date, ISO8601 with timezone or time ago (default: now)")
	rootCmd.PersistentFlags().StringP("path", "p", ".", "Path inside the working copy to collect the log of")
	rootCmd.PersistentFlags().String("relative-url", "", "Subversion relative URL of the working copy (default: resolved with svn info)")
	rootCmd.PersistentFlags().Bool("progress", false, "Show a progress bar while collecting the log")
	rootCmd.PersistentFlags().String("exclude", "", "Comma-separated list of path prefixes or patterns to ignore")
	rootCmd.PersistentFlags().IntP("limit", "l", contract.DefaultResultLimit, "Number of results to display for ranked reports")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent workers")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Cache backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("log-level", "warning", "Log level: debug or info or warning or error")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of changesetsCmd to Viper
	changesetsCmd.Flags().Int("min-changes", contract.DefaultMinChanges, "Report revisions changing more than this many paths")
	if err := viper.BindPFlags(changesetsCmd.Flags()); err != nil {
		contract.LogFatal("Error binding changesets flags", err)
	}

	// Bind all flags of cacheMigrateCmd to Viper
	cacheMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(cacheMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding cache migrate flags", err)
	}
}
