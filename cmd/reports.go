package cmd

import (
	"github.com/codemetrics/codemetrics/core"
	"github.com/codemetrics/codemetrics/internal/contract"
	"github.com/spf13/cobra"
)

// runReport adapts a core executor to a cobra Run function.
func runReport(execute core.ExecutorFunc, failure string) func(*cobra.Command, []string) {
	return func(_ *cobra.Command, _ []string) {
		if err := execute(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal(failure, err)
		}
	}
}

// logCmd prints the canonical log table.
var logCmd = &cobra.Command{
	Use:   "log [repo-path]",
	Short: "Print the canonical change log of a working copy.",
	Long: `Collect the history of a git or svn working copy as one table with one row
per changed path per revision.

Columns: revision, author, date, path, message, kind, action, textmods, propmods,
copyfromrev, copyfrompath, added, removed. Git rows carry line counts, svn rows carry
actions and copy sources. Values a backend cannot know are empty (CSV) or null (JSON).

Examples:
  # Last year of history of the current working copy
  codemetrics log

  # One directory since a given date, as CSV
  codemetrics log --path src --after 2024-01-01T00:00:00Z --output csv

  # Export to Parquet for pandas or DuckDB
  codemetrics log --output parquet --output-file log.parquet`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run:     runReport(core.ExecuteLog, "Cannot collect log"),
}

// agesCmd prints the age of each path.
var agesCmd = &cobra.Command{
	Use:   "ages [repo-path]",
	Short: "Show how long ago each path last changed.",
	Long: `Report the date of the last change of each path and its age in days.

Examples:
  # Ages over the last year
  codemetrics ages

  # Ages of the last five years, ignoring tests
  codemetrics ages --after "5 years ago" --exclude tests/`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run:     runReport(core.ExecuteAges, "Cannot compute ages"),
}

// hotspotsCmd ranks paths by change frequency and size.
var hotspotsCmd = &cobra.Command{
	Use:   "hotspots [repo-path]",
	Short: "Rank paths by change frequency crossed with lines of code.",
	Long: `Find the paths that are both large and frequently changed.

Changes are counted from the log and lines of code come from cloc. Both are
min-max scaled then squared, and the score is their sum (0 to 2).

Requires cloc in PATH or --cloc-client.

Examples:
  # Top 25 hot spots
  codemetrics hotspots

  # Top 10 as JSON
  codemetrics hotspots --limit 10 --output json`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run:     runReport(core.ExecuteHotSpots, "Cannot compute hot spots"),
}

// cochangesCmd prints coupled paths.
var cochangesCmd = &cobra.Command{
	Use:   "cochanges [repo-path]",
	Short: "Show pairs of paths that change in the same revisions.",
	Long: `Report, for each pair of paths, how often the second changes when the first does.

Coupling is the number of shared revisions divided by the number of revisions
changing the primary path.

Examples:
  codemetrics cochanges --limit 50`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run:     runReport(core.ExecuteCoChanges, "Cannot compute co-changes"),
}

// changesetsCmd prints mass changesets.
var changesetsCmd = &cobra.Command{
	Use:   "changesets [repo-path]",
	Short: "Show revisions that touched many paths at once.",
	Long: `Report revisions changing more than --min-changes paths, such as reformatting
or mass renames, which usually deserve to be excluded from other reports.

Examples:
  codemetrics changesets --min-changes 50`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run:     runReport(core.ExecuteMassChangesets, "Cannot compute mass changesets"),
}

// locCmd prints line counts.
var locCmd = &cobra.Command{
	Use:   "loc [repo-path]",
	Short: "Show per-file line counts from cloc.",
	Long: `Run cloc on the working copy and print blank, comment and code lines per file.

Examples:
  codemetrics loc --path src --output csv`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run:     runReport(core.ExecuteLoc, "Cannot count lines"),
}

// downloadCmd prints files at a revision.
var downloadCmd = &cobra.Command{
	Use:   "download <revision> <path>...",
	Short: "Print the content of files at a given revision.",
	Long: `Fetch files as they were at a revision, with git show or svn cat.

Paths are relative to the working copy in the current directory. Files that
cannot be fetched, for instance because they were deleted, show the error instead.

Examples:
  codemetrics download HEAD~3 main.go
  codemetrics download 1018 trunk/a.py trunk/b.py --output json`,
	Args: cobra.MinimumNArgs(2),
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return sharedSetup(rootCtx, cmd, nil)
	},
	Run: func(_ *cobra.Command, args []string) {
		if err := core.ExecuteDownload(rootCtx, cfg, args[0], args[1:]); err != nil {
			contract.LogFatal("Cannot download files", err)
		}
	},
}
