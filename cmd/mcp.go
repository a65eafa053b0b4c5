package cmd

import (
	"github.com/codemetrics/codemetrics/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp [repo-path]",
	Short: "Start the codemetrics MCP server",
	Long: `Launch an MCP server on stdio that lets AI agents collect logs and reports via standard tools.

Tools: get_log, get_ages, get_hot_spots, get_co_changes, get_mass_changesets, get_loc, download_files.
Flags and config set the defaults of every tool call. Progress bars are never drawn in this mode.`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, cacheManager)
	},
}
