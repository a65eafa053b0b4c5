package outwriter

import (
	"os"

	"github.com/codemetrics/codemetrics/internal/contract"
	"golang.org/x/term"
)

// Bounds of the path column in text tables.
const (
	minPathWidth = 15
	maxPathWidth = 70
)

// noPathLimit disables path truncation.
const noPathLimit = 0

// getMaxTablePathWidth calculates the maximum width for paths in table output
// based on terminal width and the width taken by the other columns.
// Tables written to a file or a pipe keep full paths unless a width is forced.
func getMaxTablePathWidth(cfg *contract.Config, otherColumns int) int {
	if cfg.OutputFile != "" {
		return noPathLimit
	}

	// Check for absolute width override from flag/env
	termWidth := cfg.Width
	if termWidth <= 0 {
		fd := int(os.Stdout.Fd())
		if !term.IsTerminal(fd) {
			return noPathLimit
		}
		detectedWidth, _, err := term.GetSize(fd)
		if err != nil || detectedWidth <= 0 {
			// Conservative default for narrow terminals
			termWidth = 80
		} else {
			termWidth = detectedWidth
		}
	}

	// Reserve generous space for table borders, separators, and padding
	available := termWidth - otherColumns - 20
	return min(max(available, minPathWidth), maxPathWidth)
}
