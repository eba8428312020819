package outwriter

import (
	"os"

	"github.com/huangsam/loadcompare/internal/contract"
	"golang.org/x/term"
)

const (
	defaultTermWidth = 80 // Conservative default for narrow terminals and CI
	minLabelWidth    = 12
	maxLabelWidth    = 60
)

// terminalWidth returns the width override or the detected terminal width.
func terminalWidth(cfg *contract.Config) int {
	if cfg.Width > 0 {
		return cfg.Width
	}
	detected, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || detected <= 0 {
		return defaultTermWidth
	}
	return detected
}

// getMaxLabelWidth calculates the maximum width of the label column (test condition
// or chart label) given how many numeric columns share the row.
func getMaxLabelWidth(cfg *contract.Config, numericColumns int) int {
	// Every numeric column needs roughly 12 cells with padding and separators
	reserved := numericColumns*12 + 10

	available := terminalWidth(cfg) - reserved
	if available < minLabelWidth {
		return minLabelWidth
	}
	if available > maxLabelWidth {
		return maxLabelWidth
	}
	return available
}
