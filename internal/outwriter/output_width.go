package outwriter

import (
	"os"

	"github.com/huangsam/tagchurn/internal/contract"
	"golang.org/x/term"
)

// GetMaxTableLabelWidth calculates the maximum width for tag labels in table
// output based on terminal width and the enabled columns.
func GetMaxTableLabelWidth(cfg *contract.Config) int {
	termWidth := cfg.Width
	if termWidth == 0 {
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	baseWidth := 22 // Commit + Churn with borders/padding
	if cfg.Split {
		baseWidth += 20 // Added + Removed
	}
	baseWidth += 10 // Table borders and separators

	available := termWidth - baseWidth
	if available < 20 {
		return 20
	}
	if available > 100 {
		return 100
	}
	return available
}
