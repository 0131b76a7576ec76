package output

import (
	"os"
	"strconv"

	"golang.org/x/term"
)

// terminalWidth returns the width of stdout, preferring $COLUMNS
func terminalWidth() int {
	if cols := os.Getenv("COLUMNS"); cols != "" {
		if width, err := strconv.Atoi(cols); err == nil && width > 0 {
			return width
		}
	}

	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}

	return defaultWidth
}
