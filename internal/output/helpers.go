package output

import (
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ProgressBar draws width cells, the first current/total of them filled.
func ProgressBar(current, total int64, width int) string {
	if width <= 0 {
		width = 30
	}
	if total <= 0 {
		total = 1
	}
	current = max(0, min(current, total))
	filled := int(current * int64(width) / total)
	return strings.Repeat(StyleSymbols["hline"], filled) + strings.Repeat(StyleSymbols["space"], width-filled)
}

// CeilPercent is the completed share of total rounded up, capped at 100.
func CeilPercent(current, total int64) int64 {
	if total <= 0 {
		return 100
	}
	current = max(0, min(current, total))
	return (current*100 + total - 1) / total
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return 0
	}
	return width
}
