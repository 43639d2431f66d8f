package scanner

import (
	"fmt"
	"strings"

	"github.com/acarl005/stripansi"
)

const (
	markerMatch = ">>> "
	markerOther = "    "
)

// BuildContext renders the window of lines around lineNumber (1-based),
// window lines on each side, clamped to the file. The matching line is
// prefixed with ">>> " and every line carries its number.
func BuildContext(lines []string, lineNumber, window int) string {
	if window < 0 {
		window = 0
	}
	start := max(0, lineNumber-window-1)
	end := min(len(lines), lineNumber+window)
	var b strings.Builder
	for i := start; i < end; i++ {
		if i > start {
			b.WriteByte('\n')
		}
		marker := markerOther
		if i+1 == lineNumber {
			marker = markerMatch
		}
		fmt.Fprintf(&b, "%s%d: %s", marker, i+1, stripansi.Strip(strings.TrimSpace(lines[i])))
	}
	return b.String()
}
