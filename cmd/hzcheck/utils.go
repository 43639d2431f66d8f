package hzcheck

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// pickString returns the CLI value when set, then the config value, then def.
func pickString(cli string, file *string, def string) string {
	if cli != "" {
		return cli
	}
	if file != nil && *file != "" {
		return *file
	}
	return def
}

// splitList splits a comma-separated flag value, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// newProgressBar returns a progress callback drawing a single-line bar on w.
// It redraws on the first file, every tenth file and the last one.
func newProgressBar(w io.Writer, width int) func(done, total int, path string) {
	return func(done, total int, _ string) {
		if total <= 0 || (done != 1 && done%10 != 0 && done != total) {
			return
		}
		filled := done * width / total
		fmt.Fprintf(w, "\r[%s%s] %d/%d %3d%%",
			strings.Repeat("#", filled), strings.Repeat(".", width-filled), done, total, done*100/total)
	}
}
