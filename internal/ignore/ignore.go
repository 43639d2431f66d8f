// Package ignore reads .hzcheckignore files: one glob per line, matched
// against slash-separated paths relative to the scan root.
package ignore

import (
	"bufio"
	"os"
	"strings"

	doublestar "github.com/bmatcuk/doublestar/v4"
)

// FileName is the ignore file looked up in the scan root.
const FileName = ".hzcheckignore"

// Matcher holds compiled ignore rules. The zero value matches nothing.
type Matcher struct {
	globs []string
}

// Load parses an ignore file. A missing file yields an empty Matcher and the
// open error, which callers are free to discard.
func Load(path string) (Matcher, error) {
	f, err := os.Open(path)
	if err != nil {
		return Matcher{}, err
	}
	defer func() { _ = f.Close() }()

	var m Matcher
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		m.add(sc.Text())
	}
	return m, sc.Err()
}

// Parse builds a Matcher from in-memory lines.
func Parse(lines ...string) Matcher {
	var m Matcher
	for _, l := range lines {
		m.add(l)
	}
	return m
}

func (m *Matcher) add(line string) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return
	}
	line = strings.ReplaceAll(line, "\\", "/")
	switch {
	case strings.HasSuffix(line, "/"):
		// directory rule, anywhere in the tree unless anchored
		dir := strings.TrimSuffix(line, "/")
		if strings.HasPrefix(dir, "/") {
			m.globs = append(m.globs, strings.TrimPrefix(dir, "/")+"/**")
		} else {
			m.globs = append(m.globs, "**/"+dir+"/**")
		}
	case strings.HasPrefix(line, "/"):
		m.globs = append(m.globs, strings.TrimPrefix(line, "/"))
	case strings.Contains(line, "/"):
		m.globs = append(m.globs, line, line+"/**")
	default:
		// bare names match at any depth
		m.globs = append(m.globs, "**/"+line)
	}
}

// Match reports whether rel is ignored.
func (m Matcher) Match(rel string) bool {
	rel = strings.TrimPrefix(strings.ReplaceAll(rel, "\\", "/"), "./")
	for _, g := range m.globs {
		if ok, _ := doublestar.Match(g, rel); ok {
			return true
		}
	}
	return false
}
