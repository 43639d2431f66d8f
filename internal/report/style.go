package report

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/hazteunsitio/hz-backdoor-monitor/internal/types"
)

// ANSI-256 colours per risk level; also used by the HTML report as hex.
var (
	riskColors = map[types.RiskLevel]lipgloss.Color{
		types.RiskCritical: lipgloss.Color("196"),
		types.RiskHigh:     lipgloss.Color("208"),
		types.RiskMedium:   lipgloss.Color("214"),
		types.RiskLow:      lipgloss.Color("75"),
		types.RiskInfo:     lipgloss.Color("241"),
	}

	titleStyle = lipgloss.NewStyle().Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

const highlightStyle = "monokai"

func riskStyle(lvl types.RiskLevel) lipgloss.Style {
	s := lipgloss.NewStyle().Foreground(riskColors[lvl])
	if lvl >= types.RiskHigh {
		s = s.Bold(true)
	}
	return s
}

func colorRisk(lvl types.RiskLevel, noColor bool) string {
	if noColor {
		return lvl.String()
	}
	return riskStyle(lvl).Render(lvl.String())
}

func title(s string, noColor bool) string {
	if noColor {
		return s
	}
	return titleStyle.Render(s)
}

func dim(s string, noColor bool) string {
	if noColor {
		return s
	}
	return dimStyle.Render(s)
}

func lexerFor(filename string) chroma.Lexer {
	lexer := lexers.Match(filepath.Base(filename))
	if lexer == nil {
		if ext := filepath.Ext(filename); ext != "" {
			lexer = lexers.Match("file" + ext)
		}
	}
	if lexer == nil {
		return nil
	}
	return chroma.Coalesce(lexer)
}

func chromaStyle() *chroma.Style {
	style := styles.Get(highlightStyle)
	if style == nil {
		style = styles.Fallback
	}
	return style
}

// highlightLine colours a single line of source for a 256-colour terminal.
// Unknown file types and lexer failures return the line unchanged.
func highlightLine(line, filename string) string {
	lexer := lexerFor(filename)
	if lexer == nil {
		return line
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		return line
	}
	iterator, err := lexer.Tokenise(nil, line)
	if err != nil {
		return line
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, chromaStyle(), iterator); err != nil {
		return line
	}
	return strings.TrimRight(buf.String(), "\n")
}

// contextLine is one row of a detection's context block.
type contextLine struct {
	Match  bool
	Number string
	Code   string
}

// splitContext parses the ">>> N: code" / "    N: code" rows built by the
// scanner.
func splitContext(ctx string) []contextLine {
	if ctx == "" {
		return nil
	}
	var out []contextLine
	for _, row := range strings.Split(ctx, "\n") {
		var cl contextLine
		switch {
		case strings.HasPrefix(row, ">>> "):
			cl.Match = true
			row = row[4:]
		case strings.HasPrefix(row, "    "):
			row = row[4:]
		}
		num, code, found := strings.Cut(row, ": ")
		if !found {
			num, code = strings.TrimSuffix(row, ":"), ""
		}
		cl.Number, cl.Code = num, code
		out = append(out, cl)
	}
	return out
}
