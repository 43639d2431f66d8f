package report

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"os"
	"strconv"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/hazteunsitio/hz-backdoor-monitor/internal/risk"
	"github.com/hazteunsitio/hz-backdoor-monitor/internal/types"
)

type htmlCard struct {
	Label string
	Value string
	Color string
}

type htmlDetection struct {
	types.Detection
	Color   string
	Snippet template.HTML
}

type htmlFile struct {
	File       string
	MaxRisk    types.RiskLevel
	Color      string
	Detections []htmlDetection
}

type htmlPage struct {
	Export
	Cards []htmlCard
	Files []htmlFile
}

// hex equivalents of riskColors for the page
var riskHex = map[types.RiskLevel]string{
	types.RiskCritical: "#ff0000",
	types.RiskHigh:     "#ff8700",
	types.RiskMedium:   "#ffaf00",
	types.RiskLow:      "#5fafff",
	types.RiskInfo:     "#626262",
}

var htmlTmpl = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Backdoor scan report {{.ScanID}}</title>
<style>
body{font-family:-apple-system,Segoe UI,Roboto,sans-serif;background:#1e1e1e;color:#ddd;margin:2em}
h1{margin-bottom:0}.meta{color:#888;margin-bottom:1.5em}
.cards{display:flex;flex-wrap:wrap;gap:1em;margin-bottom:2em}
.card{background:#2a2a2a;border-radius:6px;padding:1em 1.5em;min-width:8em;border-top:4px solid #555}
.card .v{font-size:1.8em;font-weight:bold}.card .l{color:#999;font-size:.85em}
.file{background:#252525;border-radius:6px;margin-bottom:1.5em;border-left:6px solid #555}
.file h2{font-size:1em;margin:0;padding:.8em 1em;word-break:break-all}
.det{padding:.5em 1em 1em;border-top:1px solid #333}
.badge{display:inline-block;padding:.1em .6em;border-radius:3px;color:#111;font-weight:bold;font-size:.8em}
.cat{font-family:monospace;margin-left:.5em}.line{color:#888;margin-left:.5em}
pre{margin:.5em 0 0;padding:.5em;border-radius:4px;overflow-x:auto}
code.match{color:#ffd75f}
</style>
</head>
<body>
<h1>Backdoor scan report</h1>
<div class="meta">Scan {{.ScanID}} &middot; {{.Timestamp.Format "2006-01-02 15:04:05"}} &middot; root {{.Configuration.Root}} &middot; sensitivity {{.Configuration.Sensitivity}}{{if .Version}} &middot; v{{.Version}}{{end}}</div>
<div class="cards">
{{- range .Cards}}
<div class="card"{{if .Color}} style="border-top-color:{{.Color}}"{{end}}><div class="v">{{.Value}}</div><div class="l">{{.Label}}</div></div>
{{- end}}
</div>
{{- if not .Files}}
<p>No backdoor patterns found.</p>
{{- end}}
{{- range .Files}}
<div class="file" style="border-left-color:{{.Color}}">
<h2><span class="badge" style="background:{{.Color}}">{{.MaxRisk}}</span> {{.File}} ({{len .Detections}})</h2>
{{- range .Detections}}
<div class="det">
<span class="badge" style="background:{{.Color}}">{{.RiskLevel}}</span><span class="cat">{{.Category}}</span><span class="line">line {{.LineNumber}}</span>
<div>match: <code class="match">{{.MatchText}}</code></div>
{{.Snippet}}
</div>
{{- end}}
</div>
{{- end}}
</body>
</html>
`))

// WriteHTML renders doc as a self-contained HTML page. Files are ordered by
// their most severe detection; each detection carries its highlighted
// context.
func WriteHTML(w io.Writer, doc Export) error {
	page := htmlPage{Export: doc}
	counts := risk.CountByLevel(doc.Detections)
	page.Cards = []htmlCard{
		{Label: "Files scanned", Value: strconv.Itoa(doc.Statistics.FilesScanned)},
		{Label: "Files with detections", Value: strconv.Itoa(len(doc.Statistics.FilesWithDetections))},
		{Label: "Detections", Value: strconv.Itoa(len(doc.Detections))},
		{Label: "Elapsed", Value: fmt.Sprintf("%.2fs", doc.Statistics.Elapsed().Seconds())},
	}
	if doc.Configuration.MaxFileSize > 0 {
		page.Cards = append(page.Cards, htmlCard{Label: "Max file size", Value: HumanBytes(doc.Configuration.MaxFileSize)})
	}
	for _, lvl := range types.RiskLevels {
		page.Cards = append(page.Cards, htmlCard{Label: lvl.String(), Value: strconv.Itoa(counts[lvl]), Color: riskHex[lvl]})
	}
	opts := PrintOptions{Root: doc.Configuration.Root}
	for _, g := range risk.GroupByFile(doc.Detections) {
		f := htmlFile{File: opts.rel(g.File), MaxRisk: g.MaxRisk, Color: riskHex[g.MaxRisk]}
		for _, d := range g.Detections {
			f.Detections = append(f.Detections, htmlDetection{
				Detection: d,
				Color:     riskHex[d.RiskLevel],
				Snippet:   highlightHTML(d),
			})
		}
		page.Files = append(page.Files, f)
	}
	return htmlTmpl.Execute(w, page)
}

// SaveHTML writes the HTML report for doc to path.
func SaveHTML(path string, doc Export) error {
	var buf bytes.Buffer
	if err := WriteHTML(&buf, doc); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// highlightHTML renders a detection's context window with chroma, numbering
// lines as in the source file and highlighting the matching one.
func highlightHTML(d types.Detection) template.HTML {
	rows := splitContext(d.Context)
	if len(rows) == 0 {
		rows = []contextLine{{Match: true, Number: strconv.Itoa(d.LineNumber), Code: d.LineContent}}
	}
	base, err := strconv.Atoi(rows[0].Number)
	if err != nil {
		base = 1
	}
	code := make([]string, len(rows))
	var hl [][2]int
	for i, r := range rows {
		code[i] = r.Code
		if r.Match {
			hl = append(hl, [2]int{base + i, base + i})
		}
	}

	lexer := lexerFor(d.File)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	formatter := chromahtml.New(
		chromahtml.WithLineNumbers(true),
		chromahtml.BaseLineNumber(base),
		chromahtml.HighlightLines(hl),
	)
	iterator, err := lexer.Tokenise(nil, strings.Join(code, "\n"))
	if err != nil {
		return plainSnippet(code)
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, chromaStyle(), iterator); err != nil {
		return plainSnippet(code)
	}
	return template.HTML(buf.String())
}

func plainSnippet(code []string) template.HTML {
	return template.HTML("<pre>" + template.HTMLEscapeString(strings.Join(code, "\n")) + "</pre>")
}
