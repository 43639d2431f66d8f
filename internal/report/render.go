package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	units "github.com/docker/go-units"
	"github.com/hazteunsitio/hz-backdoor-monitor/internal/cache"
	"github.com/hazteunsitio/hz-backdoor-monitor/internal/engine"
	"github.com/hazteunsitio/hz-backdoor-monitor/internal/risk"
	"github.com/hazteunsitio/hz-backdoor-monitor/internal/types"
	"github.com/olekukonko/tablewriter"
)

// maxMatchWidth bounds the match column so long obfuscated lines do not
// blow up the table.
const maxMatchWidth = 60

type PrintOptions struct {
	NoColor      bool
	ShowContext  bool
	Duration     time.Duration
	FilesScanned int
	FilesSkipped int
	Sensitivity  types.Sensitivity
	// Root, when set, is trimmed from file paths.
	Root string
}

func (o PrintOptions) rel(path string) string {
	if o.Root == "" {
		return path
	}
	p := strings.TrimPrefix(path, strings.TrimSuffix(o.Root, "/")+"/")
	if p == "" {
		return path
	}
	return p
}

func sorted(dets []types.Detection) []types.Detection {
	out := append([]types.Detection(nil), dets...)
	risk.Sort(out)
	return out
}

// PrintText writes one line per detection, most severe first.
func PrintText(w io.Writer, dets []types.Detection, opts PrintOptions) {
	dets = sorted(dets)
	if len(dets) == 0 {
		fmt.Fprintln(w, "No backdoor patterns found ✅")
	} else {
		maxCat := 8
		for _, d := range dets {
			if l := len(d.Category); l > maxCat {
				maxCat = l
			}
		}
		fmt.Fprintf(w, "Detections: %d\n", len(dets))
		for _, d := range dets {
			// pad before colouring so escape codes do not break alignment
			lvl := d.RiskLevel.String()
			sev := colorRisk(d.RiskLevel, opts.NoColor) + strings.Repeat(" ", max(0, 8-len(lvl)))
			fmt.Fprintf(w, "%s %-*s %s:%d  %s\n", sev, maxCat, d.Category, opts.rel(d.File), d.LineNumber, truncate(d.MatchText, maxMatchWidth))
			if opts.ShowContext {
				printContext(w, d, opts.NoColor)
			}
		}
	}
	printFooter(w, dets, opts)
}

// PrintTable renders detections as a bordered table, most severe first.
func PrintTable(w io.Writer, dets []types.Detection, opts PrintOptions) {
	dets = sorted(dets)
	if len(dets) == 0 {
		fmt.Fprintln(w, "No backdoor patterns found ✅")
	} else {
		fmt.Fprintf(w, "Detections: %d\n", len(dets))
		table := tablewriter.NewWriter(w)
		table.Header("RISK", "CATEGORY", "LOCATION", "MATCH")
		for _, d := range dets {
			_ = table.Append([]string{
				colorRisk(d.RiskLevel, opts.NoColor),
				d.Category,
				fmt.Sprintf("%s:%d", opts.rel(d.File), d.LineNumber),
				truncate(d.MatchText, maxMatchWidth),
			})
		}
		_ = table.Render()
		if opts.ShowContext {
			for _, d := range dets {
				fmt.Fprintf(w, "\n%s %s:%d\n", colorRisk(d.RiskLevel, opts.NoColor), opts.rel(d.File), d.LineNumber)
				printContext(w, d, opts.NoColor)
			}
		}
	}
	printFooter(w, dets, opts)
}

func printContext(w io.Writer, d types.Detection, noColor bool) {
	for _, cl := range splitContext(d.Context) {
		code := cl.Code
		if !noColor {
			code = highlightLine(code, d.File)
		}
		marker := "    "
		if cl.Match {
			marker = ">>> "
			if !noColor {
				marker = riskStyle(d.RiskLevel).Render(marker)
			}
		}
		fmt.Fprintf(w, "  %s%s %s\n", marker, dim(cl.Number+":", noColor), code)
	}
}

func printFooter(w io.Writer, dets []types.Detection, opts PrintOptions) {
	if opts.Duration <= 0 && opts.FilesScanned <= 0 {
		return
	}
	counts := risk.CountByLevel(dets)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Detections: %d (critical: %d, high: %d, medium: %d, low: %d, info: %d)\n",
		len(dets), counts[types.RiskCritical], counts[types.RiskHigh], counts[types.RiskMedium],
		counts[types.RiskLow], counts[types.RiskInfo])
	if opts.Duration > 0 {
		fmt.Fprintf(w, "Scan duration: %.2fs\n", opts.Duration.Seconds())
	}
	if opts.FilesScanned > 0 {
		fmt.Fprintf(w, "Files scanned: %d\n", opts.FilesScanned)
	}
	if opts.FilesSkipped > 0 {
		fmt.Fprintf(w, "Files skipped: %d\n", opts.FilesSkipped)
	}
}

// PrintSummary writes the end-of-scan statistics block: counters, then
// per-category counts by name, then per-risk counts from CRITICAL to INFO.
// Category and risk counts are computed from dets so baseline filtering is
// reflected.
func PrintSummary(w io.Writer, stats engine.Statistics, dets []types.Detection, opts PrintOptions) {
	fmt.Fprintln(w, title("Scan summary", opts.NoColor))
	fmt.Fprintf(w, "  Elapsed:               %.2fs\n", stats.Elapsed().Seconds())
	fmt.Fprintf(w, "  Files scanned:         %d\n", stats.FilesScanned)
	if stats.FilesSkipped > 0 {
		fmt.Fprintf(w, "  Files skipped:         %d\n", stats.FilesSkipped)
	}
	fmt.Fprintf(w, "  Files with detections: %d\n", len(stats.FilesWithDetections))
	fmt.Fprintf(w, "  Total detections:      %d\n", len(dets))
	if opts.Sensitivity != "" {
		fmt.Fprintf(w, "  Sensitivity:           %s\n", opts.Sensitivity)
	}

	if len(dets) > 0 {
		byCat := map[string]int{}
		for _, d := range dets {
			byCat[d.Category]++
		}
		cats := make([]string, 0, len(byCat))
		for c := range byCat {
			cats = append(cats, c)
		}
		sort.Strings(cats)
		fmt.Fprintln(w)
		fmt.Fprintln(w, title("By category", opts.NoColor))
		for _, c := range cats {
			fmt.Fprintf(w, "  %-40s %d\n", c, byCat[c])
		}

		counts := risk.CountByLevel(dets)
		fmt.Fprintln(w)
		fmt.Fprintln(w, title("By risk", opts.NoColor))
		for _, lvl := range types.RiskLevels {
			if counts[lvl] == 0 {
				continue
			}
			name := lvl.String()
			fmt.Fprintf(w, "  %s%s %d\n", colorRisk(lvl, opts.NoColor), strings.Repeat(" ", max(0, 9-len(name))), counts[lvl])
		}
	}

	if len(stats.Errors) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%s (%d)\n", title("Errors", opts.NoColor), len(stats.Errors))
		for _, e := range stats.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}
}

// PrintHashChanges lists files whose content changed since the previous
// hash database was written.
func PrintHashChanges(w io.Writer, ch cache.Changes, opts PrintOptions) {
	if ch.Empty() {
		fmt.Fprintln(w, "No file changes since the last scan")
		return
	}
	fmt.Fprintln(w, title("File changes since the last scan", opts.NoColor))
	for _, group := range []struct {
		label string
		paths []string
	}{{"added", ch.Added}, {"modified", ch.Modified}, {"removed", ch.Removed}} {
		for _, p := range group.paths {
			fmt.Fprintf(w, "  %-8s %s\n", group.label, p)
		}
	}
}

// HumanBytes formats a byte count for display, e.g. "5MiB".
func HumanBytes(n int64) string { return units.BytesSize(float64(n)) }

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
