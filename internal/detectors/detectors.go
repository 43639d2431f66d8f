package detectors

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/hazteunsitio/hz-backdoor-monitor/internal/types"
	"github.com/rs/zerolog/log"
)

// Pattern is one compiled, case-insensitive detection expression.
type Pattern struct {
	// Expr is the expression as written, kept for traceability in reports.
	Expr          string
	re            *regexp.Regexp
	urlGroup      int
	notFollowedBy []string
}

func compilePattern(def patternDef) (Pattern, error) {
	re, err := regexp.Compile("(?i)" + def.expr)
	if err != nil {
		return Pattern{}, err
	}
	if def.urlGroup > re.NumSubexp() {
		return Pattern{}, fmt.Errorf("url group %d out of range (%d groups)", def.urlGroup, re.NumSubexp())
	}
	return Pattern{Expr: def.expr, re: re, urlGroup: def.urlGroup, notFollowedBy: def.notFollowedBy}, nil
}

// Find returns the first occurrence in line that satisfies the pattern's
// domain and lookahead constraints.
func (p Pattern) Find(line string, domains *DomainSet) (string, bool) {
	if p.re == nil {
		return "", false
	}
	if p.urlGroup == 0 && len(p.notFollowedBy) == 0 {
		m := p.re.FindStringIndex(line)
		if m == nil {
			return "", false
		}
		return line[m[0]:m[1]], true
	}
	for _, loc := range p.re.FindAllStringSubmatchIndex(line, -1) {
		if p.urlGroup > 0 {
			s, e := loc[2*p.urlGroup], loc[2*p.urlGroup+1]
			if s >= 0 && domains != nil && domains.IsTrusted(line[s:e]) {
				continue
			}
		}
		if followedByAny(line[loc[1]:], p.notFollowedBy) {
			continue
		}
		return line[loc[0]:loc[1]], true
	}
	return "", false
}

func followedByAny(rest string, prefixes []string) bool {
	if len(prefixes) == 0 {
		return false
	}
	rest = strings.ToLower(rest)
	for _, p := range prefixes {
		if strings.HasPrefix(rest, p) {
			return true
		}
	}
	return false
}

// Category is a named, ordered group of patterns.
type Category struct {
	Name     string
	Patterns []Pattern
}

// Options tunes a Registry beyond the built-in definitions.
type Options struct {
	// TrustedDomains extend DefaultTrustedDomains.
	TrustedDomains []string
	// CustomPatterns adds categories, or patterns to existing ones.
	CustomPatterns map[string][]string
}

// Registry holds the categories active for one sensitivity level and the
// trusted-domain set their URL constraints use. It is read-only after
// construction and safe for concurrent use.
type Registry struct {
	sensitivity types.Sensitivity
	categories  []Category
	domains     *DomainSet
}

// NewRegistry compiles the effective category set for a sensitivity level.
// Patterns that fail to compile are logged and left out; they never prevent
// the rest of the registry from loading.
func NewRegistry(sensitivity types.Sensitivity, opts Options) *Registry {
	if sensitivity == "" {
		sensitivity = types.SensitivityMedium
	}
	defs := append([]categoryDef(nil), baselineCategories...)
	if sensitivity == types.SensitivityHigh {
		defs = append(defs, aggressiveCategories...)
	}
	defs = mergeCustom(defs, opts.CustomPatterns)

	r := &Registry{
		sensitivity: sensitivity,
		domains:     NewDomainSet(DefaultTrustedDomains...),
	}
	r.domains.Add(opts.TrustedDomains...)

	for _, def := range defs {
		if sensitivity == types.SensitivityLow && !isCriticalName(def.name) {
			continue
		}
		cat := Category{Name: def.name}
		for _, pd := range def.patterns {
			p, err := compilePattern(pd)
			if err != nil {
				log.Warn().Err(err).Str("category", def.name).Str("pattern", pd.expr).Msg("Skipping invalid pattern")
				continue
			}
			cat.Patterns = append(cat.Patterns, p)
		}
		if len(cat.Patterns) > 0 {
			r.categories = append(r.categories, cat)
		}
	}
	return r
}

func mergeCustom(defs []categoryDef, custom map[string][]string) []categoryDef {
	if len(custom) == 0 {
		return defs
	}
	names := make([]string, 0, len(custom))
	for name := range custom {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, key := range names {
		name := strings.TrimSpace(key)
		var extra []patternDef
		for _, expr := range custom[key] {
			if strings.TrimSpace(expr) != "" {
				extra = append(extra, patternDef{expr: expr})
			}
		}
		if name == "" || len(extra) == 0 {
			continue
		}
		merged := false
		for i := range defs {
			if defs[i].name == name {
				defs[i].patterns = append(append([]patternDef(nil), defs[i].patterns...), extra...)
				merged = true
				break
			}
		}
		if !merged {
			defs = append(defs, categoryDef{name: name, patterns: extra})
		}
	}
	return defs
}

func isCriticalName(name string) bool {
	for _, m := range criticalNameMarkers {
		if strings.Contains(name, m) {
			return true
		}
	}
	return false
}

// Sensitivity returns the level the registry was built for.
func (r *Registry) Sensitivity() types.Sensitivity { return r.sensitivity }

// Categories returns the active categories in evaluation order.
func (r *Registry) Categories() []Category { return r.categories }

// Domains returns the trusted-domain set.
func (r *Registry) Domains() *DomainSet { return r.domains }

// Names lists active category names in evaluation order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.categories))
	for i, c := range r.categories {
		out[i] = c.Name
	}
	return out
}

// PatternCount is the number of compiled patterns across all categories.
func (r *Registry) PatternCount() int {
	n := 0
	for _, c := range r.categories {
		n += len(c.Patterns)
	}
	return n
}
