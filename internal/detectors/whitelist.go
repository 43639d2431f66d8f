package detectors

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

// Lines matching any of these are known-benign and never evaluated.
var defaultWhitelist = []string{
	// comments and documentation that merely mention the word
	`--.*?backdoor`, `//.*?backdoor`, `/\*.*?backdoor.*?\*/`,
	`print\s*\(\s*["'].*?backdoor.*?["']`,

	// resource exports and event registration
	`exports\[.*?\]`, `exports\..*?\(`,
	`ESX\.|esx\.|ESX:`, `QBCore\.|qb-`,
	`RegisterServerEvent`, `RegisterNetEvent`, `RegisterCommand`,
	`TriggerEvent\s*\(\s*["']esx:`, `TriggerServerEvent\s*\(\s*["']esx:`,

	// common framework resources
	`ox_lib`, `ox_inventory`, `ox_target`,
	`qtarget`, `qb-target`, `bt-target`,

	// debugging and development annotations
	`debug\.`, `-- Example:`, `-- Test:`, `-- TODO:`,
	`console\.log`, `print\s*\(\s*["']DEBUG`,

	// configuration objects
	`Config\.|config\.|cfg\.`,
	`shared\.|client\.|server\.`,

	// loading files of the resource itself
	`LoadResourceFile\s*\(\s*GetCurrentResourceName\(\)`,
	`load\s*\(\s*LoadResourceFile\s*\(\s*GetCurrentResourceName\(\)`,

	// template engines
	`template\s*=\s*load\s*\(`,
	`assert\s*\(\s*load\s*\(.*?template.*?\)`,
}

// FrameworkFragments mark lines that belong to a known framework. They are
// only consulted when framework exclusion is on.
var FrameworkFragments = []string{"esx", "qbcore", "ox_lib", "qtarget", "mythic_"}

var commentMarkers = []string{"--", "//"}

// Whitelist decides whether a raw line is skipped before pattern evaluation.
type Whitelist struct {
	patterns          []*regexp.Regexp
	excludeFrameworks bool
}

// NewWhitelist compiles the built-in whitelist plus extra expressions.
// Invalid extra expressions are logged and ignored.
func NewWhitelist(excludeFrameworks bool, extra ...string) *Whitelist {
	w := &Whitelist{excludeFrameworks: excludeFrameworks}
	for _, expr := range defaultWhitelist {
		w.patterns = append(w.patterns, regexp.MustCompile("(?i)"+expr))
	}
	for _, expr := range extra {
		if strings.TrimSpace(expr) == "" {
			continue
		}
		re, err := regexp.Compile("(?i)" + expr)
		if err != nil {
			log.Warn().Err(err).Str("pattern", expr).Msg("Skipping invalid whitelist pattern")
			continue
		}
		w.patterns = append(w.patterns, re)
	}
	return w
}

// Skip reports whether line is blank, a single-line comment, a known-safe
// construct, or (with framework exclusion) part of a known framework.
func (w *Whitelist) Skip(line string) bool {
	clean := strings.ToLower(strings.TrimSpace(line))
	if clean == "" {
		return true
	}
	for _, m := range commentMarkers {
		if strings.HasPrefix(clean, m) {
			return true
		}
	}
	for _, re := range w.patterns {
		if re.MatchString(line) {
			return true
		}
	}
	if w.excludeFrameworks {
		for _, fw := range FrameworkFragments {
			if strings.Contains(clean, fw) {
				return true
			}
		}
	}
	return false
}
