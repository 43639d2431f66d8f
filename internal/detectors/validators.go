package detectors

import "strings"

// EnableValidators controls whether category validators run after a match.
// Disabling them reports every raw pattern hit.
var EnableValidators = true

// lineValidator returns false to suppress a detection as a false positive.
type lineValidator func(line string, domains *DomainSet) bool

// Validators are keyed by a fragment of the category name and checked in
// order; the first family whose fragment the category contains decides.
var categoryValidators = []struct {
	family string
	check  lineValidator
}{
	// remote connections only count when some URL leaves the trusted set
	{"http", func(line string, domains *DomainSet) bool {
		return domains.HasUntrustedURL(line)
	}},
	// dynamic templating is not remote execution
	{"ejecucion_remota", func(line string, _ *DomainSet) bool {
		return !containsAny(strings.ToLower(line), "template", "view")
	}},
	// resource configuration files are legitimate reads
	{"acceso_archivos", func(line string, _ *DomainSet) bool {
		return !containsAny(strings.ToLower(line), "config", "shared", "client", "server")
	}},
}

// Validate runs the secondary check for category against the matched line.
// Categories without a validator are always valid.
func Validate(category, line string, domains *DomainSet) bool {
	if !EnableValidators {
		return true
	}
	if domains == nil {
		domains = NewDomainSet(DefaultTrustedDomains...)
	}
	for _, v := range categoryValidators {
		if strings.Contains(category, v.family) {
			return v.check(line, domains)
		}
	}
	return true
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
