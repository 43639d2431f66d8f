package config

import (
	units "github.com/docker/go-units"
	"github.com/hazteunsitio/hz-backdoor-monitor/internal/engine"
	"gopkg.in/yaml.v3"
)

// Default output locations.
const (
	DefaultJSONOutput = "hz-backdoor-results.json"
	DefaultHTMLOutput = "hz-backdoor-report.html"
	DefaultFailOn     = "none"
)

// Defaults returns a fully populated FileConfig mirroring engine.DefaultConfig.
func Defaults() FileConfig {
	d := engine.DefaultConfig()
	size := units.BytesSize(float64(d.MaxFileSize))
	sens := string(d.Sensitivity)
	jsonOut, htmlOut, failOn := DefaultJSONOutput, DefaultHTMLOutput, DefaultFailOn
	return FileConfig{
		Workers:           &d.Workers,
		Sensitivity:       &sens,
		ShowProgress:      &d.ShowProgress,
		SaveJSON:          &d.SaveJSON,
		VerifyHashes:      &d.VerifyHashes,
		ExcludeFrameworks: &d.ExcludeFrameworks,
		OnlyHighRisk:      &d.OnlyHighRisk,
		MaxFileSize:       &size,
		ContextLines:      &d.ContextLines,
		Extensions:        d.Extensions,
		JSONOutput:        &jsonOut,
		HTMLOutput:        &htmlOut,
		FailOn:            &failOn,
	}
}

// Marshal renders fc as YAML.
func Marshal(fc FileConfig) ([]byte, error) {
	return yaml.Marshal(fc)
}

// StringOr returns *p, or def when p is nil.
func StringOr(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}
