package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yosuke-furukawa/json5/encoding/json5"
	"gopkg.in/yaml.v3"
)

var (
	// ErrNoLocalConfig is returned by LoadLocal when the scan root has no config file.
	ErrNoLocalConfig = errors.New("no local config")
	// ErrNoGlobalConfig is returned by LoadGlobal when no user config exists.
	ErrNoGlobalConfig = errors.New("no global config")
)

// FileConfig is the on-disk configuration shape. Pointer fields distinguish
// "unset" from zero values so layers can be merged.
type FileConfig struct {
	Workers           *int    `yaml:"workers,omitempty" json:"workers,omitempty"`
	Sensitivity       *string `yaml:"sensitivity,omitempty" json:"sensitivity,omitempty"`
	ShowProgress      *bool   `yaml:"show_progress,omitempty" json:"show_progress,omitempty"`
	SaveJSON          *bool   `yaml:"save_json,omitempty" json:"save_json,omitempty"`
	VerifyHashes      *bool   `yaml:"verify_hashes,omitempty" json:"verify_hashes,omitempty"`
	ExcludeFrameworks *bool   `yaml:"exclude_frameworks,omitempty" json:"exclude_frameworks,omitempty"`
	OnlyHighRisk      *bool   `yaml:"only_high_risk,omitempty" json:"only_high_risk,omitempty"`
	// MaxFileSize is a human size such as "5MB" or "512KiB".
	MaxFileSize  *string  `yaml:"max_file_size,omitempty" json:"max_file_size,omitempty"`
	ContextLines *int     `yaml:"context_lines,omitempty" json:"context_lines,omitempty"`
	Extensions   []string `yaml:"extensions,omitempty" json:"extensions,omitempty"`
	Include      *string  `yaml:"include,omitempty" json:"include,omitempty"`
	Exclude      *string  `yaml:"exclude,omitempty" json:"exclude,omitempty"`

	TrustedDomains []string            `yaml:"trusted_domains,omitempty" json:"trusted_domains,omitempty"`
	Whitelist      []string            `yaml:"whitelist,omitempty" json:"whitelist,omitempty"`
	CustomPatterns map[string][]string `yaml:"custom_patterns,omitempty" json:"custom_patterns,omitempty"`

	JSONOutput *string `yaml:"json_output,omitempty" json:"json_output,omitempty"`
	HTMLOutput *string `yaml:"html_output,omitempty" json:"html_output,omitempty"`
	FailOn     *string `yaml:"fail_on,omitempty" json:"fail_on,omitempty"`
}

// legacyJSON adds the key names used by configs of the original checker.
// English keys win when both are present.
type legacyJSON struct {
	FileConfig
	MaxWorkers        *int    `json:"max_workers"`
	MostrarProgreso   *bool   `json:"mostrar_progreso"`
	GuardarJSON       *bool   `json:"guardar_json"`
	VerificarHashes   *bool   `json:"verificar_hashes"`
	NivelSensibilidad *string `json:"nivel_sensibilidad"`
	ExcluirFrameworks *bool   `json:"excluir_frameworks"`
	SoloAltoRiesgo    *bool   `json:"solo_alto_riesgo"`
}

func (l legacyJSON) fold() FileConfig {
	cfg := l.FileConfig
	cfg.Workers = firstSet(cfg.Workers, l.MaxWorkers)
	cfg.ShowProgress = firstSet(cfg.ShowProgress, l.MostrarProgreso)
	cfg.SaveJSON = firstSet(cfg.SaveJSON, l.GuardarJSON)
	cfg.VerifyHashes = firstSet(cfg.VerifyHashes, l.VerificarHashes)
	cfg.Sensitivity = firstSet(cfg.Sensitivity, l.NivelSensibilidad)
	cfg.ExcludeFrameworks = firstSet(cfg.ExcludeFrameworks, l.ExcluirFrameworks)
	cfg.OnlyHighRisk = firstSet(cfg.OnlyHighRisk, l.SoloAltoRiesgo)
	return cfg
}

func firstSet[T any](a, b *T) *T {
	if a != nil {
		return a
	}
	return b
}

// LoadFile reads a config file. Files ending in .json or .json5 are parsed
// as JSON5 and may use the legacy key names; anything else is YAML.
func LoadFile(path string) (FileConfig, error) {
	var cfg FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".json5":
		var l legacyJSON
		if err := json5.Unmarshal(b, &l); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
		return l.fold(), nil
	default:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
		return cfg, nil
	}
}

// LocalNames are the config file names looked up in the scan root, in order.
var LocalNames = []string{
	".hzcheck.yml", ".hzcheck.yaml", "hzcheck.yml", "hzcheck.yaml",
	"hzcheck.json", "hz_config.json",
}

// LoadLocal searches for a config file in the given root.
func LoadLocal(root string) (FileConfig, error) {
	for _, name := range LocalNames {
		p := filepath.Join(root, name)
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return FileConfig{}, ErrNoLocalConfig
}

// GlobalPath is the user-level config location under XDG_CONFIG_HOME, or
// ~/.config when unset. It is empty if neither can be determined.
func GlobalPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			base = filepath.Join(home, ".config")
		}
	}
	if base == "" {
		return ""
	}
	return filepath.Join(base, "hzcheck", "config.yml")
}

// LoadGlobal loads the global config file from XDG base directory or ~/.config.
func LoadGlobal() (FileConfig, error) {
	p := GlobalPath()
	if p == "" {
		return FileConfig{}, ErrNoGlobalConfig
	}
	if _, err := os.Stat(p); err != nil {
		return FileConfig{}, ErrNoGlobalConfig
	}
	return LoadFile(p)
}

// Merge overlays o onto fc. Fields set in o win; lists and pattern maps
// from both layers are combined.
func (fc FileConfig) Merge(o FileConfig) FileConfig {
	out := fc
	out.Workers = firstSet(o.Workers, fc.Workers)
	out.Sensitivity = firstSet(o.Sensitivity, fc.Sensitivity)
	out.ShowProgress = firstSet(o.ShowProgress, fc.ShowProgress)
	out.SaveJSON = firstSet(o.SaveJSON, fc.SaveJSON)
	out.VerifyHashes = firstSet(o.VerifyHashes, fc.VerifyHashes)
	out.ExcludeFrameworks = firstSet(o.ExcludeFrameworks, fc.ExcludeFrameworks)
	out.OnlyHighRisk = firstSet(o.OnlyHighRisk, fc.OnlyHighRisk)
	out.MaxFileSize = firstSet(o.MaxFileSize, fc.MaxFileSize)
	out.ContextLines = firstSet(o.ContextLines, fc.ContextLines)
	out.Include = firstSet(o.Include, fc.Include)
	out.Exclude = firstSet(o.Exclude, fc.Exclude)
	out.JSONOutput = firstSet(o.JSONOutput, fc.JSONOutput)
	out.HTMLOutput = firstSet(o.HTMLOutput, fc.HTMLOutput)
	out.FailOn = firstSet(o.FailOn, fc.FailOn)
	if len(o.Extensions) > 0 {
		out.Extensions = o.Extensions
	}
	out.TrustedDomains = append(append([]string(nil), fc.TrustedDomains...), o.TrustedDomains...)
	out.Whitelist = append(append([]string(nil), fc.Whitelist...), o.Whitelist...)
	if len(fc.CustomPatterns)+len(o.CustomPatterns) > 0 {
		out.CustomPatterns = map[string][]string{}
		for _, layer := range []map[string][]string{fc.CustomPatterns, o.CustomPatterns} {
			for k, v := range layer {
				out.CustomPatterns[k] = append(out.CustomPatterns[k], v...)
			}
		}
	}
	return out
}
