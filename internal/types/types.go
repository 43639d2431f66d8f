package types

import (
	"fmt"
	"strings"
	"time"
)

// RiskLevel is the severity bucket of a detection. Higher values are more severe.
type RiskLevel int

const (
	RiskInfo RiskLevel = iota
	RiskLow
	RiskMedium
	RiskHigh
	RiskCritical
)

// RiskLevels lists every level from most to least severe.
var RiskLevels = []RiskLevel{RiskCritical, RiskHigh, RiskMedium, RiskLow, RiskInfo}

func (r RiskLevel) String() string {
	switch r {
	case RiskCritical:
		return "CRITICAL"
	case RiskHigh:
		return "HIGH"
	case RiskMedium:
		return "MEDIUM"
	case RiskLow:
		return "LOW"
	case RiskInfo:
		return "INFO"
	default:
		return "UNKNOWN"
	}
}

// ParseRiskLevel accepts the English names and the legacy Spanish ones
// (CRITICO, ALTO, MEDIO, BAJO), case-insensitively.
func ParseRiskLevel(s string) (RiskLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CRITICAL", "CRITICO", "CRÍTICO":
		return RiskCritical, nil
	case "HIGH", "ALTO":
		return RiskHigh, nil
	case "MEDIUM", "MEDIO":
		return RiskMedium, nil
	case "LOW", "BAJO":
		return RiskLow, nil
	case "INFO":
		return RiskInfo, nil
	}
	return RiskMedium, fmt.Errorf("unknown risk level %q", s)
}

func (r RiskLevel) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *RiskLevel) UnmarshalText(b []byte) error {
	lvl, err := ParseRiskLevel(string(b))
	if err != nil {
		return err
	}
	*r = lvl
	return nil
}

// Sensitivity selects which pattern categories are active.
type Sensitivity string

const (
	SensitivityLow    Sensitivity = "LOW"
	SensitivityMedium Sensitivity = "MEDIUM"
	SensitivityHigh   Sensitivity = "HIGH"
)

// ParseSensitivity maps user input to a Sensitivity. BAJO/MEDIO/ALTO are
// accepted for configs written for the original tool.
func ParseSensitivity(s string) (Sensitivity, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LOW", "BAJO":
		return SensitivityLow, nil
	case "", "MEDIUM", "MEDIO":
		return SensitivityMedium, nil
	case "HIGH", "ALTO":
		return SensitivityHigh, nil
	}
	return SensitivityMedium, fmt.Errorf("unknown sensitivity %q (want LOW, MEDIUM or HIGH)", s)
}

// Detection is a single pattern hit in a scanned file. Values are never
// mutated after the scanner creates them.
type Detection struct {
	File        string    `json:"file"`
	LineNumber  int       `json:"line_number"`
	LineContent string    `json:"line_content"`
	Category    string    `json:"category"`
	Pattern     string    `json:"pattern"`
	MatchText   string    `json:"match_text"`
	RiskLevel   RiskLevel `json:"risk_level"`
	Context     string    `json:"context"`
	Timestamp   time.Time `json:"timestamp"`
}

// Key identifies a detection across runs; used by baselines.
func (d Detection) Key() string {
	return d.File + "|" + d.Category + "|" + d.MatchText
}
