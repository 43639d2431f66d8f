package report

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/hazteunsitio/hz-backdoor-monitor/internal/risk"
	"github.com/hazteunsitio/hz-backdoor-monitor/internal/types"
)

// DefaultBaselineFile is the baseline path used when none is given.
const DefaultBaselineFile = "hzcheck.baseline.json"

// Baseline is a set of detection keys that were reviewed and accepted.
type Baseline struct {
	Items map[string]bool `json:"items"`
}

// LoadBaseline reads a baseline file. A missing or unreadable file yields an
// empty baseline together with the error.
func LoadBaseline(path string) (Baseline, error) {
	b := Baseline{Items: map[string]bool{}}
	f, err := os.ReadFile(path)
	if err != nil {
		return b, err
	}
	if err := json.Unmarshal(f, &b); err != nil {
		return Baseline{Items: map[string]bool{}}, fmt.Errorf("parse baseline %s: %w", path, err)
	}
	if b.Items == nil {
		b.Items = map[string]bool{}
	}
	return b, nil
}

// SaveBaseline writes every detection's key to path.
func SaveBaseline(path string, dets []types.Detection) error {
	b := Baseline{Items: map[string]bool{}}
	for _, d := range dets {
		b.Items[d.Key()] = true
	}
	buf, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0o644)
}

// FilterNewDetections drops detections already present in base.
func FilterNewDetections(dets []types.Detection, base Baseline) []types.Detection {
	out := []types.Detection{}
	for _, d := range dets {
		if !base.Items[d.Key()] {
			out = append(out, d)
		}
	}
	return out
}

// ParseFailOn validates a --fail-on value. "none" (or empty) disables the
// gate and returns ok=false.
func ParseFailOn(s string) (lvl types.RiskLevel, ok bool, err error) {
	if v := strings.ToLower(strings.TrimSpace(s)); v == "" || v == "none" {
		return 0, false, nil
	}
	lvl, err = types.ParseRiskLevel(s)
	if err != nil {
		return 0, false, err
	}
	return lvl, true, nil
}

// ShouldFail reports whether any detection is at or above the failOn level.
// Unknown values never fail; callers validate with ParseFailOn first.
func ShouldFail(dets []types.Detection, failOn string) bool {
	th, ok, err := ParseFailOn(failOn)
	if err != nil || !ok {
		return false
	}
	for _, d := range dets {
		if risk.AtLeast(d.RiskLevel, th) {
			return true
		}
	}
	return false
}
