package report

import (
	"encoding/json"
	"io"
	"sort"

	"github.com/hazteunsitio/hz-backdoor-monitor/internal/types"
)

// ToolName and ToolVersion identify the scanner in SARIF output. ToolVersion
// is set by the CLI at startup.
var (
	ToolName    = "hzcheck"
	ToolVersion = "dev"
)

type sarif struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool       sarifTool      `json:"tool"`
	Results    []sarifResult  `json:"results"`
	Properties map[string]any `json:"properties,omitempty"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string          `json:"id"`
	ShortDescription sarifMessage    `json:"shortDescription"`
	DefaultConfig    sarifRuleConfig `json:"defaultConfiguration"`
}

type sarifRuleConfig struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID     string         `json:"ruleId"`
	RuleIndex  int            `json:"ruleIndex"`
	Level      string         `json:"level"`
	Message    sarifMessage   `json:"message"`
	Locations  []sarifLoc     `json:"locations"`
	Properties map[string]any `json:"properties,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLoc struct {
	PhysicalLocation sarifPhys `json:"physicalLocation"`
}

type sarifPhys struct {
	ArtifactLocation sarifArt    `json:"artifactLocation"`
	Region           sarifRegion `json:"region"`
}

type sarifArt struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int          `json:"startLine"`
	Snippet   sarifMessage `json:"snippet"`
}

func riskToLevel(r types.RiskLevel) string {
	switch {
	case r >= types.RiskHigh:
		return "error"
	case r == types.RiskMedium:
		return "warning"
	default:
		return "note"
	}
}

// WriteSARIF writes detections as SARIF 2.1.0 to the provided writer.
func WriteSARIF(w io.Writer, dets []types.Detection) error {
	return WriteSARIFWithStats(w, dets, nil)
}

// WriteSARIFWithStats is WriteSARIF with extra run-level properties such as
// the scan ID and statistics counters.
func WriteSARIFWithStats(w io.Writer, dets []types.Detection, props map[string]any) error {
	// one rule per category, at the category's most severe level
	ruleLevel := map[string]types.RiskLevel{}
	for _, d := range dets {
		if lvl, ok := ruleLevel[d.Category]; !ok || d.RiskLevel > lvl {
			ruleLevel[d.Category] = d.RiskLevel
		}
	}
	ids := make([]string, 0, len(ruleLevel))
	for id := range ruleLevel {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	index := make(map[string]int, len(ids))
	rules := make([]sarifRule, 0, len(ids))
	for i, id := range ids {
		index[id] = i
		rules = append(rules, sarifRule{
			ID:               id,
			ShortDescription: sarifMessage{Text: "Suspicious pattern: " + id},
			DefaultConfig:    sarifRuleConfig{Level: riskToLevel(ruleLevel[id])},
		})
	}

	run := sarifRun{
		Tool:       sarifTool{Driver: sarifDriver{Name: ToolName, Version: ToolVersion, Rules: rules}},
		Results:    []sarifResult{},
		Properties: props,
	}
	for _, d := range dets {
		run.Results = append(run.Results, sarifResult{
			RuleID:    d.Category,
			RuleIndex: index[d.Category],
			Level:     riskToLevel(d.RiskLevel),
			Message:   sarifMessage{Text: d.Category + " pattern matched: " + d.MatchText},
			Locations: []sarifLoc{{
				PhysicalLocation: sarifPhys{
					ArtifactLocation: sarifArt{URI: d.File},
					Region:           sarifRegion{StartLine: d.LineNumber, Snippet: sarifMessage{Text: d.LineContent}},
				},
			}},
			Properties: map[string]any{"risk": d.RiskLevel.String(), "pattern": d.Pattern},
		})
	}
	doc := sarif{
		Schema:  "https://json.schemastore.org/sarif-2.1.0.json",
		Version: "2.1.0",
		Runs:    []sarifRun{run},
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
