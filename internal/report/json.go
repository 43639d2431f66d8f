package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hazteunsitio/hz-backdoor-monitor/internal/engine"
	"github.com/hazteunsitio/hz-backdoor-monitor/internal/types"
)

// Export is the JSON document written after a scan and read back by
// `hzcheck report`.
type Export struct {
	Version       string            `json:"version"`
	Timestamp     time.Time         `json:"timestamp"`
	ScanID        string            `json:"scan_id"`
	Configuration engine.Config     `json:"configuration"`
	Statistics    engine.Statistics `json:"statistics"`
	Detections    []types.Detection `json:"detections"`
}

// NewExport assembles an export document. dets may differ from
// res.Detections when a baseline was applied.
func NewExport(version string, cfg engine.Config, res engine.Result, dets []types.Detection) Export {
	if dets == nil {
		dets = []types.Detection{}
	}
	return Export{
		Version:       version,
		Timestamp:     time.Now(),
		ScanID:        res.ID,
		Configuration: cfg,
		Statistics:    res.Stats,
		Detections:    dets,
	}
}

// WriteJSON encodes doc as indented JSON.
func WriteJSON(w io.Writer, doc Export) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// SaveJSON writes doc to path.
func SaveJSON(path string, doc Export) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteJSON(f, doc); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// LoadJSON reads an export written by SaveJSON.
func LoadJSON(path string) (Export, error) {
	var doc Export
	b, err := os.ReadFile(path)
	if err != nil {
		return doc, err
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return doc, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}
