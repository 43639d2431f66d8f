// Package audit keeps an append-only JSONL history of scans per scan root.
package audit

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hazteunsitio/hz-backdoor-monitor/internal/risk"
	"github.com/hazteunsitio/hz-backdoor-monitor/internal/types"
)

// FileName is the history file written to the scan root.
const FileName = ".hzcheck-history.jsonl"

// maxTop bounds the detections summarised per record.
const maxTop = 10

// maxLine bounds a single history record.
const maxLine = 1 << 20

type ScanRecord struct {
	Timestamp       time.Time          `json:"timestamp"`
	ScanID          string             `json:"scan_id"`
	Root            string             `json:"root"`
	Sensitivity     string             `json:"sensitivity"`
	TotalDetections int                `json:"total_detections"`
	NewDetections   int                `json:"new_detections"`
	BaselinedCount  int                `json:"baselined_count"`
	RiskCounts      map[string]int     `json:"risk_counts"`
	FilesScanned    int                `json:"files_scanned"`
	FilesSkipped    int                `json:"files_skipped"`
	Errors          int                `json:"errors"`
	Duration        string             `json:"duration"`
	BaselineFile    string             `json:"baseline_file,omitempty"`
	TopDetections   []DetectionSummary `json:"top_detections,omitempty"`
}

type DetectionSummary struct {
	File     string `json:"file"`
	Category string `json:"category"`
	Risk     string `json:"risk"`
	Line     int    `json:"line"`
}

type AuditLog struct {
	logPath string
}

func NewAuditLog(root string) *AuditLog {
	return &AuditLog{logPath: filepath.Join(root, FileName)}
}

// Path is the history file location.
func (a *AuditLog) Path() string { return a.logPath }

// LoadHistory returns the recorded scans, newest first. Lines that fail to
// decode are skipped.
func (a *AuditLog) LoadHistory() ([]ScanRecord, error) {
	f, err := os.Open(a.logPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	var records []ScanRecord
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var record ScanRecord
		if err := json.Unmarshal(line, &record); err != nil {
			continue
		}
		records = append(records, record)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read audit log: %w", err)
	}

	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

func (a *AuditLog) LogScan(record ScanRecord) error {
	// owner-only: records name the files that looked compromised
	f, err := os.OpenFile(a.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(record); err != nil {
		return fmt.Errorf("failed to write audit record: %w", err)
	}
	return nil
}

// CreateScanRecord summarises a scan. all holds every detection, fresh the
// ones left after baseline filtering.
func CreateScanRecord(
	scanID, root string,
	sensitivity types.Sensitivity,
	all, fresh []types.Detection,
	filesScanned, filesSkipped, errors int,
	duration time.Duration,
	baselineFile string,
) ScanRecord {
	riskCounts := make(map[string]int)
	for lvl, n := range risk.CountByLevel(all) {
		riskCounts[lvl.String()] = n
	}

	top := append([]types.Detection(nil), fresh...)
	risk.Sort(top)
	summaries := make([]DetectionSummary, 0, min(len(top), maxTop))
	for _, d := range top[:min(len(top), maxTop)] {
		summaries = append(summaries, DetectionSummary{
			File:     d.File,
			Category: d.Category,
			Risk:     d.RiskLevel.String(),
			Line:     d.LineNumber,
		})
	}

	return ScanRecord{
		Timestamp:       time.Now(),
		ScanID:          scanID,
		Root:            root,
		Sensitivity:     string(sensitivity),
		TotalDetections: len(all),
		NewDetections:   len(fresh),
		BaselinedCount:  len(all) - len(fresh),
		RiskCounts:      riskCounts,
		FilesScanned:    filesScanned,
		FilesSkipped:    filesSkipped,
		Errors:          errors,
		Duration:        duration.String(),
		BaselineFile:    baselineFile,
		TopDetections:   summaries,
	}
}
