package report

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/hazteunsitio/hz-backdoor-monitor/internal/engine"
	"github.com/hazteunsitio/hz-backdoor-monitor/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() (engine.Config, engine.Result) {
	cfg := engine.DefaultConfig()
	cfg.Root = "/srv/res"
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	dets := sampleDetections()
	res := engine.Result{
		ID:         "4b1c6d0e-0000-4000-8000-000000000001",
		Detections: dets,
		Stats: engine.Statistics{
			FilesScanned:         7,
			StartTime:            start,
			EndTime:              start.Add(time.Second),
			FilesWithDetections:  map[string]struct{}{dets[0].File: {}, dets[1].File: {}, dets[2].File: {}},
			DetectionsByCategory: map[string]int{dets[0].Category: 1, dets[1].Category: 1, dets[2].Category: 1},
		},
		Duration: time.Second,
	}
	return cfg, res
}

func TestWriteJSON_Shape(t *testing.T) {
	cfg, res := sampleResult()
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, NewExport("1.2.3", cfg, res, res.Detections)))

	var raw map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	for _, k := range []string{"version", "timestamp", "scan_id", "configuration", "statistics", "detections"} {
		assert.Contains(t, raw, k)
	}
	assert.Equal(t, "1.2.3", raw["version"])
	stats := raw["statistics"].(map[string]any)
	assert.Equal(t, "2025-03-01T10:00:00Z", stats["start_time"])
	assert.Len(t, stats["files_with_detections"], 3)
	conf := raw["configuration"].(map[string]any)
	assert.Equal(t, "MEDIUM", conf["sensitivity"])
	assert.NotContains(t, conf, "Progress")
	first := raw["detections"].([]any)[1].(map[string]any)
	assert.Equal(t, "CRITICAL", first["risk_level"])
}

func TestSaveLoadJSON(t *testing.T) {
	cfg, res := sampleResult()
	p := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, SaveJSON(p, NewExport("dev", cfg, res, res.Detections)))

	doc, err := LoadJSON(p)
	require.NoError(t, err)
	assert.Equal(t, res.ID, doc.ScanID)
	assert.Equal(t, cfg.Root, doc.Configuration.Root)
	assert.Equal(t, 7, doc.Statistics.FilesScanned)
	require.Len(t, doc.Detections, 3)
	assert.Equal(t, types.RiskCritical, doc.Detections[1].RiskLevel)
	assert.Equal(t, res.Detections[1].Context, doc.Detections[1].Context)
}

func TestNewExport_EmptyDetections(t *testing.T) {
	cfg, res := sampleResult()
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, NewExport("dev", cfg, res, nil)))
	assert.Contains(t, buf.String(), `"detections": []`)
}

func TestLoadJSON_Errors(t *testing.T) {
	_, err := LoadJSON(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
