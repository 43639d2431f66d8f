package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hazteunsitio/hz-backdoor-monitor/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteHTML(t *testing.T) {
	cfg, res := sampleResult()
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, NewExport("1.0.0", cfg, res, res.Detections)))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, res.ID)
	assert.Contains(t, out, "Files scanned")
	assert.Contains(t, out, "5MiB")

	// files ordered by their most severe detection, paths relative to root
	crit := strings.Index(out, "loader/server.lua")
	high := strings.Index(out, "admin/server.js")
	info := strings.Index(out, "loader/client.lua")
	require.True(t, crit > 0 && high > 0 && info > 0)
	assert.True(t, crit < high && high < info)

	// user content is escaped
	assert.Contains(t, out, "&#34;add_ace ...&#34;")
	assert.NotContains(t, out, `("add_ace`)
}

func TestWriteHTML_NoDetections(t *testing.T) {
	cfg, res := sampleResult()
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, NewExport("1.0.0", cfg, res, nil)))
	assert.Contains(t, buf.String(), "No backdoor patterns found.")
}

func TestSaveHTML(t *testing.T) {
	cfg, res := sampleResult()
	p := filepath.Join(t.TempDir(), "report.html")
	require.NoError(t, SaveHTML(p, NewExport("1.0.0", cfg, res, res.Detections)))
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Contains(t, string(b), "</html>")
}

func TestHighlightHTML_MissingContext(t *testing.T) {
	d := types.Detection{File: "x.unknownext", LineNumber: 7, LineContent: "<script>", RiskLevel: types.RiskHigh}
	out := string(highlightHTML(d))
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "7")
}
