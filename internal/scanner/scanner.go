package scanner

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/acarl005/stripansi"
	xxhash "github.com/cespare/xxhash/v2"
	"github.com/h2non/filetype"
	"github.com/hazteunsitio/hz-backdoor-monitor/internal/detectors"
	"github.com/hazteunsitio/hz-backdoor-monitor/internal/risk"
	"github.com/hazteunsitio/hz-backdoor-monitor/internal/types"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	// DefaultMaxFileSize is the per-file cap; larger files are skipped.
	DefaultMaxFileSize int64 = 5 << 20
	// DefaultContextLines is the number of lines captured on each side of a match.
	DefaultContextLines = 2
)

// Skip reasons reported in FileResult.
const (
	SkipOversize = "oversize"
	SkipBinary   = "binary"
)

// Options tunes a FileScanner.
type Options struct {
	// ContextLines around each match; negative selects DefaultContextLines.
	ContextLines int
	// MaxFileSize in bytes; zero or negative selects DefaultMaxFileSize.
	MaxFileSize int64
	// Hash records an xxhash64 of every scanned file.
	Hash bool
}

// FileScanner applies a Registry and a Whitelist to single files. It holds
// no per-scan state and is safe for concurrent use.
type FileScanner struct {
	registry  *detectors.Registry
	whitelist *detectors.Whitelist
	opts      Options
	now       func() time.Time
	validate  func(category, line string, domains *detectors.DomainSet) bool
}

// New returns a FileScanner over the given registry and whitelist.
func New(registry *detectors.Registry, whitelist *detectors.Whitelist, opts Options) *FileScanner {
	if opts.ContextLines < 0 {
		opts.ContextLines = DefaultContextLines
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}
	return &FileScanner{registry: registry, whitelist: whitelist, opts: opts, now: time.Now, validate: detectors.Validate}
}

// FileResult is the outcome of scanning one file.
type FileResult struct {
	Path       string
	Detections []types.Detection
	// Skipped files were excluded by policy; they are not errors.
	Skipped    bool
	SkipReason string
	Hash       string
	Bytes      int64
}

// ScanFile reads and scans path. Oversized and binary files come back
// skipped with no detections. Only I/O failures produce an error, and those
// are the *fs.PathError values from the os package.
func (s *FileScanner) ScanFile(path string) (FileResult, error) {
	res := FileResult{Path: path}
	info, err := os.Stat(path)
	if err != nil {
		return res, err
	}
	if info.Size() > s.opts.MaxFileSize {
		log.Debug().Str("file", path).Int64("size", info.Size()).Msg("Skipping oversized file")
		res.Skipped, res.SkipReason = true, SkipOversize
		return res, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return res, err
	}
	res.Bytes = int64(len(data))
	// the file may have grown between stat and read
	if res.Bytes > s.opts.MaxFileSize {
		res.Skipped, res.SkipReason = true, SkipOversize
		return res, nil
	}
	if looksBinary(data) {
		log.Debug().Str("file", path).Msg("Skipping binary file")
		res.Skipped, res.SkipReason = true, SkipBinary
		return res, nil
	}
	if s.opts.Hash {
		res.Hash = FastHash(data)
	}
	res.Detections = s.ScanContent(path, data)
	return res, nil
}

// Scan returns the detections for path.
func (s *FileScanner) Scan(path string) ([]types.Detection, error) {
	res, err := s.ScanFile(path)
	if err != nil {
		return nil, err
	}
	return res.Detections, nil
}

type dedupKey struct {
	category string
	match    string
}

// ScanContent scans already-loaded file content. path is recorded on each
// detection as-is. Within one call no two detections share a category and
// match text.
func (s *FileScanner) ScanContent(path string, data []byte) []types.Detection {
	lines := strings.Split(Decode(data), "\n")
	domains := s.registry.Domains()
	seen := make(map[dedupKey]struct{})
	var out []types.Detection

	for i, raw := range lines {
		if s.whitelist != nil && s.whitelist.Skip(raw) {
			continue
		}
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		for _, cat := range s.registry.Categories() {
			for _, p := range cat.Patterns {
				m, ok := s.match(cat.Name, p, raw, domains)
				if !ok {
					continue
				}
				key := dedupKey{category: cat.Name, match: m}
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				out = append(out, types.Detection{
					File:        path,
					LineNumber:  i + 1,
					LineContent: stripansi.Strip(line),
					Category:    cat.Name,
					Pattern:     p.Expr,
					MatchText:   m,
					RiskLevel:   risk.Classify(cat.Name),
					Context:     BuildContext(lines, i+1, s.opts.ContextLines),
					Timestamp:   s.now(),
				})
			}
		}
	}
	return out
}

// match runs one pattern and its category validator against one line. A
// panic in either only costs that pattern on that line.
func (s *FileScanner) match(category string, p detectors.Pattern, line string, domains *detectors.DomainSet) (m string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Debug().Str("category", category).Str("pattern", p.Expr).Interface("panic", r).Msg("Pattern evaluation failed")
			m, ok = "", false
		}
	}()
	m, ok = p.Find(line, domains)
	if !ok || !s.validate(category, line, domains) {
		return "", false
	}
	return m, true
}

// Decode turns raw file bytes into text without ever failing. A UTF-8 or
// UTF-16 byte order mark selects the encoding; invalid sequences become
// U+FFFD.
func Decode(data []byte) string {
	out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
	if err != nil {
		out = data
	}
	return strings.ToValidUTF8(string(out), "\uFFFD")
}

var (
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

func looksBinary(b []byte) bool {
	const sniff = 800
	head := b
	if len(head) > sniff {
		head = head[:sniff]
	}
	if kind, _ := filetype.Match(head); kind != filetype.Unknown {
		return true
	}
	if bytes.HasPrefix(head, bomUTF16LE) || bytes.HasPrefix(head, bomUTF16BE) {
		return false
	}
	return bytes.IndexByte(head, 0) >= 0
}

// FastHash is the hex xxhash64 of b.
func FastHash(b []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(b))
}
