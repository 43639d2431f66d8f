package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hazteunsitio/hz-backdoor-monitor/internal/detectors"
	"github.com/hazteunsitio/hz-backdoor-monitor/internal/risk"
	"github.com/hazteunsitio/hz-backdoor-monitor/internal/scanner"
	"github.com/hazteunsitio/hz-backdoor-monitor/internal/types"
	"github.com/rs/zerolog/log"
	"github.com/wandb/parallel"
)

// DefaultWorkers is the worker count used when Config.Workers is not positive.
const DefaultWorkers = 4

// Config controls one scan. It is built before the scan starts and never
// modified while it runs.
type Config struct {
	Root              string            `json:"root"`
	Workers           int               `json:"workers"`
	Sensitivity       types.Sensitivity `json:"sensitivity"`
	ShowProgress      bool              `json:"show_progress"`
	SaveJSON          bool              `json:"save_json"`
	VerifyHashes      bool              `json:"verify_hashes"`
	ExcludeFrameworks bool              `json:"exclude_frameworks"`
	OnlyHighRisk      bool              `json:"only_high_risk"`
	MaxFileSize       int64             `json:"max_file_size"`
	ContextLines      int               `json:"context_lines"`
	Extensions        []string          `json:"extensions"`
	IncludeGlobs      string            `json:"include,omitempty"`
	ExcludeGlobs      string            `json:"exclude,omitempty"`

	// Extensions of the built-in detection sets.
	TrustedDomains []string            `json:"trusted_domains,omitempty"`
	Whitelist      []string            `json:"whitelist,omitempty"`
	CustomPatterns map[string][]string `json:"custom_patterns,omitempty"`

	// Progress is called under the session lock after every file with the
	// number of files finished, the total, and the file just finished.
	Progress func(done, total int, path string) `json:"-"`
}

// DefaultConfig returns the configuration used when nothing overrides it.
func DefaultConfig() Config {
	return Config{
		Workers:           DefaultWorkers,
		Sensitivity:       types.SensitivityMedium,
		ShowProgress:      true,
		SaveJSON:          true,
		ExcludeFrameworks: true,
		MaxFileSize:       scanner.DefaultMaxFileSize,
		ContextLines:      scanner.DefaultContextLines,
		Extensions:        append([]string(nil), DefaultExtensions...),
	}
}

// Registry compiles the pattern registry cfg selects.
func (cfg Config) Registry() *detectors.Registry {
	return detectors.NewRegistry(cfg.Sensitivity, detectors.Options{
		TrustedDomains: cfg.TrustedDomains,
		CustomPatterns: cfg.CustomPatterns,
	})
}

// Result is the outcome of a finished scan session.
type Result struct {
	ID         string
	Detections []types.Detection
	Stats      Statistics
	Duration   time.Duration
}

// Session owns the mutable state of one scan. Every field below mu is
// written only while holding it. A Session runs once.
type Session struct {
	ID      string
	cfg     Config
	scanner *scanner.FileScanner

	mu         sync.Mutex
	detections []types.Detection
	stats      Statistics
	done       int
	total      int
}

// NewSession compiles the registry and whitelist for cfg and returns an
// idle session.
func NewSession(cfg Config) *Session {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.Sensitivity == "" {
		cfg.Sensitivity = types.SensitivityMedium
	}
	whitelist := detectors.NewWhitelist(cfg.ExcludeFrameworks, cfg.Whitelist...)
	fs := scanner.New(cfg.Registry(), whitelist, scanner.Options{
		ContextLines: cfg.ContextLines,
		MaxFileSize:  cfg.MaxFileSize,
		Hash:         cfg.VerifyHashes,
	})
	return &Session{
		ID:      uuid.NewString(),
		cfg:     cfg,
		scanner: fs,
		stats:   newStatistics(),
	}
}

// Run scans files with at most cfg.Workers goroutines, never more than there
// are files, and returns the merged result. Detections appear in file
// completion order. Cancelling ctx stops dispatching files that have not
// started yet.
func (s *Session) Run(ctx context.Context, files []string) Result {
	s.mu.Lock()
	s.total = len(files)
	s.stats.StartTime = time.Now()
	s.mu.Unlock()

	if len(files) == 0 {
		log.Debug().Str("scan_id", s.ID).Msg("No files to scan")
		return s.finish()
	}

	workers := min(s.cfg.Workers, len(files))
	log.Debug().Str("scan_id", s.ID).Int("files", len(files)).Int("workers", workers).Msg("Starting scan")

	group := parallel.Limited(ctx, workers)
	for _, path := range files {
		path := path
		group.Go(func(ctx context.Context) {
			if ctx.Err() != nil {
				return
			}
			res, err := s.scanner.ScanFile(path)
			res.Path = path
			s.merge(res, err)
		})
	}
	group.Wait()
	return s.finish()
}

func (s *Session) merge(res scanner.FileResult, err error) {
	dets := res.Detections
	if s.cfg.OnlyHighRisk {
		dets = filterHighRisk(dets)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.done++
	switch {
	case err != nil:
		log.Debug().Err(err).Str("file", res.Path).Msg("Failed to read file")
		s.stats.Errors = append(s.stats.Errors, fmt.Sprintf("Error reading %s: %v", res.Path, err))
	case res.Skipped:
		s.stats.FilesSkipped++
	default:
		s.stats.FilesScanned++
		if res.Hash != "" {
			s.stats.FileHashes[res.Path] = res.Hash
		}
	}
	if len(dets) > 0 {
		s.detections = append(s.detections, dets...)
		s.stats.FilesWithDetections[res.Path] = struct{}{}
		for _, d := range dets {
			s.stats.DetectionsByCategory[d.Category]++
		}
	}
	if s.cfg.Progress != nil {
		s.cfg.Progress(s.done, s.total, res.Path)
	}
}

func (s *Session) finish() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.EndTime = time.Now()
	return Result{
		ID:         s.ID,
		Detections: append([]types.Detection(nil), s.detections...),
		Stats:      s.stats.clone(),
		Duration:   s.stats.Elapsed(),
	}
}

func filterHighRisk(dets []types.Detection) []types.Detection {
	var out []types.Detection
	for _, d := range dets {
		if risk.AtLeast(d.RiskLevel, types.RiskHigh) {
			out = append(out, d)
		}
	}
	return out
}

// ScanDirectory discovers the files under cfg.Root and scans them in a new
// session. Only discovery failures are returned as errors; per-file problems
// end up in Result.Stats.Errors.
func ScanDirectory(ctx context.Context, cfg Config) (Result, error) {
	files, err := Discover(ctx, cfg)
	if err != nil {
		return Result{}, err
	}
	return NewSession(cfg).Run(ctx, files), nil
}

// Scan runs a directory scan and returns only the detections.
func Scan(ctx context.Context, cfg Config) ([]types.Detection, error) {
	res, err := ScanDirectory(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return res.Detections, nil
}
