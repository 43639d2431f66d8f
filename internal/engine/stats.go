package engine

import (
	"encoding/json"
	"maps"
	"slices"
	"time"
)

// Statistics aggregates counters for one scan session.
type Statistics struct {
	FilesScanned int
	// FilesSkipped counts files excluded by size or content policy.
	FilesSkipped int
	StartTime    time.Time
	EndTime      time.Time
	// Errors holds one message per file that could not be read.
	Errors               []string
	FilesWithDetections  map[string]struct{}
	DetectionsByCategory map[string]int
	// FileHashes maps scanned paths to their xxhash64 when hashing is on.
	FileHashes map[string]string
}

func newStatistics() Statistics {
	return Statistics{
		FilesWithDetections:  map[string]struct{}{},
		DetectionsByCategory: map[string]int{},
		FileHashes:           map[string]string{},
	}
}

func (s Statistics) clone() Statistics {
	out := s
	out.Errors = slices.Clone(s.Errors)
	out.FilesWithDetections = maps.Clone(s.FilesWithDetections)
	out.DetectionsByCategory = maps.Clone(s.DetectionsByCategory)
	out.FileHashes = maps.Clone(s.FileHashes)
	return out
}

// Elapsed is the wall time between start and end, or zero before the scan
// has finished.
func (s Statistics) Elapsed() time.Duration {
	if s.StartTime.IsZero() || s.EndTime.IsZero() {
		return 0
	}
	return s.EndTime.Sub(s.StartTime)
}

// FilesWithDetectionsList returns the affected files sorted by path.
func (s Statistics) FilesWithDetectionsList() []string {
	var out []string
	for p := range s.FilesWithDetections {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// TotalDetections sums the per-category counters.
func (s Statistics) TotalDetections() int {
	n := 0
	for _, c := range s.DetectionsByCategory {
		n += c
	}
	return n
}

type statisticsJSON struct {
	FilesScanned         int               `json:"files_scanned"`
	FilesSkipped         int               `json:"files_skipped"`
	StartTime            string            `json:"start_time,omitempty"`
	EndTime              string            `json:"end_time,omitempty"`
	ElapsedSeconds       float64           `json:"elapsed_seconds"`
	Errors               []string          `json:"errors"`
	FilesWithDetections  []string          `json:"files_with_detections"`
	DetectionsByCategory map[string]int    `json:"detections_by_category"`
	FileHashes           map[string]string `json:"file_hashes,omitempty"`
}

func isoTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}

func parseISOTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

// MarshalJSON writes the file set as a sorted list and times as ISO-8601.
func (s Statistics) MarshalJSON() ([]byte, error) {
	errs := s.Errors
	if errs == nil {
		errs = []string{}
	}
	files := s.FilesWithDetectionsList()
	if files == nil {
		files = []string{}
	}
	cats := s.DetectionsByCategory
	if cats == nil {
		cats = map[string]int{}
	}
	return json.Marshal(statisticsJSON{
		FilesScanned:         s.FilesScanned,
		FilesSkipped:         s.FilesSkipped,
		StartTime:            isoTime(s.StartTime),
		EndTime:              isoTime(s.EndTime),
		ElapsedSeconds:       s.Elapsed().Seconds(),
		Errors:               errs,
		FilesWithDetections:  files,
		DetectionsByCategory: cats,
		FileHashes:           s.FileHashes,
	})
}

// UnmarshalJSON reads the form written by MarshalJSON.
func (s *Statistics) UnmarshalJSON(b []byte) error {
	var raw statisticsJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	start, err := parseISOTime(raw.StartTime)
	if err != nil {
		return err
	}
	end, err := parseISOTime(raw.EndTime)
	if err != nil {
		return err
	}
	out := newStatistics()
	out.FilesScanned = raw.FilesScanned
	out.FilesSkipped = raw.FilesSkipped
	out.StartTime = start
	out.EndTime = end
	out.Errors = raw.Errors
	for _, f := range raw.FilesWithDetections {
		out.FilesWithDetections[f] = struct{}{}
	}
	maps.Copy(out.DetectionsByCategory, raw.DetectionsByCategory)
	maps.Copy(out.FileHashes, raw.FileHashes)
	*s = out
	return nil
}
