// Package cache persists per-file content hashes between scans so changed
// scripts can be reported.
package cache

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"time"
)

// FileName is the hash database written to the scan root.
const FileName = ".hzcheck-hashes.json"

// DB maps paths relative to the scan root to xxhash64 hex digests.
type DB struct {
	UpdatedAt time.Time         `json:"updated_at"`
	Entries   map[string]string `json:"entries"`
}

func defaultPath(root string) string {
	return filepath.Join(root, FileName)
}

// Load reads the database under root. On any error it returns an empty,
// usable DB together with the error.
func Load(root string) (DB, error) {
	var db DB
	f, err := os.ReadFile(defaultPath(root))
	if err != nil {
		return DB{Entries: map[string]string{}}, err
	}
	if err := json.Unmarshal(f, &db); err != nil {
		return DB{Entries: map[string]string{}}, err
	}
	if db.Entries == nil {
		db.Entries = map[string]string{}
	}
	return db, nil
}

// Save writes db under root, stamping UpdatedAt.
func Save(root string, db DB) error {
	if db.Entries == nil {
		return errors.New("empty cache")
	}
	db.UpdatedAt = time.Now().UTC()
	b, err := json.MarshalIndent(db, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(defaultPath(root), b, 0o644)
}

// FromHashes builds a DB from absolute-path hashes, keying entries by their
// slash-separated path relative to root.
func FromHashes(root string, hashes map[string]string) DB {
	db := DB{Entries: make(map[string]string, len(hashes))}
	for p, h := range hashes {
		rel, err := filepath.Rel(root, p)
		if err != nil {
			rel = p
		}
		db.Entries[filepath.ToSlash(rel)] = h
	}
	return db
}

// Changes lists files whose hash differs between two databases. Each list
// is sorted.
type Changes struct {
	Added    []string `json:"added"`
	Modified []string `json:"modified"`
	Removed  []string `json:"removed"`
}

// Empty reports whether nothing changed.
func (c Changes) Empty() bool {
	return len(c.Added) == 0 && len(c.Modified) == 0 && len(c.Removed) == 0
}

// Diff compares the previous database with the current one.
func Diff(prev, cur DB) Changes {
	var c Changes
	for p, h := range cur.Entries {
		old, ok := prev.Entries[p]
		switch {
		case !ok:
			c.Added = append(c.Added, p)
		case old != h:
			c.Modified = append(c.Modified, p)
		}
	}
	for p := range prev.Entries {
		if _, ok := cur.Entries[p]; !ok {
			c.Removed = append(c.Removed, p)
		}
	}
	slices.Sort(c.Added)
	slices.Sort(c.Modified)
	slices.Sort(c.Removed)
	return c
}
