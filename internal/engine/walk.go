package engine

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hazteunsitio/hz-backdoor-monitor/internal/ignore"
	"github.com/rs/zerolog/log"
)

// Discover walks cfg.Root and returns the absolute paths of the files a scan
// would visit, in walk order. Hidden and well-known dependency, cache and
// log directories are not descended into; files must carry one of the
// configured extensions and pass the include/exclude globs and the
// .hzcheckignore file.
func Discover(ctx context.Context, cfg Config) ([]string, error) {
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	st, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	ign, _ := ignore.Load(filepath.Join(root, ignore.FileName))
	exts := normalizeExtensions(cfg.Extensions)

	var files []string
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Debug().Err(err).Str("path", p).Msg("Skipping unreadable path")
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if p != root && isSkippedDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !isRegularTarget(p, d) || !hasExtension(d.Name(), exts) {
			return nil
		}
		rel, _ := filepath.Rel(root, p)
		if !allowedByGlobs(rel, cfg) {
			return nil
		}
		if ign.Match(filepath.ToSlash(rel)) {
			return nil
		}
		files = append(files, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// isRegularTarget accepts regular files and symlinks that resolve to one.
// Symlinked directories are not descended into.
func isRegularTarget(p string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	st, err := os.Stat(p)
	if err != nil {
		log.Debug().Err(err).Str("path", p).Msg("Skipping dangling symlink")
		return false
	}
	return st.Mode().IsRegular()
}
