package hzcheck

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hazteunsitio/hz-backdoor-monitor/internal/config"
	"github.com/hazteunsitio/hz-backdoor-monitor/internal/engine"
	"github.com/rs/zerolog/log"
)

// resolveRoot makes path absolute and checks that it is a directory.
func resolveRoot(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("scan path: %w", err)
	}
	if !fi.IsDir() {
		return "", fmt.Errorf("scan path %s is not a directory", abs)
	}
	return abs, nil
}

// resolveConfig layers .env, global, local (or --config) and environment
// settings over the defaults for a scan of root. Invalid values are logged
// and the defaults kept.
func resolveConfig(root, envFile string) (engine.Config, config.FileConfig) {
	config.LoadEnv(envFile)
	fc := config.Resolve(root, flagConfig)
	cfg := engine.DefaultConfig()
	if err := fc.Apply(&cfg); err != nil {
		log.Warn().Err(err).Msg("Ignoring invalid configuration values")
	}
	cfg.Root = root
	return cfg, fc
}
