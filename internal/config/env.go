package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Environment variables that override file configuration.
const (
	EnvWorkers      = "HZCHECK_WORKERS"
	EnvSensitivity  = "HZCHECK_SENSITIVITY"
	EnvOnlyHighRisk = "HZCHECK_ONLY_HIGH_RISK"
	EnvMaxFileSize  = "HZCHECK_MAX_FILE_SIZE"
)

// LoadEnv loads the given .env files (".env" when none are given) into the
// process environment without overriding variables that are already set,
// then returns the overrides found in the environment. Missing .env files
// are not an error; malformed ones and invalid values are logged and
// ignored.
func LoadEnv(envFiles ...string) FileConfig {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, p := range envFiles {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Warn().Err(err).Str("file", p).Msg("Failed to load env file")
		}
	}
	return FromEnv()
}

// FromEnv reads the HZCHECK_* overrides from the current environment.
func FromEnv() FileConfig {
	var cfg FileConfig
	if v, ok := lookup(EnvWorkers); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Workers = &n
		} else {
			log.Warn().Str("var", EnvWorkers).Str("value", v).Msg("Ignoring invalid integer")
		}
	}
	if v, ok := lookup(EnvSensitivity); ok {
		cfg.Sensitivity = &v
	}
	if v, ok := lookup(EnvOnlyHighRisk); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.OnlyHighRisk = &b
		} else {
			log.Warn().Str("var", EnvOnlyHighRisk).Str("value", v).Msg("Ignoring invalid boolean")
		}
	}
	if v, ok := lookup(EnvMaxFileSize); ok {
		cfg.MaxFileSize = &v
	}
	return cfg
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}
