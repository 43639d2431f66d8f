package config

import (
	"errors"
	"fmt"

	units "github.com/docker/go-units"
	"github.com/hazteunsitio/hz-backdoor-monitor/internal/engine"
	"github.com/hazteunsitio/hz-backdoor-monitor/internal/types"
	"github.com/rs/zerolog/log"
)

// ParseSize converts a human size ("5MB", "512KiB", "1048576") to bytes.
// Units are binary: 1MB is 1024*1024 bytes.
func ParseSize(s string) (int64, error) {
	n, err := units.RAMInBytes(s)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("size must be positive: %q", s)
	}
	return n, nil
}

// Apply copies every set field of fc onto cfg. Invalid values leave the
// corresponding cfg field untouched and are reported together in the
// returned error; valid fields are applied regardless.
func (fc FileConfig) Apply(cfg *engine.Config) error {
	var errs []error
	if fc.Workers != nil {
		if *fc.Workers > 0 {
			cfg.Workers = *fc.Workers
		} else {
			errs = append(errs, fmt.Errorf("workers must be positive, got %d", *fc.Workers))
		}
	}
	if fc.Sensitivity != nil {
		s, err := types.ParseSensitivity(*fc.Sensitivity)
		if err != nil {
			errs = append(errs, err)
		} else {
			cfg.Sensitivity = s
		}
	}
	if fc.ShowProgress != nil {
		cfg.ShowProgress = *fc.ShowProgress
	}
	if fc.SaveJSON != nil {
		cfg.SaveJSON = *fc.SaveJSON
	}
	if fc.VerifyHashes != nil {
		cfg.VerifyHashes = *fc.VerifyHashes
	}
	if fc.ExcludeFrameworks != nil {
		cfg.ExcludeFrameworks = *fc.ExcludeFrameworks
	}
	if fc.OnlyHighRisk != nil {
		cfg.OnlyHighRisk = *fc.OnlyHighRisk
	}
	if fc.MaxFileSize != nil {
		n, err := ParseSize(*fc.MaxFileSize)
		if err != nil {
			errs = append(errs, fmt.Errorf("max_file_size: %w", err))
		} else {
			cfg.MaxFileSize = n
		}
	}
	if fc.ContextLines != nil {
		if *fc.ContextLines >= 0 {
			cfg.ContextLines = *fc.ContextLines
		} else {
			errs = append(errs, fmt.Errorf("context_lines must not be negative, got %d", *fc.ContextLines))
		}
	}
	if len(fc.Extensions) > 0 {
		cfg.Extensions = append([]string(nil), fc.Extensions...)
	}
	if fc.Include != nil {
		cfg.IncludeGlobs = *fc.Include
	}
	if fc.Exclude != nil {
		cfg.ExcludeGlobs = *fc.Exclude
	}
	cfg.TrustedDomains = append(cfg.TrustedDomains, fc.TrustedDomains...)
	cfg.Whitelist = append(cfg.Whitelist, fc.Whitelist...)
	if len(fc.CustomPatterns) > 0 {
		if cfg.CustomPatterns == nil {
			cfg.CustomPatterns = map[string][]string{}
		}
		for k, v := range fc.CustomPatterns {
			cfg.CustomPatterns[k] = append(cfg.CustomPatterns[k], v...)
		}
	}
	return errors.Join(errs...)
}

// Resolve builds the layered file configuration for a scan of root:
// global, then either explicit (when non-empty) or the root's local file,
// then environment overrides. Load failures are logged as warnings and the
// failing layer is skipped.
func Resolve(root, explicit string) FileConfig {
	var fc FileConfig
	if g, err := LoadGlobal(); err == nil {
		fc = fc.Merge(g)
	} else if !errors.Is(err, ErrNoGlobalConfig) {
		log.Warn().Err(err).Msg("Failed to load global config, using defaults")
	}
	if explicit != "" {
		if l, err := LoadFile(explicit); err == nil {
			fc = fc.Merge(l)
		} else {
			log.Warn().Err(err).Str("file", explicit).Msg("Failed to load config, using defaults")
		}
	} else if l, err := LoadLocal(root); err == nil {
		fc = fc.Merge(l)
	} else if !errors.Is(err, ErrNoLocalConfig) {
		log.Warn().Err(err).Str("root", root).Msg("Failed to load local config, using defaults")
	}
	return fc.Merge(FromEnv())
}
