package core

import (
	"context"

	"github.com/hazteunsitio/hz-backdoor-monitor/internal/engine"
	"github.com/hazteunsitio/hz-backdoor-monitor/internal/types"
)

// Re-export selected internal types as a stable public API surface.
// These are type aliases so external consumers can depend on a stable path.
type (
	Config      = engine.Config
	Result      = engine.Result
	Statistics  = engine.Statistics
	Detection   = types.Detection
	RiskLevel   = types.RiskLevel
	Sensitivity = types.Sensitivity
)

const (
	SensitivityLow    = types.SensitivityLow
	SensitivityMedium = types.SensitivityMedium
	SensitivityHigh   = types.SensitivityHigh
)

// DefaultConfig returns the configuration used when nothing overrides it.
func DefaultConfig() Config { return engine.DefaultConfig() }

// Scan is the stable entrypoint for other programs. Start cfg from
// DefaultConfig: a zero Config captures no context lines and does not
// exclude framework code.
func Scan(ctx context.Context, cfg Config) ([]Detection, error) {
	return engine.Scan(ctx, cfg)
}

// ScanWithStats runs a scan and returns detections together with the
// session ID and statistics. cfg follows the same rules as in Scan.
func ScanWithStats(ctx context.Context, cfg Config) (Result, error) {
	return engine.ScanDirectory(ctx, cfg)
}

// Categories returns the pattern categories active at a sensitivity level.
func Categories(s Sensitivity) []string {
	cfg := engine.DefaultConfig()
	cfg.Sensitivity = s
	return cfg.Registry().Names()
}
