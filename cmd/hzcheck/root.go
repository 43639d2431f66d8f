package hzcheck

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/hazteunsitio/hz-backdoor-monitor/internal/logging"
	"github.com/hazteunsitio/hz-backdoor-monitor/internal/report"
	"github.com/spf13/cobra"
)

var (
	flagVerbose  bool
	flagLogLevel string
	flagNoColor  bool
	flagConfig   string

	version = "0.1.0"
)

// errFindings is returned when the --fail-on gate trips.
var errFindings = errors.New("detections at or above the fail-on level")

// rootCmd is the base Cobra command for the hzcheck CLI.
var rootCmd = &cobra.Command{
	Use:           "hzcheck",
	Short:         "Detect backdoors in FiveM resources",
	Long:          "hzcheck scans .lua, .js and .ts scripts of a FiveM server for remote code execution, suspicious HTTP calls, admin command abuse, file access and obfuscation.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return logging.Setup(os.Stderr, flagLogLevel, flagVerbose, flagNoColor)
	},
}

// Execute runs the hzcheck CLI. It should be called by the main package.
// Exit codes: 0 clean, 1 fail-on gate tripped, 2 any other error.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	switch {
	case err == nil:
	case errors.Is(err, errFindings):
		os.Exit(1)
	default:
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}
}

func init() {
	report.ToolVersion = version
	rootCmd.Version = version

	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level: trace|debug|info|warn|error")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colorized output")
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "config file (default: .hzcheck.yml in the scanned path)")
}
