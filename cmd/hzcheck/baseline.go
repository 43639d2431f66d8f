package hzcheck

import (
	"fmt"

	"github.com/hazteunsitio/hz-backdoor-monitor/internal/engine"
	"github.com/hazteunsitio/hz-backdoor-monitor/internal/report"
	"github.com/spf13/cobra"
)

var (
	flagBaselinePath   string
	flagBaselineOutput string
)

func init() {
	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Manage baselines",
	}

	update := &cobra.Command{
		Use:   "update",
		Short: "Record every current detection as accepted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			abs, err := resolveRoot(flagBaselinePath)
			if err != nil {
				return err
			}
			cfg, _ := resolveConfig(abs, ".env")
			dets, err := engine.Scan(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if err := report.SaveBaseline(flagBaselineOutput, dets); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Baseline updated with %d detections.\n", len(dets))
			return nil
		},
	}
	update.Flags().StringVarP(&flagBaselinePath, "path", "p", ".", "directory to scan")
	update.Flags().StringVarP(&flagBaselineOutput, "output", "o", report.DefaultBaselineFile, "baseline file to write")

	rootCmd.AddCommand(cmd)
	cmd.AddCommand(update)
}
