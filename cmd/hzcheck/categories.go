package hzcheck

import (
	"fmt"

	"github.com/hazteunsitio/hz-backdoor-monitor/internal/engine"
	"github.com/hazteunsitio/hz-backdoor-monitor/internal/risk"
	"github.com/hazteunsitio/hz-backdoor-monitor/internal/types"
	"github.com/spf13/cobra"
)

var flagCatSensitivity string

func init() {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List the pattern categories active at a sensitivity level",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sens, err := types.ParseSensitivity(flagCatSensitivity)
			if err != nil {
				return err
			}
			cfg := engine.DefaultConfig()
			cfg.Sensitivity = sens
			reg := cfg.Registry()
			out := cmd.OutOrStdout()
			for _, c := range reg.Categories() {
				fmt.Fprintf(out, "%-40s %-8s %d patterns\n", c.Name, risk.Classify(c.Name), len(c.Patterns))
			}
			fmt.Fprintf(out, "\n%d categories, %d patterns, %d trusted domains (%s)\n",
				len(reg.Categories()), reg.PatternCount(), reg.Domains().Len(), reg.Sensitivity())
			return nil
		},
	}
	cmd.Flags().StringVarP(&flagCatSensitivity, "sensitivity", "s", "MEDIUM", "LOW | MEDIUM | HIGH")
	rootCmd.AddCommand(cmd)
}
