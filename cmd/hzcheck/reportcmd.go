package hzcheck

import (
	"fmt"

	"github.com/hazteunsitio/hz-backdoor-monitor/internal/report"
	"github.com/spf13/cobra"
)

var (
	flagReportHTML        string
	flagReportText        bool
	flagReportShowContext bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "report <results.json>",
		Short: "Render a saved JSON export as a table, text or HTML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := report.LoadJSON(args[0])
			if err != nil {
				return err
			}
			if flagReportHTML != "" {
				if err := report.SaveHTML(flagReportHTML, doc); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", flagReportHTML)
				return nil
			}
			opts := report.PrintOptions{
				NoColor:      flagNoColor || !isTerminal(cmd.OutOrStdout()),
				ShowContext:  flagReportShowContext,
				Duration:     doc.Statistics.Elapsed(),
				FilesScanned: doc.Statistics.FilesScanned,
				FilesSkipped: doc.Statistics.FilesSkipped,
				Sensitivity:  doc.Configuration.Sensitivity,
				Root:         doc.Configuration.Root,
			}
			if flagReportText {
				report.PrintText(cmd.OutOrStdout(), doc.Detections, opts)
			} else {
				report.PrintTable(cmd.OutOrStdout(), doc.Detections, opts)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&flagReportHTML, "html", "", "write an HTML report to this file instead of printing")
	cmd.Flags().BoolVar(&flagReportText, "text", false, "plain text output")
	cmd.Flags().BoolVar(&flagReportShowContext, "show-context", false, "print highlighted context for each detection")
	rootCmd.AddCommand(cmd)
}
