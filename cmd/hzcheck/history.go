package hzcheck

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/hazteunsitio/hz-backdoor-monitor/internal/audit"
	"github.com/spf13/cobra"
)

var flagHistoryLimit int

func init() {
	cmd := &cobra.Command{
		Use:   "history [path]",
		Short: "Show scans recorded with scan --audit, newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			abs, err := resolveRoot(path)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			records, err := audit.NewAuditLog(abs).LoadHistory()
			if errors.Is(err, fs.ErrNotExist) {
				fmt.Fprintln(out, "No scans recorded")
				return nil
			}
			if err != nil {
				return err
			}
			for i, r := range records {
				if flagHistoryLimit > 0 && i >= flagHistoryLimit {
					break
				}
				fmt.Fprintf(out, "%s  %s  %-6s files=%d detections=%d new=%d critical=%d high=%d  (%s)\n",
					r.Timestamp.Format("2006-01-02 15:04:05"), r.ScanID, r.Sensitivity,
					r.FilesScanned, r.TotalDetections, r.NewDetections,
					r.RiskCounts["CRITICAL"], r.RiskCounts["HIGH"], r.Duration)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&flagHistoryLimit, "limit", "n", 10, "number of records to show (0 = all)")
	rootCmd.AddCommand(cmd)
}
