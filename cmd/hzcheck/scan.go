package hzcheck

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/hazteunsitio/hz-backdoor-monitor/internal/audit"
	"github.com/hazteunsitio/hz-backdoor-monitor/internal/cache"
	"github.com/hazteunsitio/hz-backdoor-monitor/internal/config"
	"github.com/hazteunsitio/hz-backdoor-monitor/internal/engine"
	"github.com/hazteunsitio/hz-backdoor-monitor/internal/report"
	"github.com/hazteunsitio/hz-backdoor-monitor/internal/types"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	flagPath              string
	flagEnvFile           string
	flagWorkers           int
	flagSensitivity       string
	flagOnlyHighRisk      bool
	flagExcludeFrameworks bool
	flagMaxFileSize       string
	flagContextLines      int
	flagInclude           string
	flagExclude           string
	flagExtensions        string
	flagTrustedDomains    string
	flagWhitelist         string
	flagVerifyHashes      bool
	flagNoProgress        bool
	flagAudit             bool
	// output
	flagJSON        bool
	flagSARIF       bool
	flagText        bool
	flagTable       bool
	flagShowContext bool
	flagJSONOutput  string
	flagHTMLOutput  string
	flagNoJSON      bool
	flagNoHTML      bool
	flagBaseline    string
	flagFailOn      string
)

const progressWidth = 30

func init() {
	cmd := &cobra.Command{
		Use:   "scan [path]",
		Short: "Scan a resources directory for backdoor patterns",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScan,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringVarP(&flagPath, "path", "p", ".", "directory to scan")
	cmd.Flags().StringVar(&flagEnvFile, "env-file", ".env", "dotenv file with HZCHECK_* overrides")
	cmd.Flags().IntVarP(&flagWorkers, "workers", "w", 0, "number of concurrent file scanners (default 4)")
	cmd.Flags().StringVarP(&flagSensitivity, "sensitivity", "s", "", "pattern set: LOW | MEDIUM | HIGH")
	cmd.Flags().BoolVar(&flagOnlyHighRisk, "only-high-risk", false, "keep only HIGH and CRITICAL detections")
	cmd.Flags().BoolVar(&flagExcludeFrameworks, "exclude-frameworks", true, "skip lines referencing known frameworks (esx, qbcore, ox_lib, ...)")
	cmd.Flags().StringVar(&flagMaxFileSize, "max-file-size", "", "skip files larger than this, e.g. 5MB")
	cmd.Flags().IntVar(&flagContextLines, "context-lines", 0, "lines of context around each detection (default 2)")
	cmd.Flags().StringVar(&flagInclude, "include", "", "comma-separated globs to include")
	cmd.Flags().StringVar(&flagExclude, "exclude", "", "comma-separated globs to exclude")
	cmd.Flags().StringVar(&flagExtensions, "extensions", "", "comma-separated file extensions (default .lua,.js,.ts)")
	cmd.Flags().StringVar(&flagTrustedDomains, "trusted-domains", "", "comma-separated extra trusted domains")
	cmd.Flags().StringVar(&flagWhitelist, "whitelist", "", "comma-separated extra whitelist fragments")
	cmd.Flags().BoolVar(&flagVerifyHashes, "verify-hashes", false, "record file hashes and report changes since the last scan")
	cmd.Flags().BoolVar(&flagNoProgress, "no-progress", false, "disable the progress bar")
	cmd.Flags().BoolVar(&flagAudit, "audit", false, "append a record of this scan to the history file in the scanned path")

	cmd.Flags().BoolVar(&flagJSON, "json", false, "write the JSON export to stdout")
	cmd.Flags().BoolVar(&flagSARIF, "sarif", false, "write SARIF 2.1.0 to stdout")
	cmd.Flags().BoolVar(&flagText, "text", false, "plain text output")
	cmd.Flags().BoolVar(&flagTable, "table", false, "table output (default)")
	cmd.Flags().BoolVar(&flagShowContext, "show-context", false, "print highlighted context for each detection")
	cmd.Flags().StringVar(&flagJSONOutput, "json-output", "", "JSON results file (default "+config.DefaultJSONOutput+")")
	cmd.Flags().StringVar(&flagHTMLOutput, "html-output", "", "write an HTML report to this file")
	cmd.Flags().BoolVar(&flagNoJSON, "no-json", false, "do not save the JSON results file")
	cmd.Flags().BoolVar(&flagNoHTML, "no-html", false, "do not write the HTML report")
	cmd.Flags().StringVar(&flagBaseline, "baseline", "", "ignore detections recorded in this baseline file")
	cmd.Flags().StringVar(&flagFailOn, "fail-on", "", "exit 1 on detections at or above: critical|high|medium|low|info|none")
}

// applyScanFlags overrides cfg with every scan flag set on the command line.
func applyScanFlags(cmd *cobra.Command, cfg *engine.Config) error {
	f := cmd.Flags()
	if f.Changed("workers") {
		if flagWorkers <= 0 {
			return fmt.Errorf("--workers must be positive, got %d", flagWorkers)
		}
		cfg.Workers = flagWorkers
	}
	if flagSensitivity != "" {
		s, err := types.ParseSensitivity(flagSensitivity)
		if err != nil {
			return err
		}
		cfg.Sensitivity = s
	}
	if f.Changed("only-high-risk") {
		cfg.OnlyHighRisk = flagOnlyHighRisk
	}
	if f.Changed("exclude-frameworks") {
		cfg.ExcludeFrameworks = flagExcludeFrameworks
	}
	if flagMaxFileSize != "" {
		n, err := config.ParseSize(flagMaxFileSize)
		if err != nil {
			return fmt.Errorf("--max-file-size: %w", err)
		}
		cfg.MaxFileSize = n
	}
	if f.Changed("context-lines") {
		if flagContextLines < 0 {
			return fmt.Errorf("--context-lines must not be negative, got %d", flagContextLines)
		}
		cfg.ContextLines = flagContextLines
	}
	if flagInclude != "" {
		cfg.IncludeGlobs = flagInclude
	}
	if flagExclude != "" {
		cfg.ExcludeGlobs = flagExclude
	}
	if exts := splitList(flagExtensions); len(exts) > 0 {
		cfg.Extensions = exts
	}
	cfg.TrustedDomains = append(cfg.TrustedDomains, splitList(flagTrustedDomains)...)
	cfg.Whitelist = append(cfg.Whitelist, splitList(flagWhitelist)...)
	if f.Changed("verify-hashes") {
		cfg.VerifyHashes = flagVerifyHashes
	}
	if flagNoProgress {
		cfg.ShowProgress = false
	}
	if flagNoJSON {
		cfg.SaveJSON = false
	}
	return nil
}

func runScan(cmd *cobra.Command, args []string) error {
	path := flagPath
	if len(args) > 0 {
		path = args[0]
	}
	abs, err := resolveRoot(path)
	if err != nil {
		return err
	}
	cfg, fc := resolveConfig(abs, flagEnvFile)
	if err := applyScanFlags(cmd, &cfg); err != nil {
		return err
	}
	failOn := pickString(flagFailOn, fc.FailOn, config.DefaultFailOn)
	if _, _, err := report.ParseFailOn(failOn); err != nil {
		return fmt.Errorf("--fail-on: %w", err)
	}

	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	machine := flagJSON || flagSARIF
	if !machine {
		fmt.Fprintf(errOut, "Scanning %s (sensitivity %s, %d workers, max file size %s)...\n",
			abs, cfg.Sensitivity, cfg.Workers, report.HumanBytes(cfg.MaxFileSize))
	}
	drawn := false
	if cfg.ShowProgress && !machine && isTerminal(errOut) {
		bar := newProgressBar(errOut, progressWidth)
		cfg.Progress = func(done, total int, path string) {
			drawn = true
			bar(done, total, path)
		}
	}

	ctx := cmd.Context()
	res, err := engine.ScanDirectory(ctx, cfg)
	if err != nil {
		return fmt.Errorf("scan error: %w", err)
	}
	if drawn {
		fmt.Fprintln(errOut)
	}
	interrupted := ctx.Err() != nil
	if interrupted {
		log.Warn().Msg("Scan interrupted, results are partial")
	}

	dets := res.Detections
	if flagBaseline != "" {
		base, err := report.LoadBaseline(flagBaseline)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Warn().Err(err).Str("file", flagBaseline).Msg("Failed to load baseline")
		}
		dets = report.FilterNewDetections(dets, base)
	}
	if dets == nil {
		dets = []types.Detection{}
	}
	doc := report.NewExport(version, cfg, res, dets)

	opts := report.PrintOptions{
		NoColor:     flagNoColor || !isTerminal(out),
		ShowContext: flagShowContext,
		Sensitivity: cfg.Sensitivity,
		Root:        abs,
	}
	switch {
	case flagSARIF:
		props := map[string]any{
			"scan_id":       res.ID,
			"files_scanned": res.Stats.FilesScanned,
			"files_skipped": res.Stats.FilesSkipped,
			"errors":        len(res.Stats.Errors),
		}
		if err := report.WriteSARIFWithStats(out, dets, props); err != nil {
			return fmt.Errorf("sarif error: %w", err)
		}
	case flagJSON:
		if err := report.WriteJSON(out, doc); err != nil {
			return err
		}
	case flagText:
		report.PrintText(out, dets, opts)
	default:
		report.PrintTable(out, dets, opts)
	}
	if !machine {
		fmt.Fprintln(out)
		report.PrintSummary(out, res.Stats, dets, opts)
	}

	if cfg.SaveJSON {
		p := pickString(flagJSONOutput, fc.JSONOutput, config.DefaultJSONOutput)
		if err := report.SaveJSON(p, doc); err != nil {
			log.Error().Err(err).Str("file", p).Msg("Failed to save JSON results")
		} else {
			log.Info().Str("file", p).Msg("Results saved")
		}
	}
	if p := pickString(flagHTMLOutput, fc.HTMLOutput, ""); p != "" && !flagNoHTML {
		if err := report.SaveHTML(p, doc); err != nil {
			log.Error().Err(err).Str("file", p).Msg("Failed to write HTML report")
		} else {
			log.Info().Str("file", p).Msg("HTML report written")
		}
	}
	if cfg.VerifyHashes && !interrupted {
		w := out
		if machine {
			w = errOut
		}
		verifyHashes(w, abs, res.Stats.FileHashes, opts)
	}

	if flagAudit {
		rec := audit.CreateScanRecord(res.ID, abs, cfg.Sensitivity, res.Detections, dets,
			res.Stats.FilesScanned, res.Stats.FilesSkipped, len(res.Stats.Errors), res.Duration, flagBaseline)
		if err := audit.NewAuditLog(abs).LogScan(rec); err != nil {
			log.Warn().Err(err).Msg("Failed to record scan history")
		}
	}

	if report.ShouldFail(dets, failOn) {
		return errFindings
	}
	return nil
}

// verifyHashes reports changes against the previous hash database under
// root and replaces it with the current hashes.
func verifyHashes(w io.Writer, root string, hashes map[string]string, opts report.PrintOptions) {
	cur := cache.FromHashes(root, hashes)
	prev, err := cache.Load(root)
	switch {
	case err == nil:
		fmt.Fprintln(w)
		report.PrintHashChanges(w, cache.Diff(prev, cur), opts)
	case errors.Is(err, fs.ErrNotExist):
		log.Info().Int("files", len(cur.Entries)).Msg("No previous hash database, recording current hashes")
	default:
		log.Warn().Err(err).Msg("Failed to read hash database, recreating it")
	}
	if err := cache.Save(root, cur); err != nil {
		log.Warn().Err(err).Msg("Failed to save hash database")
	}
}
