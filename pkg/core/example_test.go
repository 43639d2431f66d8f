package core_test

import (
	"context"
	"fmt"
	"os"

	"github.com/hazteunsitio/hz-backdoor-monitor/pkg/core"
)

// ExampleScan demonstrates how to perform a simple scan of a directory.
func ExampleScan() {
	cfg := core.DefaultConfig()
	cfg.Root = "./resources"
	cfg.Sensitivity = core.SensitivityHigh
	cfg.IncludeGlobs = "**/server/**"

	dets, err := core.Scan(context.Background(), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Scan failed: %v\n", err)
		return
	}
	if len(dets) == 0 {
		fmt.Println("No backdoor patterns found.")
		return
	}
	fmt.Printf("Found %d suspicious lines.\n", len(dets))
	_ = core.MarshalDetections(os.Stdout, dets)
}

// ExampleScanWithStats shows how to run a scan and retrieve execution statistics.
func ExampleScanWithStats() {
	cfg := core.DefaultConfig()
	cfg.Root = "./resources"
	cfg.OnlyHighRisk = true

	result, err := core.ScanWithStats(context.Background(), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Scan failed: %v\n", err)
		return
	}
	fmt.Printf("Scan %s: %d files in %s\n", result.ID, result.Stats.FilesScanned, result.Duration)
	fmt.Printf("Found %d high-risk lines in %d files\n", len(result.Detections), len(result.Stats.FilesWithDetections))
	if len(result.Stats.Errors) > 0 {
		fmt.Printf("%d files could not be read\n", len(result.Stats.Errors))
	}
}
