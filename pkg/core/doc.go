// Package core provides a small, stable facade over the backdoor monitor's
// internal engine for external integrations, such as server panels that
// want to scan a resources folder without shelling out to the CLI.
//
// Example:
//
//	cfg := core.DefaultConfig()
//	cfg.Root = "./resources"
//	dets, err := core.Scan(ctx, cfg)
//	if err != nil { /* handle */ }
//	_ = core.MarshalDetections(os.Stdout, dets)
package core
