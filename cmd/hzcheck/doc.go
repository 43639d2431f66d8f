// Package hzcheck provides the command-line interface of the backdoor
// monitor. It wires configuration, the scan engine and the report writers
// behind cobra subcommands (scan, categories, report, baseline, config,
// version).
//
// Typical usage from a main package:
//
//	package main
//	import "github.com/hazteunsitio/hz-backdoor-monitor/cmd/hzcheck"
//	func main() { hzcheck.Execute() }
package hzcheck
