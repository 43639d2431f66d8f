// Package engine coordinates a directory scan: it discovers candidate
// script files, fans them out to a bounded worker pool, and merges each
// file's detections into a scan session under a single lock. This package
// is internal; external consumers should use the stable facade in pkg/core.
package engine
