// Package detectors defines the backdoor pattern categories, the trusted
// domain set used to exempt legitimate remote endpoints, the line whitelist
// applied before matching, and the per-category validators applied after.
package detectors
