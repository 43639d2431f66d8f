// Package config loads scanner configuration from YAML files, JSON5 files
// written for the original checker, .env files and HZCHECK_* environment
// variables, and layers them onto the engine defaults. CLI flags are
// applied last by the caller.
package config
