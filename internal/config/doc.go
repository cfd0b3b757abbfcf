// Package config loads, validates, and normalizes ratesync configuration.
//
// Configuration is stored as TOML. Load resolves the file from an explicit
// path, ~/.config/ratesync/config.toml, or ./ratesync.toml in that order,
// merges it over repository defaults, expands filesystem paths, and
// validates the result.
package config
