// Package logging builds the slog loggers used throughout ratesync.
//
// Two output formats are supported: a compact console format for interactive
// use and structured JSON for machine consumption. Standard field keys are
// exported so every component tags records consistently.
package logging
