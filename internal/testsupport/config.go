// Package testsupport provides shared fixtures for ratesync tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"ratesync/internal/config"
)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Plex.URL = "http://127.0.0.1:32400"
	cfg.Plex.Token = "test-token"
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.ReportDir = filepath.Join(base, "reports")
	return &cfg
}
