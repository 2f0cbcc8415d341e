// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"seedpipe/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Store.URL = "http://127.0.0.1:0"
	cfg.Store.APIKey = "test-key"
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.BackupDir = filepath.Join(base, "backups")
	cfg.Paths.ThumbnailsDir = filepath.Join(base, "thumbnails")

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithStore points the test config at a live endpoint, typically an
// httptest server.
func WithStore(url, apiKey string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Store.URL = url
		cfg.Store.APIKey = apiKey
	}
}

// WithTable overrides the store table on the test config.
func WithTable(table string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Store.Table = table
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
