// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"github.com/duarteocarmo/limpa/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.WorkDir = filepath.Join(base, "work")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.LLM.APIKey = "test"
	cfg.Transcriber.BaseURL = "http://127.0.0.1:0"
	cfg.Store.Bucket = "test-bucket"
	cfg.Store.AccessKeyID = "test"
	cfg.Store.SecretAccessKey = "test"
	cfg.Store.PublicBaseURL = "https://store.test/test-bucket"

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithAdFreeTag overrides the configured ad-free title tag.
func WithAdFreeTag(tag string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Feed.AdFreeTag = tag
	}
}

// WithEpisodesPerRefresh overrides how many recent episodes a refresh scans.
func WithEpisodesPerRefresh(n int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Feed.EpisodesPerRefresh = n
	}
}
