package testsupport

import (
	"path/filepath"
	"testing"

	"preroll/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test
// and scheduling intervals short enough for loop tests.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.CacheDir = filepath.Join(base, "cache")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Preload.RenderCooldownMilli = 0
	cfg.Preload.PollIntervalMillis = 1
	cfg.FFmpeg.Encoder = "software"

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithMaxCacheMiB caps the preload cache for eviction tests.
func WithMaxCacheMiB(mib int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Preload.MaxCacheMiB = mib
	}
}

// WithLookaheadMillis overrides the preload lookahead window.
func WithLookaheadMillis(ms int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Preload.LookaheadMillis = ms
	}
}
