package testsupport

import (
	"path/filepath"
	"testing"

	"mover/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.WatchDir = filepath.Join(base, "done")
	cfgVal.Paths.SaveDir = filepath.Join(base, "library")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Feed.URL = "http://127.0.0.1:0/feed.rss"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithFeedURL sets the feed URL on the test config.
func WithFeedURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Feed.URL = url
	}
}

// WithRPCURL points the RPC client at the given endpoint.
func WithRPCURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.RPC.URL = url
	}
}

// WithLibraryDirs overrides the movie and tv subdirectory names.
func WithLibraryDirs(movies, tv string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Library.MoviesDir = movies
		b.cfg.Library.TVDir = tv
	}
}

// WithCreatedDirs creates the watch, save, state and log directories.
func WithCreatedDirs() ConfigOption {
	return func(b *configBuilder) {
		for _, dir := range []string{b.cfg.Paths.WatchDir, b.cfg.Paths.SaveDir, b.cfg.Paths.StateDir, b.cfg.Paths.LogDir} {
			MkdirAll(b.t, dir)
		}
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
