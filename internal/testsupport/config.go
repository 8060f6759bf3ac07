package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Ocean50ul/home-server/internal/config"
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
	cfgVal.Library.MusicPath = filepath.Join(base, "music")
	cfgVal.Library.VideoPath = filepath.Join(base, "video")
	cfgVal.Library.FilesharingPath = filepath.Join(base, "filesharing")
	cfgVal.Library.FixturesDir = filepath.Join(base, "fixtures")
	cfgVal.Database.Path = filepath.Join(base, "library.db")
	cfgVal.Resample.CacheDir = filepath.Join(base, "music", ".resampled")
	cfgVal.FFmpeg.Dir = filepath.Join(base, "ffmpeg")
	cfgVal.Logging.Dir = filepath.Join(base, "logs")
	cfgVal.Server.Host = "127.0.0.1"

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

// WithStrategy overrides the resample strategy on the test config.
func WithStrategy(strategy string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Resample.Strategy = strategy
	}
}

// WithMaxSampleRate overrides the resample ceiling on the test config.
func WithMaxSampleRate(rate int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Resample.MaxSampleRate = rate
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, the default home-server external
// binaries are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Library.MusicPath)
}
