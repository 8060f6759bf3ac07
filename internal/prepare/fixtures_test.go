package prepare

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Ocean50ul/home-server/internal/media/ffmpeg"
	"github.com/Ocean50ul/home-server/internal/testsupport"
)

type fakeSynthesizer struct {
	specs []ffmpeg.ToneSpec
	err   error
}

func (f *fakeSynthesizer) Synthesize(_ context.Context, spec ffmpeg.ToneSpec) error {
	if f.err != nil {
		return f.err
	}
	f.specs = append(f.specs, spec)
	return os.WriteFile(spec.OutputPath, []byte("RIFF synthetic tone"), 0o644)
}

var _ ffmpeg.Synthesizer = (*fakeSynthesizer)(nil)

func TestGenerateFixturesLaysOutTree(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	synth := &fakeSynthesizer{}
	service := New(cfg, WithSynthesizer(synth))

	state, err := service.GenerateFixtures(context.Background())
	if err != nil {
		t.Fatalf("GenerateFixtures: %v", err)
	}

	if len(synth.specs) != 4 {
		t.Fatalf("expected 4 synthesized tones, got %d", len(synth.specs))
	}
	tagged := synth.specs[0]
	if tagged.Metadata["title"] != "FLAC test title" || tagged.Metadata["track"] != "1/1" {
		t.Fatalf("unexpected flac metadata: %v", tagged.Metadata)
	}
	if tagged.Frequency != 880 || tagged.Duration != 5 {
		t.Fatalf("unexpected tone shape: %+v", tagged)
	}
	untagged := synth.specs[3]
	if len(untagged.Metadata) != 0 {
		t.Fatalf("untagged fixture has metadata: %v", untagged.Metadata)
	}

	filesDir := filepath.Join(cfg.Library.FixturesDir, "files")
	corrupted, err := os.ReadFile(filepath.Join(filesDir, "mp3_corrupted.mp3"))
	if err != nil {
		t.Fatalf("read corrupted fixture: %v", err)
	}
	if !bytes.Equal(corrupted, corruptedFrame()) {
		t.Fatal("corrupted fixture content mismatch")
	}

	lockedInfo, err := os.Stat(filepath.Join(filesDir, "no_permission.flac"))
	if err != nil {
		t.Fatalf("stat stripped file: %v", err)
	}
	if lockedInfo.Mode().Perm() != 0 {
		t.Fatalf("stripped file mode = %v, want 0", lockedInfo.Mode().Perm())
	}

	if len(state.StrippedDirs) != 2 {
		t.Fatalf("expected 2 stripped dirs, got %d", len(state.StrippedDirs))
	}
	for _, dir := range state.StrippedDirs {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("stat stripped dir %s: %v", dir, err)
		}
		if !info.IsDir() || info.Mode().Perm() != 0 {
			t.Fatalf("stripped dir %s mode = %v, want 0", dir, info.Mode().Perm())
		}
	}

	data, err := os.ReadFile(filepath.Join(cfg.Library.FixturesDir, fixtureStateName))
	if err != nil {
		t.Fatalf("read fixture state: %v", err)
	}
	var decoded FixtureState
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode fixture state: %v", err)
	}
	if decoded.Root != cfg.Library.FixturesDir {
		t.Fatalf("state root = %q, want %q", decoded.Root, cfg.Library.FixturesDir)
	}
	if len(decoded.AudioFiles) != 5 {
		t.Fatalf("expected 5 audio files in state, got %d", len(decoded.AudioFiles))
	}
}

func TestGenerateFixturesPropagatesSynthesizerError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	service := New(cfg, WithSynthesizer(&fakeSynthesizer{err: errors.New("no such filter")}))

	_, err := service.GenerateFixtures(context.Background())
	if err == nil || !strings.Contains(err.Error(), "flac_valid_metadata.flac") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCleanupFixturesRemovesTree(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	service := New(cfg, WithSynthesizer(&fakeSynthesizer{}))

	if _, err := service.GenerateFixtures(context.Background()); err != nil {
		t.Fatalf("GenerateFixtures: %v", err)
	}
	if err := service.CleanupFixtures(); err != nil {
		t.Fatalf("CleanupFixtures: %v", err)
	}
	if _, err := os.Stat(cfg.Library.FixturesDir); !os.IsNotExist(err) {
		t.Fatalf("fixture tree still present, stat err = %v", err)
	}
}

func TestCleanupFixturesWithoutState(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	service := New(cfg)

	if err := service.CleanupFixtures(); err == nil {
		t.Fatal("expected error when state file is missing")
	}
}
