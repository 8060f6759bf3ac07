package resample_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/Ocean50ul/home-server/internal/config"
	"github.com/Ocean50ul/home-server/internal/library"
	"github.com/Ocean50ul/home-server/internal/resample"
	"github.com/Ocean50ul/home-server/internal/testsupport"
)

type resampleCall struct {
	input    string
	output   string
	fileType library.FileType
}

// fakeResampler records calls and optionally writes payload to the output
// path, standing in for a real conversion. Safe for concurrent workers.
type fakeResampler struct {
	mu      sync.Mutex
	calls   []resampleCall
	fail    map[string]error
	payload string
}

func (f *fakeResampler) Resample(ctx context.Context, inputPath, outputPath string, fileType library.FileType) error {
	f.mu.Lock()
	f.calls = append(f.calls, resampleCall{input: inputPath, output: outputPath, fileType: fileType})
	f.mu.Unlock()

	if err := f.fail[inputPath]; err != nil {
		return err
	}
	if f.payload != "" {
		return os.WriteFile(outputPath, []byte(f.payload), 0o644)
	}
	return nil
}

func (f *fakeResampler) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func flacDescriptor(path string, sampleRate int) library.Descriptor {
	return library.Descriptor{
		Path:     path,
		FileSize: 4096,
		FileType: library.FileTypeFlac,
		Metadata: library.Metadata{
			ArtistName:    "artist",
			AlbumName:     "album",
			TrackName:     "track",
			TrackDuration: 200,
			SampleRate:    sampleRate,
		},
	}
}

func TestPolicyWorkers(t *testing.T) {
	cases := []struct {
		name   string
		policy resample.ParallelismPolicy
		cores  int
		want   int
	}{
		{"below minimum forces single worker", resample.DefaultPolicy(), 4, 1},
		{"at minimum", resample.DefaultPolicy(), 5, 3},
		{"eight cores", resample.DefaultPolicy(), 8, 5},
		{"sixteen cores", resample.DefaultPolicy(), 16, 11},
		{"zero reservation uses every core", resample.ParallelismPolicy{ReservedFraction: 0, MinParallelCores: 2}, 8, 8},
		{"heavy reservation floors at one", resample.ParallelismPolicy{ReservedFraction: 0.99, MinParallelCores: 2}, 8, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.policy.Workers(tc.cores); got != tc.want {
				t.Fatalf("Workers(%d) = %d, want %d", tc.cores, got, tc.want)
			}
		})
	}
}

func TestPolicyValidate(t *testing.T) {
	valid := resample.ParallelismPolicy{ReservedFraction: 0, MinParallelCores: 1}
	if err := valid.Validate(); err != nil {
		t.Fatalf("zero reservation should be legal: %v", err)
	}

	rejected := []resample.ParallelismPolicy{
		{ReservedFraction: -0.1, MinParallelCores: 5},
		{ReservedFraction: 1.0, MinParallelCores: 5},
		{ReservedFraction: 0.3, MinParallelCores: 0},
	}
	for _, policy := range rejected {
		if err := policy.Validate(); err == nil {
			t.Fatalf("expected %+v to be rejected", policy)
		}
	}
}

func TestResampleLibrarySkipReasons(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	fake := &fakeResampler{}
	orchestrator := resample.New(cfg, fake)

	descriptors := []library.Descriptor{
		flacDescriptor("/music/no-rate.flac", 0),
		flacDescriptor("/music/below.flac", 44100),
		flacDescriptor("/music/at-max.flac", 88200),
		flacDescriptor("/", 192000),
		flacDescriptor("/music/hot.flac", 192000),
	}

	report, err := orchestrator.ResampleLibrary(context.Background(), descriptors)
	if err != nil {
		t.Fatalf("ResampleLibrary: %v", err)
	}

	reasons := make(map[string]resample.SkipReason, len(report.Skipped))
	for _, skipped := range report.Skipped {
		reasons[skipped.Path] = skipped.Reason
	}
	want := map[string]resample.SkipReason{
		"/music/no-rate.flac": resample.SkipNoSampleRate,
		"/music/below.flac":   resample.SkipAtOrBelowTarget,
		"/music/at-max.flac":  resample.SkipAtOrBelowTarget,
		"/":                   resample.SkipInvalidPath,
	}
	if len(reasons) != len(want) {
		t.Fatalf("skip map mismatch: got %v, want %v", reasons, want)
	}
	for path, reason := range want {
		if reasons[path] != reason {
			t.Fatalf("skip reason for %s = %q, want %q", path, reasons[path], reason)
		}
	}
	if len(report.Errored) != 0 {
		t.Fatalf("unexpected errors: %+v", report.Errored)
	}
	if len(report.Processed) != 1 || report.Processed[0] != "/music/hot.flac" {
		t.Fatalf("expected exactly the hot file processed, got %v", report.Processed)
	}

	if got := fake.callCount(); got != 1 {
		t.Fatalf("expected one conversion call, got %d", got)
	}
	call := fake.calls[0]
	if call.input != "/music/hot.flac" {
		t.Fatalf("unexpected input: %q", call.input)
	}
	if wantOut := filepath.Join(cfg.Resample.CacheDir, "hot.flac"); call.output != wantOut {
		t.Fatalf("cache output = %q, want %q", call.output, wantOut)
	}
	if call.fileType != library.FileTypeFlac {
		t.Fatalf("unexpected file type: %q", call.fileType)
	}
}

func TestResampleLibraryProcessesManyFiles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	fake := &fakeResampler{}
	orchestrator := resample.New(cfg, fake)

	var descriptors []library.Descriptor
	for i := 0; i < 12; i++ {
		path := filepath.Join("/music", "track-"+string(rune('a'+i))+".flac")
		descriptors = append(descriptors, flacDescriptor(path, 176400))
	}

	report, err := orchestrator.ResampleLibrary(context.Background(), descriptors)
	if err != nil {
		t.Fatalf("ResampleLibrary: %v", err)
	}
	if len(report.Processed) != len(descriptors) {
		t.Fatalf("processed %d of %d", len(report.Processed), len(descriptors))
	}
	if got := fake.callCount(); got != len(descriptors) {
		t.Fatalf("expected one call per file, got %d", got)
	}
}

func TestResampleLibraryInPlaceReplacesAfterSuccess(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStrategy(config.StrategyInPlace))
	if err := os.MkdirAll(cfg.Library.MusicPath, 0o755); err != nil {
		t.Fatal(err)
	}
	original := filepath.Join(cfg.Library.MusicPath, "loud.flac")
	if err := os.WriteFile(original, []byte("original audio"), 0o644); err != nil {
		t.Fatal(err)
	}

	fake := &fakeResampler{payload: "converted audio"}
	orchestrator := resample.New(cfg, fake)

	report, err := orchestrator.ResampleLibrary(context.Background(), []library.Descriptor{flacDescriptor(original, 192000)})
	if err != nil {
		t.Fatalf("ResampleLibrary: %v", err)
	}
	if len(report.Processed) != 1 {
		t.Fatalf("expected the file processed, got %+v", report)
	}

	content, err := os.ReadFile(original)
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "converted audio" {
		t.Fatalf("original should hold the converted audio, got %q", content)
	}

	entries, err := os.ReadDir(cfg.Resample.CacheDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("cache dir should have no leftovers, got %v", entries)
	}

	if got := fake.calls[0].output; !strings.HasSuffix(got, ".flac") {
		t.Fatalf("temp output should keep the container extension, got %q", got)
	}
	if dir := filepath.Dir(fake.calls[0].output); dir != cfg.Resample.CacheDir {
		t.Fatalf("temp output should live in the cache dir, got %q", dir)
	}
}

func TestResampleLibraryInPlaceKeepsOriginalOnFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStrategy(config.StrategyInPlace))
	if err := os.MkdirAll(cfg.Library.MusicPath, 0o755); err != nil {
		t.Fatal(err)
	}
	original := filepath.Join(cfg.Library.MusicPath, "loud.flac")
	if err := os.WriteFile(original, []byte("original audio"), 0o644); err != nil {
		t.Fatal(err)
	}

	fake := &fakeResampler{fail: map[string]error{original: errors.New("codec exploded")}}
	orchestrator := resample.New(cfg, fake)

	report, err := orchestrator.ResampleLibrary(context.Background(), []library.Descriptor{flacDescriptor(original, 192000)})
	if err != nil {
		t.Fatalf("ResampleLibrary: %v", err)
	}
	if len(report.Errored) != 1 || report.Errored[0].Path != original {
		t.Fatalf("expected one errored file, got %+v", report)
	}
	if !strings.Contains(report.Errored[0].Err.Error(), "codec exploded") {
		t.Fatalf("error should carry the backend failure, got %v", report.Errored[0].Err)
	}

	content, err := os.ReadFile(original)
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "original audio" {
		t.Fatalf("failed conversion must leave the original untouched, got %q", content)
	}

	entries, err := os.ReadDir(cfg.Resample.CacheDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("temp output should be removed after failure, got %v", entries)
	}
}

func TestResampleLibraryBacksUpOriginals(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStrategy(config.StrategyInPlace))
	cfg.Resample.EnableBackups = true
	if err := os.MkdirAll(cfg.Library.MusicPath, 0o755); err != nil {
		t.Fatal(err)
	}
	original := filepath.Join(cfg.Library.MusicPath, "loud.flac")
	if err := os.WriteFile(original, []byte("original audio"), 0o644); err != nil {
		t.Fatal(err)
	}

	fake := &fakeResampler{payload: "converted audio"}
	orchestrator := resample.New(cfg, fake)

	if _, err := orchestrator.ResampleLibrary(context.Background(), []library.Descriptor{flacDescriptor(original, 192000)}); err != nil {
		t.Fatalf("ResampleLibrary: %v", err)
	}

	backup, err := os.ReadFile(filepath.Join(cfg.Resample.CacheDir, "backups", "loud.flac"))
	if err != nil {
		t.Fatalf("expected a backup of the original: %v", err)
	}
	if string(backup) != "original audio" {
		t.Fatalf("backup should hold the pre-conversion audio, got %q", backup)
	}

	content, err := os.ReadFile(original)
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "converted audio" {
		t.Fatalf("original should hold the converted audio, got %q", content)
	}
}

func TestResampleLibraryRejectsBadPolicy(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Resample.ReservedFraction = 1.5

	_, err := resample.New(cfg, &fakeResampler{}).ResampleLibrary(context.Background(), nil)
	if err == nil {
		t.Fatal("expected policy validation to fail the run")
	}
}

func TestResampleLibraryStopsWhenCancelled(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := resample.New(cfg, &fakeResampler{}).ResampleLibrary(ctx, []library.Descriptor{
		flacDescriptor("/music/hot.flac", 192000),
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
