package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/Ocean50ul/home-server/internal/library"
)

func TestNewCLIWithBinary(t *testing.T) {
	cli := NewCLI(WithBinary("/opt/ffmpeg/ffmpeg"))
	if cli.binary != "/opt/ffmpeg/ffmpeg" {
		t.Fatalf("expected binary override to be applied, got %q", cli.binary)
	}
}

func TestResampleRequiresPaths(t *testing.T) {
	cli := NewCLI()
	if err := cli.Resample(context.Background(), "", "/tmp/out.flac", library.FileTypeFlac); err == nil {
		t.Fatal("expected error when input path is empty")
	}
	if err := cli.Resample(context.Background(), "/music/in.flac", "", library.FileTypeFlac); err == nil {
		t.Fatal("expected error when output path is empty")
	}
}

func TestResampleBuildsFlacArgs(t *testing.T) {
	args := captureArgs(t, "success")

	cli := NewCLI()
	if err := cli.Resample(context.Background(), "/music/in.flac", "/cache/in.flac", library.FileTypeFlac); err != nil {
		t.Fatalf("Resample returned error: %v", err)
	}

	captured := *args
	if len(captured) == 0 {
		t.Fatal("expected ffmpeg arguments to be captured")
	}
	assertFlagValue(t, captured, "-i", "/music/in.flac")
	assertFlagValue(t, captured, "-ar", "88200")
	assertFlagValue(t, captured, "-c:a", "flac")
	if captured[len(captured)-1] != "/cache/in.flac" {
		t.Fatalf("expected output path last, got %v", captured)
	}
}

func TestResampleMapsLossyEncoders(t *testing.T) {
	args := captureArgs(t, "success")

	cli := NewCLI()
	if err := cli.Resample(context.Background(), "/music/in.mp3", "/cache/in.mp3", library.FileTypeMp3); err != nil {
		t.Fatalf("Resample returned error: %v", err)
	}
	assertFlagValue(t, *args, "-ar", "44100")
	assertFlagValue(t, *args, "-c:a", "libmp3lame")

	if err := cli.Resample(context.Background(), "/music/in.wav", "/cache/in.wav", library.FileTypeWav); err != nil {
		t.Fatalf("Resample returned error: %v", err)
	}
	assertFlagValue(t, *args, "-c:a", "pcm_s16le")
}

func TestResampleUnknownTypeHasNoEncoder(t *testing.T) {
	invoked := false
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		invoked = true
		return exec.CommandContext(ctx, os.Args[0])
	}
	t.Cleanup(func() {
		commandContext = original
	})

	cli := NewCLI()
	err := cli.Resample(context.Background(), "/music/in.ogg", "/cache/in.ogg", library.FileTypeUnknown)
	if !errors.Is(err, ErrNoEncoder) {
		t.Fatalf("expected ErrNoEncoder, got %v", err)
	}
	if invoked {
		t.Fatal("ffmpeg should not run for an unmapped file type")
	}
}

func TestResampleFailureIncludesOutput(t *testing.T) {
	setHelperCommand(t, "failure")

	cli := NewCLI()
	err := cli.Resample(context.Background(), "/music/in.flac", "/cache/in.flac", library.FileTypeFlac)
	if err == nil {
		t.Fatal("expected resample failure")
	}
	if !strings.Contains(err.Error(), "Invalid data") {
		t.Fatalf("expected ffmpeg output in error, got %v", err)
	}
}

func TestSynthesizeBuildsSineArgs(t *testing.T) {
	args := captureArgs(t, "success")

	cli := NewCLI()
	spec := ToneSpec{
		Frequency:  880,
		Duration:   5,
		SampleRate: 96000,
		Metadata: map[string]string{
			"title":  "test title",
			"artist": "test artist",
		},
		OutputPath: "/fixtures/tone.flac",
	}
	if err := cli.Synthesize(context.Background(), spec); err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}

	captured := *args
	assertFlagValue(t, captured, "-f", "lavfi")
	assertFlagValue(t, captured, "-i", "sine=frequency=880:duration=5")
	assertFlagValue(t, captured, "-ar", "96000")
	if captured[len(captured)-1] != "/fixtures/tone.flac" {
		t.Fatalf("expected output path last, got %v", captured)
	}

	// Metadata pairs come out in sorted key order.
	var pairs []string
	for i, arg := range captured {
		if arg == "-metadata" && i+1 < len(captured) {
			pairs = append(pairs, captured[i+1])
		}
	}
	if len(pairs) != 2 || pairs[0] != "artist=test artist" || pairs[1] != "title=test title" {
		t.Fatalf("unexpected metadata args: %v", pairs)
	}
}

func TestSynthesizeDefaultsTone(t *testing.T) {
	args := captureArgs(t, "success")

	cli := NewCLI()
	if err := cli.Synthesize(context.Background(), ToneSpec{OutputPath: "/fixtures/tone.mp3"}); err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	assertFlagValue(t, *args, "-i", "sine=frequency=880:duration=5")
	for _, arg := range *args {
		if arg == "-ar" {
			t.Fatalf("zero sample rate should omit -ar, got %v", *args)
		}
	}
}

func captureArgs(t *testing.T, mode string) *[]string {
	t.Helper()
	var captured []string
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		captured = append([]string(nil), args...)
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", fmt.Sprintf("FFMPEG_HELPER_MODE=%s", mode))
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})
	return &captured
}

func setHelperCommand(t *testing.T, mode string) {
	t.Helper()
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", fmt.Sprintf("FFMPEG_HELPER_MODE=%s", mode))
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	switch os.Getenv("FFMPEG_HELPER_MODE") {
	case "success":
		os.Exit(0)
	case "failure":
		fmt.Fprintln(os.Stderr, "in.flac: Invalid data found when processing input")
		os.Exit(1)
	default:
		os.Exit(0)
	}
}

func assertFlagValue(t *testing.T, args []string, flag, want string) {
	t.Helper()
	for i, arg := range args {
		if arg == flag {
			if i+1 >= len(args) {
				t.Fatalf("%s flag present without value in %v", flag, args)
			}
			if args[i+1] != want {
				t.Fatalf("expected %s %q, got %q", flag, want, args[i+1])
			}
			return
		}
	}
	t.Fatalf("expected %s flag, got args %v", flag, args)
}
