package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	"github.com/Ocean50ul/home-server/internal/library"
)

var commandContext = exec.CommandContext

// ErrNoEncoder marks a file type no ffmpeg encoder is mapped to.
var ErrNoEncoder = errors.New("no encoder for file type")

// Resampler converts one audio file to its container's target sample rate.
type Resampler interface {
	Resample(ctx context.Context, inputPath, outputPath string, fileType library.FileType) error
}

// Synthesizer generates synthetic audio files for fixtures.
type Synthesizer interface {
	Synthesize(ctx context.Context, spec ToneSpec) error
}

// ToneSpec describes one synthetic sine-wave file.
type ToneSpec struct {
	Frequency  int
	Duration   int
	SampleRate int
	Metadata   map[string]string
	OutputPath string
}

// Option configures the CLI client.
type Option func(*CLI)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// CLI wraps the ffmpeg command-line tool.
type CLI struct {
	binary string
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "ffmpeg"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Resample re-encodes inputPath at the container's target rate into
// outputPath. The output is overwritten when present so a retried run does
// not stall on ffmpeg's overwrite prompt.
func (c *CLI) Resample(ctx context.Context, inputPath, outputPath string, fileType library.FileType) error {
	if strings.TrimSpace(inputPath) == "" {
		return errors.New("input path required")
	}
	if strings.TrimSpace(outputPath) == "" {
		return errors.New("output path required")
	}
	encoder, err := encoderFor(fileType)
	if err != nil {
		return err
	}

	args := []string{
		"-hide_banner", "-loglevel", "error", "-nostdin", "-y",
		"-i", inputPath,
		"-ar", strconv.Itoa(fileType.TargetSampleRate()),
		"-c:a", encoder,
		outputPath,
	}
	return c.run(ctx, "resample", args)
}

// Synthesize renders the tone described by spec. Metadata pairs are passed
// in sorted key order so invocations are reproducible.
func (c *CLI) Synthesize(ctx context.Context, spec ToneSpec) error {
	if strings.TrimSpace(spec.OutputPath) == "" {
		return errors.New("output path required")
	}
	frequency := spec.Frequency
	if frequency <= 0 {
		frequency = 880
	}
	duration := spec.Duration
	if duration <= 0 {
		duration = 5
	}

	args := []string{
		"-hide_banner", "-loglevel", "error", "-nostdin", "-y",
		"-f", "lavfi",
		"-i", fmt.Sprintf("sine=frequency=%d:duration=%d", frequency, duration),
	}
	if spec.SampleRate > 0 {
		args = append(args, "-ar", strconv.Itoa(spec.SampleRate))
	}
	keys := make([]string, 0, len(spec.Metadata))
	for key := range spec.Metadata {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		args = append(args, "-metadata", fmt.Sprintf("%s=%s", key, spec.Metadata[key]))
	}
	args = append(args, spec.OutputPath)
	return c.run(ctx, "synthesize", args)
}

func (c *CLI) run(ctx context.Context, verb string, args []string) error {
	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg %s: %w: %s", verb, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// encoderFor maps containers to encoder names ffmpeg actually registers.
// The container names themselves are not encoders: "wav" only names a
// muxer, and "mp3" resolves to an encoder on some builds only.
func encoderFor(fileType library.FileType) (string, error) {
	switch fileType {
	case library.FileTypeFlac:
		return "flac", nil
	case library.FileTypeMp3:
		return "libmp3lame", nil
	case library.FileTypeWav:
		return "pcm_s16le", nil
	default:
		return "", fmt.Errorf("%w %q", ErrNoEncoder, fileType)
	}
}

var _ Resampler = (*CLI)(nil)
var _ Synthesizer = (*CLI)(nil)
