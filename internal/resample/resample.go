package resample

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Ocean50ul/home-server/internal/config"
	"github.com/Ocean50ul/home-server/internal/fileutil"
	"github.com/Ocean50ul/home-server/internal/library"
	"github.com/Ocean50ul/home-server/internal/logging"
	"github.com/Ocean50ul/home-server/internal/media/ffmpeg"
)

// SkipReason explains why a file was left alone.
type SkipReason string

const (
	// SkipNoSampleRate marks files whose probe never determined a rate.
	SkipNoSampleRate SkipReason = "no_sample_rate"
	// SkipAtOrBelowTarget marks files already within the configured ceiling.
	SkipAtOrBelowTarget SkipReason = "at_or_below_target"
	// SkipInvalidPath marks files whose path carries no usable file name.
	SkipInvalidPath SkipReason = "invalid_path"
)

// SkippedFile pairs a path with the reason it was not converted.
type SkippedFile struct {
	Path   string
	Reason SkipReason
}

// ErroredFile pairs a path with the error that stopped its conversion.
type ErroredFile struct {
	Path string
	Err  error
}

// Report describes one resample run. Every input descriptor lands in
// exactly one of the three lists.
type Report struct {
	Processed []string
	Skipped   []SkippedFile
	Errored   []ErroredFile
}

// Empty reports whether the run had nothing to do at all.
func (r *Report) Empty() bool {
	return len(r.Processed) == 0 && len(r.Skipped) == 0 && len(r.Errored) == 0
}

// Option configures the orchestrator.
type Option func(*Orchestrator)

// WithLogger attaches a logger for run diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Orchestrator fans descriptors out to a bounded worker pool and converts
// every file above the sample-rate ceiling with the configured strategy.
// Each file is decided and converted independently; workers share nothing
// but the pool itself.
type Orchestrator struct {
	cfg       *config.Config
	resampler ffmpeg.Resampler
	logger    *slog.Logger
}

// New constructs an orchestrator over the given conversion backend.
func New(cfg *config.Config, resampler ffmpeg.Resampler, opts ...Option) *Orchestrator {
	orchestrator := &Orchestrator{cfg: cfg, resampler: resampler, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(orchestrator)
	}
	return orchestrator
}

const backupDirName = "backups"

// ResampleLibrary converts the given descriptors with a pool sized once
// per call from the configured parallelism policy. Per-file problems are
// collected into the report; only an unusable policy, an unwritable cache
// directory, or cancellation fails the run as a whole.
func (o *Orchestrator) ResampleLibrary(ctx context.Context, descriptors []library.Descriptor) (*Report, error) {
	policy := ParallelismPolicy{
		ReservedFraction: o.cfg.Resample.ReservedFraction,
		MinParallelCores: o.cfg.Resample.MinParallelCores,
	}
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("parallelism policy: %w", err)
	}
	workers := policy.Workers(runtime.NumCPU())

	if err := os.MkdirAll(o.cfg.Resample.CacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	if o.cfg.Resample.EnableBackups && o.cfg.Resample.Strategy == config.StrategyInPlace {
		if err := os.MkdirAll(o.backupDir(), 0o755); err != nil {
			return nil, fmt.Errorf("create backup dir: %w", err)
		}
	}

	o.logger.Info("resampling library",
		"files", len(descriptors),
		"workers", workers,
		"strategy", o.cfg.Resample.Strategy,
		"max_sample_rate", o.cfg.Resample.MaxSampleRate)

	outcomes := make([]outcome, len(descriptors))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)
	for i, descriptor := range descriptors {
		i, descriptor := i, descriptor
		group.Go(func() error {
			outcomes[i] = o.processOne(groupCtx, descriptor)
			return nil
		})
	}
	// Workers never return errors; per-file failures live in their outcome
	// slot, so Wait only synchronizes.
	_ = group.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := &Report{}
	for _, result := range outcomes {
		switch {
		case result.err != nil:
			report.Errored = append(report.Errored, ErroredFile{Path: result.path, Err: result.err})
		case result.reason != "":
			report.Skipped = append(report.Skipped, SkippedFile{Path: result.path, Reason: result.reason})
		default:
			report.Processed = append(report.Processed, result.path)
		}
	}
	o.logger.Info("resample run finished",
		"processed", len(report.Processed),
		"skipped", len(report.Skipped),
		"errored", len(report.Errored))
	return report, nil
}

// outcome is one worker's verdict for one file. reason and err are
// mutually exclusive; both empty means the file was converted.
type outcome struct {
	path   string
	reason SkipReason
	err    error
}

func (o *Orchestrator) processOne(ctx context.Context, descriptor library.Descriptor) outcome {
	result := outcome{path: descriptor.Path}
	if err := ctx.Err(); err != nil {
		result.err = err
		return result
	}

	rate := descriptor.Metadata.SampleRate
	if rate == 0 {
		result.reason = SkipNoSampleRate
		return result
	}
	if rate <= o.cfg.Resample.MaxSampleRate {
		result.reason = SkipAtOrBelowTarget
		return result
	}
	base := filepath.Base(descriptor.Path)
	if !usableFileName(base) {
		result.reason = SkipInvalidPath
		return result
	}

	var err error
	switch o.cfg.Resample.Strategy {
	case config.StrategyInPlace:
		err = o.resampleInPlace(ctx, descriptor, base)
	default:
		err = o.resampleToCache(ctx, descriptor, base)
	}
	if err != nil {
		result.err = err
		return result
	}
	o.logger.Debug("resampled file",
		"path", descriptor.Path,
		"from_hz", rate,
		"to_hz", descriptor.FileType.TargetSampleRate())
	return result
}

func (o *Orchestrator) resampleToCache(ctx context.Context, descriptor library.Descriptor, base string) error {
	output := filepath.Join(o.cfg.Resample.CacheDir, base)
	return o.resampler.Resample(ctx, descriptor.Path, output, descriptor.FileType)
}

// resampleInPlace converts into a temporary file in the cache dir and
// renames it over the original only after the conversion succeeded, so a
// failed conversion never touches the source file.
func (o *Orchestrator) resampleInPlace(ctx context.Context, descriptor library.Descriptor, base string) error {
	temp, err := tempOutputPath(o.cfg.Resample.CacheDir, base)
	if err != nil {
		return fmt.Errorf("reserve temp output: %w", err)
	}
	if err := o.resampler.Resample(ctx, descriptor.Path, temp, descriptor.FileType); err != nil {
		_ = os.Remove(temp)
		return err
	}
	if o.cfg.Resample.EnableBackups {
		backup := filepath.Join(o.backupDir(), base)
		if err := fileutil.CopyFileVerified(descriptor.Path, backup); err != nil {
			_ = os.Remove(temp)
			return fmt.Errorf("back up original: %w", err)
		}
	}
	if err := os.Rename(temp, descriptor.Path); err != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace original: %w", err)
	}
	return nil
}

func (o *Orchestrator) backupDir() string {
	return filepath.Join(o.cfg.Resample.CacheDir, backupDirName)
}

// tempOutputPath reserves a unique output file in dir that keeps the
// extension of base, since the converter infers the container from it.
// Unique names keep two same-named files in different directories from
// clobbering each other's temp output mid-run.
func tempOutputPath(dir, base string) (string, error) {
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	file, err := os.CreateTemp(dir, stem+"-*"+ext)
	if err != nil {
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", err
	}
	return file.Name(), nil
}

func usableFileName(base string) bool {
	switch base {
	case "", ".", "..", string(filepath.Separator):
		return false
	}
	return true
}
