package prepare

import (
	"archive/zip"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/Ocean50ul/home-server/internal/catalog"
	"github.com/Ocean50ul/home-server/internal/config"
	"github.com/Ocean50ul/home-server/internal/deps"
	"github.com/Ocean50ul/home-server/internal/fileutil"
	"github.com/Ocean50ul/home-server/internal/logging"
	"github.com/Ocean50ul/home-server/internal/media/ffmpeg"
)

// Step names reported by Run, in execution order.
const (
	StepDirectories = "directories"
	StepDatabase    = "database"
	StepFFmpeg      = "ffmpeg"
	StepFixtures    = "fixtures"
)

const archiveName = "ffmpeg-download.zip"

// StepResult records the outcome of one prepare step. Skipped marks a step
// whose work was already in place before the run.
type StepResult struct {
	Name    string
	Skipped bool
	Detail  string
}

// Option configures the prepare service.
type Option func(*Service)

// WithLogger attaches a logger to the service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithHTTPClient overrides the client used for archive and checksum
// downloads.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Service) {
		if client != nil {
			s.client = client
		}
	}
}

// WithSynthesizer overrides the tone generator used for audio fixtures.
func WithSynthesizer(synth ffmpeg.Synthesizer) Option {
	return func(s *Service) {
		if synth != nil {
			s.synth = synth
		}
	}
}

// Service prepares a machine for running home-server: directories, the
// catalog database, a managed ffmpeg install and the test fixture tree.
// Every step is idempotent, so prepare can be re-run after a partial
// failure and will only do the remaining work.
type Service struct {
	cfg    *config.Config
	client *http.Client
	synth  ffmpeg.Synthesizer
	logger *slog.Logger
}

// New constructs a prepare service for cfg.
func New(cfg *config.Config, opts ...Option) *Service {
	timeout := time.Duration(cfg.FFmpeg.DownloadTimeout) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	service := &Service{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Run executes all prepare steps in order and returns their results. On
// failure the results of the steps that already finished are returned
// alongside the error.
func (s *Service) Run(ctx context.Context) ([]StepResult, error) {
	steps := []struct {
		name string
		run  func(context.Context) (StepResult, error)
	}{
		{StepDirectories, s.ensureDirectories},
		{StepDatabase, s.ensureDatabase},
		{StepFFmpeg, s.ensureFFmpeg},
		{StepFixtures, s.ensureFixtures},
	}

	results := make([]StepResult, 0, len(steps))
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		result, err := step.run(ctx)
		if err != nil {
			return results, fmt.Errorf("%s: %w", step.name, err)
		}
		s.logger.Info("prepare step finished",
			"step", result.Name,
			"skipped", result.Skipped,
			"detail", result.Detail)
		results = append(results, result)
	}
	return results, nil
}

func (s *Service) ensureDirectories(context.Context) (StepResult, error) {
	dirs := []string{
		s.cfg.Library.MusicPath,
		s.cfg.Library.VideoPath,
		s.cfg.Library.FilesharingPath,
		s.cfg.Library.FixturesDir,
		s.cfg.Resample.CacheDir,
		s.cfg.FFmpeg.Dir,
		s.cfg.Logging.Dir,
	}
	if dir := filepath.Dir(s.cfg.Database.Path); dir != "" && dir != "." {
		dirs = append(dirs, dir)
	}

	created := 0
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return StepResult{}, fmt.Errorf("create directory %q: %w", dir, err)
		}
		created++
	}

	if created == 0 {
		return StepResult{Name: StepDirectories, Skipped: true, Detail: "all directories present"}, nil
	}
	return StepResult{Name: StepDirectories, Detail: fmt.Sprintf("created %d directories", created)}, nil
}

// ensureDatabase opens and closes the catalog once. Opening runs schema
// migrations, so an existing database is upgraded in place and still
// reported as skipped.
func (s *Service) ensureDatabase(context.Context) (StepResult, error) {
	dbPath := s.cfg.Database.Path
	_, statErr := os.Stat(dbPath)
	existed := statErr == nil

	store, err := catalog.Open(s.cfg)
	if err != nil {
		return StepResult{}, err
	}
	if err := store.Close(); err != nil {
		return StepResult{}, fmt.Errorf("close catalog: %w", err)
	}

	if existed {
		return StepResult{Name: StepDatabase, Skipped: true, Detail: "already initialized at " + dbPath}, nil
	}
	return StepResult{Name: StepDatabase, Detail: "created " + dbPath}, nil
}

func (s *Service) ensureFFmpeg(ctx context.Context) (StepResult, error) {
	if status := deps.CheckFFmpeg(s.cfg); status.Available {
		detail := status.Detail
		if detail == "" {
			detail = status.Command
		}
		return StepResult{Name: StepFFmpeg, Skipped: true, Detail: detail}, nil
	}
	if err := s.installFFmpeg(ctx); err != nil {
		return StepResult{}, err
	}
	return StepResult{Name: StepFFmpeg, Detail: "installed " + s.cfg.ManagedFFmpegPath()}, nil
}

// installFFmpeg downloads the configured release archive, verifies it
// against the published checksum and extracts the ffmpeg binary into the
// managed directory.
func (s *Service) installFFmpeg(ctx context.Context) error {
	dir := strings.TrimSpace(s.cfg.FFmpeg.Dir)
	if dir == "" {
		return errors.New("ffmpeg directory not configured")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create ffmpeg directory: %w", err)
	}

	archivePath := filepath.Join(dir, archiveName)
	s.logger.Info("downloading ffmpeg archive", "url", s.cfg.FFmpeg.DownloadURL)
	if err := s.downloadArchive(ctx, s.cfg.FFmpeg.DownloadURL, archivePath); err != nil {
		return err
	}
	defer os.Remove(archivePath)

	expected, err := s.fetchChecksum(ctx, s.cfg.FFmpeg.ChecksumURL)
	if err != nil {
		return err
	}
	actual, err := fileutil.SHA256File(archivePath)
	if err != nil {
		return fmt.Errorf("hash archive: %w", err)
	}
	if !strings.EqualFold(actual, expected) {
		return fmt.Errorf("archive checksum mismatch: expected %s, got %s", expected, actual)
	}

	managed := s.cfg.ManagedFFmpegPath()
	if err := extractBinary(archivePath, managed); err != nil {
		return err
	}
	if _, err := os.Stat(managed); err != nil {
		return fmt.Errorf("ffmpeg still missing after extraction: %w", err)
	}
	s.logger.Info("installed managed ffmpeg", "path", managed)
	return nil
}

func (s *Service) downloadArchive(ctx context.Context, url, dest string) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build archive request: %w", err)
	}
	response, err := s.client.Do(request)
	if err != nil {
		return fmt.Errorf("download ffmpeg archive: %w", err)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("download ffmpeg archive: unexpected status %d", response.StatusCode)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create archive file: %w", err)
	}
	if _, err := io.Copy(out, response.Body); err != nil {
		out.Close()
		os.Remove(dest)
		return fmt.Errorf("write archive file: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close archive file: %w", err)
	}
	return nil
}

func (s *Service) fetchChecksum(ctx context.Context, url string) (string, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build checksum request: %w", err)
	}
	response, err := s.client.Do(request)
	if err != nil {
		return "", fmt.Errorf("download checksum: %w", err)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download checksum: unexpected status %d", response.StatusCode)
	}
	body, err := io.ReadAll(response.Body)
	if err != nil {
		return "", fmt.Errorf("read checksum response: %w", err)
	}
	return parseChecksum(body)
}

// parseChecksum extracts a sha256 digest from the published checksum page.
// gyan.dev wraps the digest in an HTML <pre> block; mirrors serve plain
// "digest filename" text. Either way the digest is the first 64-character
// hex token.
func parseChecksum(body []byte) (string, error) {
	text := string(body)
	if start := strings.Index(text, "<pre>"); start != -1 {
		rest := text[start+len("<pre>"):]
		if end := strings.Index(rest, "</pre>"); end != -1 {
			text = rest[:end]
		}
	}
	for _, field := range strings.Fields(text) {
		candidate := strings.ToLower(field)
		if len(candidate) == 64 && isHexDigest(candidate) {
			return candidate, nil
		}
	}
	return "", errors.New("no sha256 digest in checksum response")
}

func isHexDigest(s string) bool {
	_, err := hex.DecodeString(s)
	return err == nil
}

// extractBinary pulls the ffmpeg executable out of the release archive
// into dest. Release archives nest the binary under a versioned bin/
// directory, so entries are matched by base name.
func extractBinary(archivePath, dest string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer reader.Close()

	for _, entry := range reader.File {
		if entry.FileInfo().IsDir() {
			continue
		}
		// Zip entry names always use forward slashes.
		base := path.Base(entry.Name)
		if !strings.EqualFold(base, "ffmpeg") && !strings.EqualFold(base, "ffmpeg.exe") {
			continue
		}
		return writeBinary(entry, dest)
	}
	return errors.New("no ffmpeg binary in archive")
}

func writeBinary(entry *zip.File, dest string) error {
	in, err := entry.Open()
	if err != nil {
		return fmt.Errorf("open archive entry: %w", err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create ffmpeg directory: %w", err)
	}
	temp := dest + ".tmp"
	out, err := os.OpenFile(temp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o755)
	if err != nil {
		return fmt.Errorf("create ffmpeg binary: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(temp)
		return fmt.Errorf("write ffmpeg binary: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(temp)
		return fmt.Errorf("close ffmpeg binary: %w", err)
	}
	if err := os.Rename(temp, dest); err != nil {
		os.Remove(temp)
		return fmt.Errorf("install ffmpeg binary: %w", err)
	}
	return nil
}

// synthesizer resolves the tone generator per call so an ffmpeg installed
// earlier in the same run is picked up.
func (s *Service) synthesizer() ffmpeg.Synthesizer {
	if s.synth != nil {
		return s.synth
	}
	return ffmpeg.NewCLI(ffmpeg.WithBinary(s.cfg.FFmpegBinary()))
}
