package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Library contains the media directories scanned and served by home-server.
type Library struct {
	MusicPath       string `toml:"music_path"`
	VideoPath       string `toml:"video_path"`
	FilesharingPath string `toml:"filesharing_path"`
	FixturesDir     string `toml:"fixtures_dir"`
}

// Database contains the SQLite catalog location.
type Database struct {
	Path string `toml:"path"`
}

// Resample contains configuration for the sample-rate reduction pipeline.
type Resample struct {
	MaxSampleRate    int     `toml:"max_sample_rate"`
	Strategy         string  `toml:"strategy"`
	CacheDir         string  `toml:"cache_dir"`
	EnableBackups    bool    `toml:"enable_backups"`
	ReservedFraction float64 `toml:"reserved_fraction"`
	MinParallelCores int     `toml:"min_parallel_cores"`
}

// Server contains the web preview bind settings.
type Server struct {
	Host      string `toml:"host"`
	Port      int    `toml:"port"`
	StaticDir string `toml:"static_dir"`
}

// FFmpeg contains external tool locations plus the download inputs the
// prepare service uses to install a managed copy.
type FFmpeg struct {
	Binary          string `toml:"binary"`
	FFprobeBinary   string `toml:"ffprobe_binary"`
	Dir             string `toml:"dir"`
	DownloadURL     string `toml:"download_url"`
	ChecksumURL     string `toml:"checksum_url"`
	DownloadTimeout int    `toml:"download_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	Dir    string `toml:"dir"`
}

// Config encapsulates all configuration values for home-server.
//
// Configuration sections by subsystem:
//   - Library: music/video/filesharing directories and the fixtures dir
//   - Database: SQLite catalog file location
//   - Resample: sample-rate ceiling, strategy, cache dir, and pool sizing
//   - Server: web preview bind host/port and static assets dir
//   - FFmpeg: tool binaries and managed-install download sources
//   - Logging: log format, level, and directory
type Config struct {
	Library  Library  `toml:"library"`
	Database Database `toml:"database"`
	Resample Resample `toml:"resample"`
	Server   Server   `toml:"server"`
	FFmpeg   FFmpeg   `toml:"ffmpeg"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/home-server/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	projectPath, err := filepath.Abs("config.toml")
	if err != nil {
		return "", false, err
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories home-server needs to run. Media
// directories are created on a best-effort basis so commands can start when
// external storage is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	required := []string{c.Logging.Dir}
	if dir := filepath.Dir(c.Database.Path); dir != "" && dir != "." {
		required = append(required, dir)
	}
	for _, dir := range required {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	for _, dir := range []string{c.Library.MusicPath, c.Library.VideoPath, c.Library.FilesharingPath, c.Resample.CacheDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		// Best-effort to avoid failing config load when storage is offline.
		_ = os.MkdirAll(dir, 0o755)
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable to invoke, preferring a
// managed install under FFmpeg.Dir when one exists.
func (c *Config) FFmpegBinary() string {
	if managed := c.ManagedFFmpegPath(); managed != "" {
		if info, err := os.Stat(managed); err == nil && !info.IsDir() {
			return managed
		}
	}
	if strings.TrimSpace(c.FFmpeg.Binary) != "" {
		return c.FFmpeg.Binary
	}
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for media probing.
func (c *Config) FFprobeBinary() string {
	if strings.TrimSpace(c.FFmpeg.FFprobeBinary) != "" {
		return c.FFmpeg.FFprobeBinary
	}
	return "ffprobe"
}

// ManagedFFmpegPath returns where the prepare service installs ffmpeg, or
// empty when no managed directory is configured.
func (c *Config) ManagedFFmpegPath() string {
	if strings.TrimSpace(c.FFmpeg.Dir) == "" {
		return ""
	}
	return filepath.Join(c.FFmpeg.Dir, "ffmpeg")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
