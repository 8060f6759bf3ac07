package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeLibrary(); err != nil {
		return err
	}
	if err := c.normalizeDatabase(); err != nil {
		return err
	}
	if err := c.normalizeResample(); err != nil {
		return err
	}
	c.normalizeServer()
	if err := c.normalizeFFmpeg(); err != nil {
		return err
	}
	if err := c.normalizeLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) normalizeLibrary() error {
	var err error
	if strings.TrimSpace(c.Library.MusicPath) == "" {
		c.Library.MusicPath = defaultMusicPath
	}
	if c.Library.MusicPath, err = expandPath(c.Library.MusicPath); err != nil {
		return fmt.Errorf("library.music_path: %w", err)
	}
	if strings.TrimSpace(c.Library.VideoPath) == "" {
		c.Library.VideoPath = defaultVideoPath
	}
	if c.Library.VideoPath, err = expandPath(c.Library.VideoPath); err != nil {
		return fmt.Errorf("library.video_path: %w", err)
	}
	if strings.TrimSpace(c.Library.FilesharingPath) == "" {
		c.Library.FilesharingPath = defaultFilesharingPath
	}
	if c.Library.FilesharingPath, err = expandPath(c.Library.FilesharingPath); err != nil {
		return fmt.Errorf("library.filesharing_path: %w", err)
	}
	if strings.TrimSpace(c.Library.FixturesDir) == "" {
		c.Library.FixturesDir = defaultFixturesDir
	}
	if c.Library.FixturesDir, err = expandPath(c.Library.FixturesDir); err != nil {
		return fmt.Errorf("library.fixtures_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDatabase() error {
	var err error
	if strings.TrimSpace(c.Database.Path) == "" {
		c.Database.Path = defaultDatabasePath
	}
	if c.Database.Path, err = expandPath(c.Database.Path); err != nil {
		return fmt.Errorf("database.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeResample() error {
	var err error
	if c.Resample.MaxSampleRate <= 0 {
		c.Resample.MaxSampleRate = defaultMaxSampleRate
	}
	c.Resample.Strategy = strings.ToLower(strings.TrimSpace(c.Resample.Strategy))
	if c.Resample.Strategy == "" {
		c.Resample.Strategy = defaultResampleStrategy
	}
	if strings.TrimSpace(c.Resample.CacheDir) == "" {
		c.Resample.CacheDir = filepath.Join(c.Library.MusicPath, resampledDirName)
	}
	if c.Resample.CacheDir, err = expandPath(c.Resample.CacheDir); err != nil {
		return fmt.Errorf("resample.cache_dir: %w", err)
	}
	if c.Resample.ReservedFraction < 0 {
		c.Resample.ReservedFraction = defaultReservedFraction
	}
	if c.Resample.MinParallelCores <= 0 {
		c.Resample.MinParallelCores = defaultMinParallelCores
	}
	return nil
}

func (c *Config) normalizeServer() {
	c.Server.Host = strings.TrimSpace(c.Server.Host)
	if c.Server.Host == "" {
		c.Server.Host = defaultServerHost
	}
	if c.Server.Port <= 0 {
		c.Server.Port = defaultServerPort
	}
	c.Server.StaticDir = strings.TrimSpace(c.Server.StaticDir)
}

func (c *Config) normalizeFFmpeg() error {
	var err error
	c.FFmpeg.Binary = strings.TrimSpace(c.FFmpeg.Binary)
	if c.FFmpeg.Binary == "" {
		c.FFmpeg.Binary = defaultFFmpegBinary
	}
	c.FFmpeg.FFprobeBinary = strings.TrimSpace(c.FFmpeg.FFprobeBinary)
	if c.FFmpeg.FFprobeBinary == "" {
		c.FFmpeg.FFprobeBinary = defaultFFprobeBinary
	}
	if strings.TrimSpace(c.FFmpeg.Dir) == "" {
		c.FFmpeg.Dir = defaultFFmpegDir
	}
	if c.FFmpeg.Dir, err = expandPath(c.FFmpeg.Dir); err != nil {
		return fmt.Errorf("ffmpeg.dir: %w", err)
	}
	c.FFmpeg.DownloadURL = strings.TrimSpace(c.FFmpeg.DownloadURL)
	if c.FFmpeg.DownloadURL == "" {
		c.FFmpeg.DownloadURL = defaultFFmpegDownloadURL
	}
	c.FFmpeg.ChecksumURL = strings.TrimSpace(c.FFmpeg.ChecksumURL)
	if c.FFmpeg.ChecksumURL == "" {
		c.FFmpeg.ChecksumURL = defaultFFmpegChecksumURL
	}
	if c.FFmpeg.DownloadTimeout <= 0 {
		c.FFmpeg.DownloadTimeout = defaultFFmpegDownloadTimeout
	}
	return nil
}

func (c *Config) normalizeLogging() error {
	var err error
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if strings.TrimSpace(c.Logging.Dir) == "" {
		c.Logging.Dir = defaultLogDir
	}
	if c.Logging.Dir, err = expandPath(c.Logging.Dir); err != nil {
		return fmt.Errorf("logging.dir: %w", err)
	}
	return nil
}
