package config

import (
	"errors"
	"fmt"
	"strings"
)

// StrategyCopyToCache writes resampled output beside the originals under the
// cache dir; StrategyInPlace replaces originals after a successful resample.
const (
	StrategyCopyToCache = "copy_to_cache"
	StrategyInPlace     = "in_place"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLibrary(); err != nil {
		return err
	}
	if err := c.validateResample(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateFFmpeg(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLibrary() error {
	if strings.TrimSpace(c.Library.MusicPath) == "" {
		return errors.New("library.music_path must be set")
	}
	if strings.TrimSpace(c.Library.VideoPath) == "" {
		return errors.New("library.video_path must be set")
	}
	if strings.TrimSpace(c.Library.FilesharingPath) == "" {
		return errors.New("library.filesharing_path must be set")
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database.path must be set")
	}
	return nil
}

func (c *Config) validateResample() error {
	switch c.Resample.Strategy {
	case StrategyCopyToCache, StrategyInPlace:
	default:
		return fmt.Errorf("resample.strategy must be %q or %q, got %q", StrategyCopyToCache, StrategyInPlace, c.Resample.Strategy)
	}
	if err := ensurePositiveMap(map[string]int{
		"resample.max_sample_rate":    c.Resample.MaxSampleRate,
		"resample.min_parallel_cores": c.Resample.MinParallelCores,
	}); err != nil {
		return err
	}
	if c.Resample.ReservedFraction < 0 || c.Resample.ReservedFraction >= 1 {
		return errors.New("resample.reserved_fraction must be in [0, 1)")
	}
	if strings.TrimSpace(c.Resample.CacheDir) == "" {
		return errors.New("resample.cache_dir must be set")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if strings.TrimSpace(c.Server.Host) == "" {
		return errors.New("server.host must be set")
	}
	return nil
}

func (c *Config) validateFFmpeg() error {
	if strings.TrimSpace(c.FFmpeg.DownloadURL) == "" {
		return errors.New("ffmpeg.download_url must be set")
	}
	if strings.TrimSpace(c.FFmpeg.ChecksumURL) == "" {
		return errors.New("ffmpeg.checksum_url must be set")
	}
	if c.FFmpeg.DownloadTimeout <= 0 {
		return errors.New("ffmpeg.download_timeout must be positive (seconds)")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
