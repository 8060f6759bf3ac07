package config

const (
	defaultMusicPath       = "~/media/music"
	defaultVideoPath       = "~/media/video"
	defaultFilesharingPath = "~/media/filesharing"
	defaultFixturesDir     = "~/.local/share/home-server/fixtures"
	defaultDatabasePath    = "~/.local/share/home-server/library.db"
	defaultLogDir          = "~/.local/share/home-server/logs"
	defaultFFmpegDir       = "~/.local/share/home-server/ffmpeg"

	defaultMaxSampleRate    = 88_200
	defaultResampleStrategy = "copy_to_cache"
	defaultReservedFraction = 0.3
	defaultMinParallelCores = 5

	defaultServerHost = "0.0.0.0"
	defaultServerPort = 3000

	defaultFFmpegBinary          = "ffmpeg"
	defaultFFprobeBinary         = "ffprobe"
	defaultFFmpegDownloadURL     = "https://www.gyan.dev/ffmpeg/builds/ffmpeg-release-essentials.zip"
	defaultFFmpegChecksumURL     = "https://www.gyan.dev/ffmpeg/builds/ffmpeg-release-essentials.zip.sha256"
	defaultFFmpegDownloadTimeout = 300

	defaultLogFormat = "console"
	defaultLogLevel  = "info"

	// Directory under the music root that receives resampled copies when the
	// cache strategy is active. Hidden so the scanner's extension filter never
	// has to special-case it.
	resampledDirName = ".resampled"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Library: Library{
			MusicPath:       defaultMusicPath,
			VideoPath:       defaultVideoPath,
			FilesharingPath: defaultFilesharingPath,
			FixturesDir:     defaultFixturesDir,
		},
		Database: Database{
			Path: defaultDatabasePath,
		},
		Resample: Resample{
			MaxSampleRate:    defaultMaxSampleRate,
			Strategy:         defaultResampleStrategy,
			ReservedFraction: defaultReservedFraction,
			MinParallelCores: defaultMinParallelCores,
		},
		Server: Server{
			Host: defaultServerHost,
			Port: defaultServerPort,
		},
		FFmpeg: FFmpeg{
			Binary:          defaultFFmpegBinary,
			FFprobeBinary:   defaultFFprobeBinary,
			Dir:             defaultFFmpegDir,
			DownloadURL:     defaultFFmpegDownloadURL,
			ChecksumURL:     defaultFFmpegChecksumURL,
			DownloadTimeout: defaultFFmpegDownloadTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
			Dir:    defaultLogDir,
		},
	}
}
