package probe

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dhowden/tag"

	"github.com/Ocean50ul/home-server/internal/library"
	"github.com/Ocean50ul/home-server/internal/logging"
	"github.com/Ocean50ul/home-server/internal/media/ffprobe"
)

// Prober extracts typed metadata from one audio file.
type Prober interface {
	Probe(ctx context.Context, path string) (library.FileType, library.Metadata, error)
}

// Option configures the extractor.
type Option func(*Extractor)

// WithBinary overrides the ffprobe binary name.
func WithBinary(binary string) Option {
	return func(e *Extractor) {
		if binary != "" {
			e.binary = binary
		}
	}
}

// WithLogger attaches a logger for probe diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Extractor probes files with ffprobe and falls back to an in-process tag
// reader when the external probe fails or reports no tags.
type Extractor struct {
	binary string
	logger *slog.Logger
}

// NewExtractor constructs an extractor using defaults.
func NewExtractor(opts ...Option) *Extractor {
	extractor := &Extractor{binary: "ffprobe", logger: logging.NewNop()}
	for _, opt := range opts {
		opt(extractor)
	}
	return extractor
}

// Probe types the file by extension and fills metadata from the best
// available source. Unreadable tags degrade to placeholder metadata rather
// than failing the probe; a missing sample rate stays zero so the resample
// pass can skip the file explicitly.
func (e *Extractor) Probe(ctx context.Context, path string) (library.FileType, library.Metadata, error) {
	if strings.TrimSpace(path) == "" {
		return library.FileTypeUnknown, library.Metadata{}, errors.New("probe: empty path")
	}

	fileType := library.FileTypeFromExtension(filepath.Ext(path))
	meta := library.DefaultMetadata()

	result, err := ffprobe.Inspect(ctx, e.binary, path)
	if err != nil {
		if ctx.Err() != nil {
			return fileType, meta, ctx.Err()
		}
		e.logger.Warn("ffprobe failed, trying tag reader", "path", path, "error", err)
		e.fillFromTagReader(path, &meta)
		return fileType, meta, nil
	}

	if artist := result.Tag("artist"); strings.TrimSpace(artist) != "" {
		meta.ArtistName = library.NormalizeName(artist)
	}
	if album := result.Tag("album"); strings.TrimSpace(album) != "" {
		meta.AlbumName = library.NormalizeName(album)
	}
	if title := result.Tag("title"); strings.TrimSpace(title) != "" {
		meta.TrackName = library.NormalizeName(title)
	}
	if year := parseYear(result.Tag("date")); year > 0 {
		meta.AlbumYear = year
	}
	meta.TrackDuration = int(result.DurationSeconds())
	meta.SampleRate = result.SampleRateHz()

	// Some writers keep tags where ffprobe does not surface them.
	if meta.ArtistName == library.UnknownArtistName && meta.AlbumName == library.UnknownAlbumName && meta.TrackName == library.UnknownTrackName {
		e.fillFromTagReader(path, &meta)
	}

	return fileType, meta, nil
}

func (e *Extractor) fillFromTagReader(path string, meta *library.Metadata) {
	file, err := os.Open(path)
	if err != nil {
		e.logger.Warn("tag reader could not open file", "path", path, "error", err)
		return
	}
	defer file.Close()

	parsed, err := tag.ReadFrom(file)
	if err != nil {
		e.logger.Warn("no readable tags, keeping defaults", "path", path, "error", err)
		return
	}
	if value := strings.TrimSpace(parsed.Artist()); value != "" {
		meta.ArtistName = library.NormalizeName(value)
	}
	if value := strings.TrimSpace(parsed.Album()); value != "" {
		meta.AlbumName = library.NormalizeName(value)
	}
	if value := strings.TrimSpace(parsed.Title()); value != "" {
		meta.TrackName = library.NormalizeName(value)
	}
	if year := parsed.Year(); year > 0 && meta.AlbumYear == 0 {
		meta.AlbumYear = year
	}
}

// parseYear accepts bare years and date strings like "2023-05-12".
func parseYear(value string) int {
	value = strings.TrimSpace(value)
	if len(value) > 4 {
		value = value[:4]
	}
	year, err := strconv.Atoi(value)
	if err != nil || year < 0 {
		return 0
	}
	return year
}

var _ Prober = (*Extractor)(nil)
