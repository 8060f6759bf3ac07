package library

import "strings"

// FileType identifies the audio container of a file on disk.
type FileType string

const (
	FileTypeFlac    FileType = "flac"
	FileTypeMp3     FileType = "mp3"
	FileTypeWav     FileType = "wav"
	FileTypeUnknown FileType = "unknown"
)

// ParseFileType maps a stored string back to a FileType, defaulting to
// FileTypeUnknown for anything unrecognized.
func ParseFileType(value string) FileType {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "flac":
		return FileTypeFlac
	case "mp3":
		return FileTypeMp3
	case "wav":
		return FileTypeWav
	default:
		return FileTypeUnknown
	}
}

// FileTypeFromExtension types a file by its extension alone. The extension
// may carry a leading dot.
func FileTypeFromExtension(ext string) FileType {
	return ParseFileType(strings.TrimPrefix(ext, "."))
}

// IsSupportedExtension reports whether the extension belongs to a container
// the scanner should probe at all.
func IsSupportedExtension(ext string) bool {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "flac", "mp3", "wav":
		return true
	default:
		return false
	}
}

func (t FileType) String() string {
	if t == "" {
		return string(FileTypeUnknown)
	}
	return string(t)
}

// TargetSampleRate returns the rate resampling converges this container to.
// Lossless containers keep 88.2 kHz; lossy ones go to 44.1 kHz.
func (t FileType) TargetSampleRate() int {
	switch t {
	case FileTypeFlac, FileTypeWav:
		return 88200
	default:
		return 44100
	}
}

// Placeholder metadata used when a file's tags cannot be read.
const (
	UnknownArtistName = "unknown artist"
	UnknownAlbumName  = "unknown album"
	UnknownTrackName  = "unknown track"
)

// Metadata carries what a probe learned about one audio file. Zero values
// mean the probe could not determine the field: AlbumYear 0, TrackDuration
// 0, and SampleRate 0 all read as "unknown".
type Metadata struct {
	ArtistName string
	AlbumName  string
	AlbumYear  int

	TrackName     string
	TrackDuration int
	SampleRate    int
}

// DefaultMetadata returns the placeholder metadata used when tags are
// missing or unreadable.
func DefaultMetadata() Metadata {
	return Metadata{
		ArtistName: UnknownArtistName,
		AlbumName:  UnknownAlbumName,
		TrackName:  UnknownTrackName,
	}
}

// Descriptor is the ephemeral record of one on-disk audio file: produced by
// a scan, consumed within the same run, never persisted. Path is the raw
// walked path; consumers normalize it at join points.
type Descriptor struct {
	Path     string
	FileSize int64
	FileType FileType
	Metadata Metadata
}
