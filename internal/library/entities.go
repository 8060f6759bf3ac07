package library

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Validation failures reject an entity before it is staged. Each is
// attributable to exactly one file or row.
var (
	ErrNameEmpty    = errors.New("name is empty after normalization")
	ErrDurationZero = errors.New("duration cannot be zero")
	ErrFileSizeZero = errors.New("file size cannot be zero")
)

// Artist is identified for dedup purposes by its normalized name; the id
// is generated, not natural.
type Artist struct {
	ID   uuid.UUID
	Name string
}

// NewArtist normalizes the name and rejects names that normalize to empty.
func NewArtist(id uuid.UUID, name string) (Artist, error) {
	normalized := NormalizeName(name)
	if normalized == "" {
		return Artist{}, ErrNameEmpty
	}
	return Artist{ID: id, Name: normalized}, nil
}

// AlbumKey is the dedup identity of an album. The same album name may
// legitimately exist under two different artists, so the artist id is part
// of the key.
type AlbumKey struct {
	Name     string
	ArtistID uuid.UUID
}

// Album belongs to exactly one artist. Year 0 means unknown.
type Album struct {
	ID       uuid.UUID
	Name     string
	ArtistID uuid.UUID
	Year     int
}

// NewAlbum normalizes the name and rejects names that normalize to empty.
func NewAlbum(id uuid.UUID, name string, artistID uuid.UUID, year int) (Album, error) {
	normalized := NormalizeName(name)
	if normalized == "" {
		return Album{}, ErrNameEmpty
	}
	return Album{ID: id, Name: normalized, ArtistID: artistID, Year: year}, nil
}

// Key returns the album's dedup identity.
func (a Album) Key() AlbumKey {
	return AlbumKey{Name: a.Name, ArtistID: a.ArtistID}
}

// Track is identified by its file path: the path, not the id, is the join
// key between disk and catalog. The path is stored exactly as scanned so
// it stays usable for I/O on case-sensitive filesystems; comparisons fold
// both sides with NormalizePath.
type Track struct {
	ID        uuid.UUID
	Name      string
	AlbumID   uuid.UUID
	Duration  int
	FilePath  string
	FileSize  int64
	FileType  FileType
	Uploaded  Uploader
	DateAdded *time.Time
}

// NewTrack normalizes the name and validates the track invariants:
// non-empty name, non-zero duration, non-zero file size.
func NewTrack(id uuid.UUID, name string, albumID uuid.UUID, duration int, filePath string, fileSize int64, fileType FileType, uploaded Uploader, dateAdded *time.Time) (Track, error) {
	normalizedName := NormalizeName(name)
	if normalizedName == "" {
		return Track{}, ErrNameEmpty
	}
	if duration == 0 {
		return Track{}, ErrDurationZero
	}
	if fileSize == 0 {
		return Track{}, ErrFileSizeZero
	}
	return Track{
		ID:        id,
		Name:      normalizedName,
		AlbumID:   albumID,
		Duration:  duration,
		FilePath:  filePath,
		FileSize:  fileSize,
		FileType:  fileType,
		Uploaded:  uploaded,
		DateAdded: dateAdded,
	}, nil
}
