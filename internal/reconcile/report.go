package reconcile

import (
	"time"

	"github.com/Ocean50ul/home-server/internal/catalog"
)

// InvalidFile records a scanned file whose metadata failed entity
// validation. The file is left out of the run and reported instead of
// aborting the sync.
type InvalidFile struct {
	Path string
	Err  error
}

// Report describes everything one reconciliation run changed.
type Report struct {
	DeletedTracks  *catalog.BatchDeleteReport
	DeletedAlbums  *catalog.BatchDeleteReport
	DeletedArtists *catalog.BatchDeleteReport

	AddedArtists *catalog.BatchSaveReport
	AddedAlbums  *catalog.BatchSaveReport
	AddedTracks  *catalog.BatchSaveReport

	InvalidFiles []InvalidFile
	Timestamp    time.Time
}

func newReport(timestamp time.Time) *Report {
	return &Report{
		DeletedTracks:  &catalog.BatchDeleteReport{},
		DeletedAlbums:  &catalog.BatchDeleteReport{},
		DeletedArtists: &catalog.BatchDeleteReport{},
		AddedArtists:   &catalog.BatchSaveReport{},
		AddedAlbums:    &catalog.BatchSaveReport{},
		AddedTracks:    &catalog.BatchSaveReport{},
		Timestamp:      timestamp,
	}
}

// Empty reports whether the run changed nothing and rejected nothing.
func (r *Report) Empty() bool {
	return len(r.DeletedTracks.DeletedIDs) == 0 && len(r.DeletedTracks.Failed) == 0 &&
		len(r.DeletedAlbums.DeletedIDs) == 0 && len(r.DeletedAlbums.Failed) == 0 &&
		len(r.DeletedArtists.DeletedIDs) == 0 && len(r.DeletedArtists.Failed) == 0 &&
		len(r.AddedArtists.Outcomes) == 0 &&
		len(r.AddedAlbums.Outcomes) == 0 &&
		len(r.AddedTracks.Outcomes) == 0 &&
		len(r.InvalidFiles) == 0
}
