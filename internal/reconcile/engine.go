package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Ocean50ul/home-server/internal/catalog"
	"github.com/Ocean50ul/home-server/internal/library"
	"github.com/Ocean50ul/home-server/internal/logging"
)

// Option configures the engine.
type Option func(*Engine)

// WithLogger attaches a logger for run diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Engine reconciles the catalog against one filesystem scan. Disk is
// authoritative for existence; disk metadata is authoritative for
// newly-discovered entities only.
type Engine struct {
	store  *catalog.Store
	logger *slog.Logger
}

// NewEngine constructs an engine over the given store.
func NewEngine(store *catalog.Store, opts ...Option) *Engine {
	engine := &Engine{store: store, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// Synchronize makes the catalog consistent with the scanned descriptors.
// The snapshot, the staged additions and the staged deletions are all
// computed before anything is written; the apply phase then runs inside a
// single transaction, deleting tracks, albums and artists in that order
// and inserting artists, albums and tracks in that order. Per-row
// constraint problems are captured in the report and never abort the
// transaction.
func (e *Engine) Synchronize(ctx context.Context, descriptors []library.Descriptor) (*Report, error) {
	snap, err := loadSnapshot(ctx, e.store)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("catalog snapshot loaded",
		"artists", len(snap.artists), "albums", len(snap.albums), "tracks", len(snap.tracks))

	additions, invalid := e.findNewFiles(snap, descriptors)
	deletions := e.findOrphans(snap, descriptors)
	e.logger.Info("computed library diff",
		"new_artists", len(additions.artists),
		"new_albums", len(additions.albums),
		"new_tracks", len(additions.tracks),
		"stale_tracks", len(deletions.trackIDs),
		"stale_albums", len(deletions.albumIDs),
		"stale_artists", len(deletions.artistIDs),
		"invalid_files", len(invalid))

	report := newReport(time.Now())
	report.InvalidFiles = invalid

	err = e.store.WithTx(ctx, func(tx *catalog.Tx) error {
		if !deletions.empty() {
			report.DeletedTracks = tx.BatchDeleteTracks(ctx, deletions.trackIDs)
			report.DeletedAlbums = tx.BatchDeleteAlbums(ctx, deletions.albumIDs)
			report.DeletedArtists = tx.BatchDeleteArtists(ctx, deletions.artistIDs)
		}
		if !additions.empty() {
			report.AddedArtists = tx.BatchSaveArtists(ctx, additions.artistList())
			report.AddedAlbums = tx.BatchSaveAlbums(ctx, additions.albumList())
			report.AddedTracks = tx.BatchSaveTracks(ctx, additions.trackList())
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("apply sync plan: %w", err)
	}
	return report, nil
}

// findNewFiles stages additions for every descriptor the snapshot does not
// know. Artist and album ids resolve through the snapshot first, then
// through this run's own staged entities, so two new files under the same
// new artist share one minted id. Files whose metadata fails validation
// are collected and skipped; a parent staged before its file was rejected
// simply becomes an orphan for the next run to sweep.
func (e *Engine) findNewFiles(snap *snapshot, descriptors []library.Descriptor) (*pendingAdditions, []InvalidFile) {
	additions := newPendingAdditions()
	var invalid []InvalidFile

	for _, descriptor := range descriptors {
		foldedPath := library.NormalizePath(descriptor.Path)
		if snap.hasTrackPath(foldedPath) {
			continue
		}
		if _, ok := additions.tracks[foldedPath]; ok {
			continue
		}

		artistID, err := e.resolveArtistID(snap, additions, descriptor.Metadata.ArtistName)
		if err != nil {
			invalid = append(invalid, InvalidFile{Path: descriptor.Path, Err: err})
			continue
		}
		albumID, err := e.resolveAlbumID(snap, additions, descriptor.Metadata.AlbumName, artistID, descriptor.Metadata.AlbumYear)
		if err != nil {
			invalid = append(invalid, InvalidFile{Path: descriptor.Path, Err: err})
			continue
		}

		now := time.Now()
		track, err := library.NewTrack(uuid.New(), descriptor.Metadata.TrackName, albumID,
			descriptor.Metadata.TrackDuration, descriptor.Path, descriptor.FileSize,
			descriptor.FileType, library.UploaderDenis, &now)
		if err != nil {
			invalid = append(invalid, InvalidFile{Path: descriptor.Path, Err: err})
			continue
		}
		additions.tracks[foldedPath] = track
	}

	return additions, invalid
}

func (e *Engine) resolveArtistID(snap *snapshot, additions *pendingAdditions, name string) (uuid.UUID, error) {
	key := library.NormalizeName(name)
	if artist, ok := snap.artists[key]; ok {
		return artist.ID, nil
	}
	if artist, ok := additions.artists[key]; ok {
		return artist.ID, nil
	}
	artist, err := library.NewArtist(uuid.New(), name)
	if err != nil {
		return uuid.Nil, err
	}
	additions.artists[artist.Name] = artist
	return artist.ID, nil
}

func (e *Engine) resolveAlbumID(snap *snapshot, additions *pendingAdditions, name string, artistID uuid.UUID, year int) (uuid.UUID, error) {
	key := library.AlbumKey{Name: library.NormalizeName(name), ArtistID: artistID}
	if album, ok := snap.albums[key]; ok {
		return album.ID, nil
	}
	if album, ok := additions.albums[key]; ok {
		return album.ID, nil
	}
	album, err := library.NewAlbum(uuid.New(), name, artistID, year)
	if err != nil {
		return uuid.Nil, err
	}
	additions.albums[album.Key()] = album
	return album.ID, nil
}

// findOrphans stages deletions in one pass over the pre-run snapshot. A
// track is stale when its folded path is not on disk; an album when every
// pre-run track of it is stale, or it had none; an artist when every
// pre-run album of it is stale, or it had none.
func (e *Engine) findOrphans(snap *snapshot, descriptors []library.Descriptor) *pendingDeletions {
	onDisk := make(map[string]struct{}, len(descriptors))
	for _, descriptor := range descriptors {
		onDisk[library.NormalizePath(descriptor.Path)] = struct{}{}
	}

	deletions := &pendingDeletions{}
	staleTracks := make(map[uuid.UUID]struct{})
	for _, track := range snap.tracks {
		if _, ok := onDisk[library.NormalizePath(track.FilePath)]; !ok {
			deletions.trackIDs = append(deletions.trackIDs, track.ID)
			staleTracks[track.ID] = struct{}{}
		}
	}

	staleAlbums := make(map[uuid.UUID]struct{})
	for _, album := range snap.albums {
		if allStaged(snap.albumTracks[album.ID], staleTracks) {
			deletions.albumIDs = append(deletions.albumIDs, album.ID)
			staleAlbums[album.ID] = struct{}{}
		}
	}

	for _, artist := range snap.artists {
		if allStaged(snap.artistAlbums[artist.ID], staleAlbums) {
			deletions.artistIDs = append(deletions.artistIDs, artist.ID)
		}
	}

	sortIDs(deletions.trackIDs)
	sortIDs(deletions.albumIDs)
	sortIDs(deletions.artistIDs)
	return deletions
}

// allStaged is vacuously true for an empty list: a childless parent is an
// orphan by definition.
func allStaged(ids []uuid.UUID, staged map[uuid.UUID]struct{}) bool {
	for _, id := range ids {
		if _, ok := staged[id]; !ok {
			return false
		}
	}
	return true
}

type pendingAdditions struct {
	artists map[string]library.Artist
	albums  map[library.AlbumKey]library.Album
	tracks  map[string]library.Track
}

func newPendingAdditions() *pendingAdditions {
	return &pendingAdditions{
		artists: make(map[string]library.Artist),
		albums:  make(map[library.AlbumKey]library.Album),
		tracks:  make(map[string]library.Track),
	}
}

func (p *pendingAdditions) empty() bool {
	return len(p.artists) == 0 && len(p.albums) == 0 && len(p.tracks) == 0
}

func (p *pendingAdditions) artistList() []library.Artist {
	artists := make([]library.Artist, 0, len(p.artists))
	for _, artist := range p.artists {
		artists = append(artists, artist)
	}
	sort.Slice(artists, func(i, j int) bool { return artists[i].Name < artists[j].Name })
	return artists
}

func (p *pendingAdditions) albumList() []library.Album {
	albums := make([]library.Album, 0, len(p.albums))
	for _, album := range p.albums {
		albums = append(albums, album)
	}
	sort.Slice(albums, func(i, j int) bool {
		if albums[i].Name != albums[j].Name {
			return albums[i].Name < albums[j].Name
		}
		return albums[i].ArtistID.String() < albums[j].ArtistID.String()
	})
	return albums
}

func (p *pendingAdditions) trackList() []library.Track {
	tracks := make([]library.Track, 0, len(p.tracks))
	for _, track := range p.tracks {
		tracks = append(tracks, track)
	}
	sort.Slice(tracks, func(i, j int) bool { return tracks[i].FilePath < tracks[j].FilePath })
	return tracks
}

type pendingDeletions struct {
	trackIDs  []uuid.UUID
	albumIDs  []uuid.UUID
	artistIDs []uuid.UUID
}

func (p *pendingDeletions) empty() bool {
	return len(p.trackIDs) == 0 && len(p.albumIDs) == 0 && len(p.artistIDs) == 0
}

func sortIDs(ids []uuid.UUID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
}
