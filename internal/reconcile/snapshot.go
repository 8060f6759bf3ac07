package reconcile

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Ocean50ul/home-server/internal/catalog"
	"github.com/Ocean50ul/home-server/internal/library"
)

// snapshot is the in-memory view of the whole catalog, taken once per run.
// The two id indices are built here and never recomputed mid-run; the
// cascade only flows upward through a fixed track/album/artist hierarchy,
// so a single pass over static indices is enough.
type snapshot struct {
	tracks  map[string]library.Track      // stored path -> track
	albums  map[library.AlbumKey]library.Album
	artists map[string]library.Artist     // normalized name -> artist

	trackPaths   map[string]struct{}      // folded paths, the disk join key
	albumTracks  map[uuid.UUID][]uuid.UUID
	artistAlbums map[uuid.UUID][]uuid.UUID
}

func loadSnapshot(ctx context.Context, store *catalog.Store) (*snapshot, error) {
	artists, err := store.AllArtists(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot artists: %w", err)
	}
	albums, err := store.AllAlbums(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot albums: %w", err)
	}
	tracks, err := store.AllTracks(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot tracks: %w", err)
	}

	snap := &snapshot{
		tracks:       make(map[string]library.Track, len(tracks)),
		albums:       make(map[library.AlbumKey]library.Album, len(albums)),
		artists:      make(map[string]library.Artist, len(artists)),
		trackPaths:   make(map[string]struct{}, len(tracks)),
		albumTracks:  make(map[uuid.UUID][]uuid.UUID),
		artistAlbums: make(map[uuid.UUID][]uuid.UUID),
	}
	for _, artist := range artists {
		snap.artists[artist.Name] = artist
	}
	for _, album := range albums {
		snap.albums[album.Key()] = album
		snap.artistAlbums[album.ArtistID] = append(snap.artistAlbums[album.ArtistID], album.ID)
	}
	for _, track := range tracks {
		snap.tracks[track.FilePath] = track
		snap.trackPaths[library.NormalizePath(track.FilePath)] = struct{}{}
		snap.albumTracks[track.AlbumID] = append(snap.albumTracks[track.AlbumID], track.ID)
	}
	return snap, nil
}

func (s *snapshot) hasTrackPath(foldedPath string) bool {
	_, ok := s.trackPaths[foldedPath]
	return ok
}
