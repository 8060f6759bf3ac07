package testsupport

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Ocean50ul/home-server/internal/catalog"
	"github.com/Ocean50ul/home-server/internal/config"
	"github.com/Ocean50ul/home-server/internal/library"
)

// MustOpenStore opens a catalog.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustSaveArtist inserts an artist for tests using the provided store.
func MustSaveArtist(t testing.TB, store *catalog.Store, name string) library.Artist {
	t.Helper()

	artist, err := library.NewArtist(uuid.New(), name)
	if err != nil {
		t.Fatalf("library.NewArtist: %v", err)
	}
	saved, err := store.SaveArtist(context.Background(), artist)
	if err != nil {
		t.Fatalf("store.SaveArtist: %v", err)
	}
	return saved
}

// MustSaveAlbum inserts an album for tests using the provided store.
func MustSaveAlbum(t testing.TB, store *catalog.Store, name string, artistID uuid.UUID, year int) library.Album {
	t.Helper()

	album, err := library.NewAlbum(uuid.New(), name, artistID, year)
	if err != nil {
		t.Fatalf("library.NewAlbum: %v", err)
	}
	saved, err := store.SaveAlbum(context.Background(), album)
	if err != nil {
		t.Fatalf("store.SaveAlbum: %v", err)
	}
	return saved
}

// MustSaveTrack inserts a track with serviceable defaults for tests.
func MustSaveTrack(t testing.TB, store *catalog.Store, name string, albumID uuid.UUID, path string) library.Track {
	t.Helper()

	now := time.Now().UTC()
	track, err := library.NewTrack(uuid.New(), name, albumID, 180, path, 1<<20, library.FileTypeFlac, library.UploaderDenis, &now)
	if err != nil {
		t.Fatalf("library.NewTrack: %v", err)
	}
	saved, err := store.SaveTrack(context.Background(), track)
	if err != nil {
		t.Fatalf("store.SaveTrack: %v", err)
	}
	return saved
}
