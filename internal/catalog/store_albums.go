package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Ocean50ul/home-server/internal/library"
)

const albumColumns = "id, name, artist_id, year"

func scanAlbum(scanner interface{ Scan(dest ...any) error }) (library.Album, error) {
	var (
		id       uuid.UUID
		name     string
		artistID uuid.UUID
		year     sql.NullInt64
	)
	if err := scanner.Scan(&id, &name, &artistID, &year); err != nil {
		return library.Album{}, err
	}
	album, err := library.NewAlbum(id, name, artistID, int(year.Int64))
	if err != nil {
		return library.Album{}, fmt.Errorf("map album row: %w", err)
	}
	return album, nil
}

func saveAlbum(ctx context.Context, q querier, album library.Album) (library.Album, error) {
	row := q.QueryRowContext(ctx,
		`INSERT INTO albums (id, name, artist_id, year) VALUES (?, ?, ?, ?) RETURNING `+albumColumns,
		album.ID, album.Name, album.ArtistID, nullableInt(album.Year))
	saved, err := scanAlbum(row)
	if err != nil {
		return library.Album{}, classifyErr(err)
	}
	return saved, nil
}

func saveAllAlbums(ctx context.Context, q querier, albums []library.Album) ([]uuid.UUID, error) {
	if len(albums) == 0 {
		return nil, nil
	}
	query := `INSERT INTO albums (id, name, artist_id, year) VALUES ` + makeValueTuples(len(albums), 4) + ` RETURNING id`
	args := make([]any, 0, len(albums)*4)
	for _, album := range albums {
		args = append(args, album.ID, album.Name, album.ArtistID, nullableInt(album.Year))
	}
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classifyErr(err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0, len(albums))
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func batchSaveAlbums(ctx context.Context, q querier, albums []library.Album) *BatchSaveReport {
	report := &BatchSaveReport{Outcomes: make([]BatchSaveOutcome, 0, len(albums))}
	for i, album := range albums {
		saved, err := saveAlbum(ctx, q, album)
		outcome := BatchSaveOutcome{Index: i, Err: err}
		if err == nil {
			outcome.ID = saved.ID
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}
	return report
}

func deleteAlbum(ctx context.Context, q querier, id uuid.UUID) error {
	res, err := q.ExecContext(ctx, `DELETE FROM albums WHERE id = ?`, id)
	if err != nil {
		return classifyErr(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return notFound(id)
	}
	return nil
}

func batchDeleteAlbums(ctx context.Context, q querier, ids []uuid.UUID) *BatchDeleteReport {
	report := &BatchDeleteReport{}
	for _, id := range ids {
		if err := deleteAlbum(ctx, q, id); err != nil {
			report.Failed = append(report.Failed, BatchDeleteFailure{ID: id, Err: err})
			continue
		}
		report.DeletedIDs = append(report.DeletedIDs, id)
	}
	return report
}

func deleteAllAlbums(ctx context.Context, q querier, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	res, err := q.ExecContext(ctx, `DELETE FROM albums WHERE id IN (`+makePlaceholders(len(ids))+`)`, args...)
	if err != nil {
		return 0, classifyErr(err)
	}
	return res.RowsAffected()
}

// SaveAlbum inserts a single album and returns the stored row.
func (s *Store) SaveAlbum(ctx context.Context, album library.Album) (library.Album, error) {
	var saved library.Album
	if err := s.withRetry(ctx, func() error {
		var err error
		saved, err = saveAlbum(ctx, s.db, album)
		return err
	}); err != nil {
		return library.Album{}, fmt.Errorf("save album: %w", err)
	}
	return saved, nil
}

// SaveAllAlbums inserts every album in one all-or-nothing statement.
func (s *Store) SaveAllAlbums(ctx context.Context, albums []library.Album) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := s.withRetry(ctx, func() error {
		var err error
		ids, err = saveAllAlbums(ctx, s.db, albums)
		return err
	}); err != nil {
		return nil, fmt.Errorf("save all albums: %w", err)
	}
	return ids, nil
}

// BatchSaveAlbums inserts albums row by row and reports each outcome.
func (s *Store) BatchSaveAlbums(ctx context.Context, albums []library.Album) *BatchSaveReport {
	return batchSaveAlbums(ensureContext(ctx), s.db, albums)
}

// AlbumByID fetches an album by identifier, returning nil when absent.
func (s *Store) AlbumByID(ctx context.Context, id uuid.UUID) (*library.Album, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+albumColumns+` FROM albums WHERE id = ? LIMIT 1`, id)
	album, err := scanAlbum(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("album by id: %w", classifyErr(err))
	}
	return &album, nil
}

// AlbumByName fetches the first album with the normalized name, returning
// nil when absent. Albums on different artists can share a name; use
// AllAlbumsByArtist when the artist is known.
func (s *Store) AlbumByName(ctx context.Context, name string) (*library.Album, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+albumColumns+` FROM albums WHERE name = ? LIMIT 1`, library.NormalizeName(name))
	album, err := scanAlbum(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("album by name: %w", classifyErr(err))
	}
	return &album, nil
}

// AllAlbums returns every album ordered by name.
func (s *Store) AllAlbums(ctx context.Context) ([]library.Album, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT `+albumColumns+` FROM albums ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query albums: %w", err)
	}
	defer rows.Close()

	var albums []library.Album
	for rows.Next() {
		album, err := scanAlbum(rows)
		if err != nil {
			return nil, err
		}
		albums = append(albums, album)
	}
	return albums, rows.Err()
}

// AllAlbumsByArtist returns the albums referencing the given artist.
func (s *Store) AllAlbumsByArtist(ctx context.Context, artistID uuid.UUID) ([]library.Album, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT `+albumColumns+` FROM albums WHERE artist_id = ? ORDER BY name`, artistID)
	if err != nil {
		return nil, fmt.Errorf("query albums by artist: %w", err)
	}
	defer rows.Close()

	var albums []library.Album
	for rows.Next() {
		album, err := scanAlbum(rows)
		if err != nil {
			return nil, err
		}
		albums = append(albums, album)
	}
	return albums, rows.Err()
}

// DeleteAlbum removes an album by identifier. Returns ErrNotFound when no
// row matched.
func (s *Store) DeleteAlbum(ctx context.Context, id uuid.UUID) error {
	if err := s.withRetry(ctx, func() error {
		return deleteAlbum(ctx, s.db, id)
	}); err != nil {
		return fmt.Errorf("delete album: %w", err)
	}
	return nil
}

// BatchDeleteAlbums removes albums one by one, reporting which ids went away
// and which stayed (for example because tracks still reference them).
func (s *Store) BatchDeleteAlbums(ctx context.Context, ids []uuid.UUID) *BatchDeleteReport {
	return batchDeleteAlbums(ensureContext(ctx), s.db, ids)
}

// DeleteAllAlbums removes the given ids in one statement and returns the
// affected row count.
func (s *Store) DeleteAllAlbums(ctx context.Context, ids []uuid.UUID) (int64, error) {
	var affected int64
	if err := s.withRetry(ctx, func() error {
		var err error
		affected, err = deleteAllAlbums(ctx, s.db, ids)
		return err
	}); err != nil {
		return 0, fmt.Errorf("delete all albums: %w", err)
	}
	return affected, nil
}

// AlbumExists reports whether an album row with the given id is present.
func (s *Store) AlbumExists(ctx context.Context, id uuid.UUID) (bool, error) {
	ctx = ensureContext(ctx)
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM albums WHERE id = ? LIMIT 1)`, id).Scan(&n); err != nil {
		return false, fmt.Errorf("album exists: %w", err)
	}
	return n != 0, nil
}

// AlbumNameExists reports whether an album with the normalized name is present.
func (s *Store) AlbumNameExists(ctx context.Context, name string) (bool, error) {
	ctx = ensureContext(ctx)
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM albums WHERE name = ? LIMIT 1)`, library.NormalizeName(name)).Scan(&n); err != nil {
		return false, fmt.Errorf("album name exists: %w", err)
	}
	return n != 0, nil
}

// SaveAlbum inserts a single album inside the transaction.
func (t *Tx) SaveAlbum(ctx context.Context, album library.Album) (library.Album, error) {
	saved, err := saveAlbum(ensureContext(ctx), t.tx, album)
	if err != nil {
		return library.Album{}, fmt.Errorf("save album: %w", err)
	}
	return saved, nil
}

// SaveAllAlbums inserts every album in one statement inside the transaction.
func (t *Tx) SaveAllAlbums(ctx context.Context, albums []library.Album) ([]uuid.UUID, error) {
	ids, err := saveAllAlbums(ensureContext(ctx), t.tx, albums)
	if err != nil {
		return nil, fmt.Errorf("save all albums: %w", err)
	}
	return ids, nil
}

// BatchSaveAlbums inserts albums row by row inside the transaction.
func (t *Tx) BatchSaveAlbums(ctx context.Context, albums []library.Album) *BatchSaveReport {
	return batchSaveAlbums(ensureContext(ctx), t.tx, albums)
}

// DeleteAlbum removes an album inside the transaction.
func (t *Tx) DeleteAlbum(ctx context.Context, id uuid.UUID) error {
	if err := deleteAlbum(ensureContext(ctx), t.tx, id); err != nil {
		return fmt.Errorf("delete album: %w", err)
	}
	return nil
}

// BatchDeleteAlbums removes albums one by one inside the transaction.
func (t *Tx) BatchDeleteAlbums(ctx context.Context, ids []uuid.UUID) *BatchDeleteReport {
	return batchDeleteAlbums(ensureContext(ctx), t.tx, ids)
}

// DeleteAllAlbums removes the given ids in one statement inside the transaction.
func (t *Tx) DeleteAllAlbums(ctx context.Context, ids []uuid.UUID) (int64, error) {
	affected, err := deleteAllAlbums(ensureContext(ctx), t.tx, ids)
	if err != nil {
		return 0, fmt.Errorf("delete all albums: %w", err)
	}
	return affected, nil
}
