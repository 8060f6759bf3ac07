package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Ocean50ul/home-server/internal/library"
)

const artistColumns = "id, name"

func scanArtist(scanner interface{ Scan(dest ...any) error }) (library.Artist, error) {
	var (
		id   uuid.UUID
		name string
	)
	if err := scanner.Scan(&id, &name); err != nil {
		return library.Artist{}, err
	}
	artist, err := library.NewArtist(id, name)
	if err != nil {
		return library.Artist{}, fmt.Errorf("map artist row: %w", err)
	}
	return artist, nil
}

func saveArtist(ctx context.Context, q querier, artist library.Artist) (library.Artist, error) {
	row := q.QueryRowContext(ctx,
		`INSERT INTO artists (id, name) VALUES (?, ?) RETURNING `+artistColumns,
		artist.ID, artist.Name)
	saved, err := scanArtist(row)
	if err != nil {
		return library.Artist{}, classifyErr(err)
	}
	return saved, nil
}

func saveAllArtists(ctx context.Context, q querier, artists []library.Artist) ([]uuid.UUID, error) {
	if len(artists) == 0 {
		return nil, nil
	}
	query := `INSERT INTO artists (id, name) VALUES ` + makeValueTuples(len(artists), 2) + ` RETURNING id`
	args := make([]any, 0, len(artists)*2)
	for _, artist := range artists {
		args = append(args, artist.ID, artist.Name)
	}
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classifyErr(err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0, len(artists))
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func batchSaveArtists(ctx context.Context, q querier, artists []library.Artist) *BatchSaveReport {
	report := &BatchSaveReport{Outcomes: make([]BatchSaveOutcome, 0, len(artists))}
	for i, artist := range artists {
		saved, err := saveArtist(ctx, q, artist)
		outcome := BatchSaveOutcome{Index: i, Err: err}
		if err == nil {
			outcome.ID = saved.ID
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}
	return report
}

func artistByID(ctx context.Context, q querier, id uuid.UUID) (*library.Artist, error) {
	row := q.QueryRowContext(ctx, `SELECT `+artistColumns+` FROM artists WHERE id = ? LIMIT 1`, id)
	artist, err := scanArtist(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("artist by id: %w", classifyErr(err))
	}
	return &artist, nil
}

func deleteArtist(ctx context.Context, q querier, id uuid.UUID) error {
	res, err := q.ExecContext(ctx, `DELETE FROM artists WHERE id = ?`, id)
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

func batchDeleteArtists(ctx context.Context, q querier, ids []uuid.UUID) *BatchDeleteReport {
	report := &BatchDeleteReport{}
	for _, id := range ids {
		if err := deleteArtist(ctx, q, id); err != nil {
			report.Failed = append(report.Failed, BatchDeleteFailure{ID: id, Err: err})
			continue
		}
		report.DeletedIDs = append(report.DeletedIDs, id)
	}
	return report
}

func deleteAllArtists(ctx context.Context, q querier, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	res, err := q.ExecContext(ctx, `DELETE FROM artists WHERE id IN (`+makePlaceholders(len(ids))+`)`, args...)
	if err != nil {
		return 0, classifyErr(err)
	}
	return res.RowsAffected()
}

// SaveArtist inserts a single artist and returns the stored row.
func (s *Store) SaveArtist(ctx context.Context, artist library.Artist) (library.Artist, error) {
	var saved library.Artist
	if err := s.withRetry(ctx, func() error {
		var err error
		saved, err = saveArtist(ctx, s.db, artist)
		return err
	}); err != nil {
		return library.Artist{}, fmt.Errorf("save artist: %w", err)
	}
	return saved, nil
}

// SaveAllArtists inserts every artist in one statement. The insert is
// all-or-nothing: a single bad row fails the whole call.
func (s *Store) SaveAllArtists(ctx context.Context, artists []library.Artist) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := s.withRetry(ctx, func() error {
		var err error
		ids, err = saveAllArtists(ctx, s.db, artists)
		return err
	}); err != nil {
		return nil, fmt.Errorf("save all artists: %w", err)
	}
	return ids, nil
}

// BatchSaveArtists inserts artists row by row and reports each outcome, so a
// duplicate name never sinks the rest of the batch.
func (s *Store) BatchSaveArtists(ctx context.Context, artists []library.Artist) *BatchSaveReport {
	return batchSaveArtists(ensureContext(ctx), s.db, artists)
}

// ArtistByID fetches an artist by identifier, returning nil when absent.
func (s *Store) ArtistByID(ctx context.Context, id uuid.UUID) (*library.Artist, error) {
	return artistByID(ensureContext(ctx), s.db, id)
}

// ArtistByName fetches an artist by normalized name, returning nil when absent.
func (s *Store) ArtistByName(ctx context.Context, name string) (*library.Artist, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+artistColumns+` FROM artists WHERE name = ? LIMIT 1`, library.NormalizeName(name))
	artist, err := scanArtist(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("artist by name: %w", classifyErr(err))
	}
	return &artist, nil
}

// AllArtists returns every artist ordered by name.
func (s *Store) AllArtists(ctx context.Context) ([]library.Artist, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT `+artistColumns+` FROM artists ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query artists: %w", err)
	}
	defer rows.Close()

	var artists []library.Artist
	for rows.Next() {
		artist, err := scanArtist(rows)
		if err != nil {
			return nil, err
		}
		artists = append(artists, artist)
	}
	return artists, rows.Err()
}

// DeleteArtist removes an artist by identifier. Returns ErrNotFound when no
// row matched.
func (s *Store) DeleteArtist(ctx context.Context, id uuid.UUID) error {
	if err := s.withRetry(ctx, func() error {
		return deleteArtist(ctx, s.db, id)
	}); err != nil {
		return fmt.Errorf("delete artist: %w", err)
	}
	return nil
}

// BatchDeleteArtists removes artists one by one, reporting which ids went
// away and which stayed (for example because albums still reference them).
func (s *Store) BatchDeleteArtists(ctx context.Context, ids []uuid.UUID) *BatchDeleteReport {
	return batchDeleteArtists(ensureContext(ctx), s.db, ids)
}

// DeleteAllArtists removes the given ids in one statement and returns the
// affected row count.
func (s *Store) DeleteAllArtists(ctx context.Context, ids []uuid.UUID) (int64, error) {
	var affected int64
	if err := s.withRetry(ctx, func() error {
		var err error
		affected, err = deleteAllArtists(ctx, s.db, ids)
		return err
	}); err != nil {
		return 0, fmt.Errorf("delete all artists: %w", err)
	}
	return affected, nil
}

// ArtistExists reports whether an artist row with the given id is present.
func (s *Store) ArtistExists(ctx context.Context, id uuid.UUID) (bool, error) {
	ctx = ensureContext(ctx)
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM artists WHERE id = ? LIMIT 1)`, id).Scan(&n); err != nil {
		return false, fmt.Errorf("artist exists: %w", err)
	}
	return n != 0, nil
}

// ArtistNameExists reports whether an artist with the normalized name is present.
func (s *Store) ArtistNameExists(ctx context.Context, name string) (bool, error) {
	ctx = ensureContext(ctx)
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM artists WHERE name = ? LIMIT 1)`, library.NormalizeName(name)).Scan(&n); err != nil {
		return false, fmt.Errorf("artist name exists: %w", err)
	}
	return n != 0, nil
}

// SaveArtist inserts a single artist inside the transaction.
func (t *Tx) SaveArtist(ctx context.Context, artist library.Artist) (library.Artist, error) {
	saved, err := saveArtist(ensureContext(ctx), t.tx, artist)
	if err != nil {
		return library.Artist{}, fmt.Errorf("save artist: %w", err)
	}
	return saved, nil
}

// SaveAllArtists inserts every artist in one statement inside the transaction.
func (t *Tx) SaveAllArtists(ctx context.Context, artists []library.Artist) ([]uuid.UUID, error) {
	ids, err := saveAllArtists(ensureContext(ctx), t.tx, artists)
	if err != nil {
		return nil, fmt.Errorf("save all artists: %w", err)
	}
	return ids, nil
}

// BatchSaveArtists inserts artists row by row inside the transaction.
func (t *Tx) BatchSaveArtists(ctx context.Context, artists []library.Artist) *BatchSaveReport {
	return batchSaveArtists(ensureContext(ctx), t.tx, artists)
}

// DeleteArtist removes an artist inside the transaction.
func (t *Tx) DeleteArtist(ctx context.Context, id uuid.UUID) error {
	if err := deleteArtist(ensureContext(ctx), t.tx, id); err != nil {
		return fmt.Errorf("delete artist: %w", err)
	}
	return nil
}

// BatchDeleteArtists removes artists one by one inside the transaction.
func (t *Tx) BatchDeleteArtists(ctx context.Context, ids []uuid.UUID) *BatchDeleteReport {
	return batchDeleteArtists(ensureContext(ctx), t.tx, ids)
}

// DeleteAllArtists removes the given ids in one statement inside the transaction.
func (t *Tx) DeleteAllArtists(ctx context.Context, ids []uuid.UUID) (int64, error) {
	affected, err := deleteAllArtists(ensureContext(ctx), t.tx, ids)
	if err != nil {
		return 0, fmt.Errorf("delete all artists: %w", err)
	}
	return affected, nil
}
