package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Ocean50ul/home-server/internal/library"
)

const trackColumns = "id, name, album_id, duration, file_path, file_size, file_type, uploaded, date_added"

func scanTrack(scanner interface{ Scan(dest ...any) error }) (library.Track, error) {
	var (
		id           uuid.UUID
		name         string
		albumID      uuid.UUID
		duration     int64
		filePath     string
		fileSize     int64
		fileTypeRaw  string
		uploadedRaw  string
		dateAddedRaw sql.NullString
	)
	if err := scanner.Scan(&id, &name, &albumID, &duration, &filePath, &fileSize, &fileTypeRaw, &uploadedRaw, &dateAddedRaw); err != nil {
		return library.Track{}, err
	}

	uploader, err := library.ParseUploader(uploadedRaw)
	if err != nil {
		return library.Track{}, fmt.Errorf("map track row: %w", err)
	}
	var dateAdded *time.Time
	if dateAddedRaw.Valid {
		if parsed, err := parseTimeString(dateAddedRaw.String); err == nil {
			dateAdded = &parsed
		}
	}

	track, err := library.NewTrack(id, name, albumID, int(duration), filePath, fileSize, library.ParseFileType(fileTypeRaw), uploader, dateAdded)
	if err != nil {
		return library.Track{}, fmt.Errorf("map track row: %w", err)
	}
	return track, nil
}

func trackArgs(track library.Track) []any {
	return []any{
		track.ID,
		track.Name,
		track.AlbumID,
		track.Duration,
		track.FilePath,
		track.FileSize,
		track.FileType.String(),
		track.Uploaded.String(),
		nullableTime(track.DateAdded),
	}
}

func saveTrack(ctx context.Context, q querier, track library.Track) (library.Track, error) {
	row := q.QueryRowContext(ctx,
		`INSERT INTO tracks (`+trackColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING `+trackColumns,
		trackArgs(track)...)
	saved, err := scanTrack(row)
	if err != nil {
		return library.Track{}, classifyErr(err)
	}
	return saved, nil
}

func saveAllTracks(ctx context.Context, q querier, tracks []library.Track) ([]uuid.UUID, error) {
	if len(tracks) == 0 {
		return nil, nil
	}
	query := `INSERT INTO tracks (` + trackColumns + `) VALUES ` + makeValueTuples(len(tracks), 9) + ` RETURNING id`
	args := make([]any, 0, len(tracks)*9)
	for _, track := range tracks {
		args = append(args, trackArgs(track)...)
	}
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classifyErr(err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0, len(tracks))
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func batchSaveTracks(ctx context.Context, q querier, tracks []library.Track) *BatchSaveReport {
	report := &BatchSaveReport{Outcomes: make([]BatchSaveOutcome, 0, len(tracks))}
	for i, track := range tracks {
		saved, err := saveTrack(ctx, q, track)
		outcome := BatchSaveOutcome{Index: i, Err: err}
		if err == nil {
			outcome.ID = saved.ID
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}
	return report
}

func deleteTrack(ctx context.Context, q querier, id uuid.UUID) error {
	res, err := q.ExecContext(ctx, `DELETE FROM tracks WHERE id = ?`, id)
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

func batchDeleteTracks(ctx context.Context, q querier, ids []uuid.UUID) *BatchDeleteReport {
	report := &BatchDeleteReport{}
	for _, id := range ids {
		if err := deleteTrack(ctx, q, id); err != nil {
			report.Failed = append(report.Failed, BatchDeleteFailure{ID: id, Err: err})
			continue
		}
		report.DeletedIDs = append(report.DeletedIDs, id)
	}
	return report
}

func deleteAllTracks(ctx context.Context, q querier, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	res, err := q.ExecContext(ctx, `DELETE FROM tracks WHERE id IN (`+makePlaceholders(len(ids))+`)`, args...)
	if err != nil {
		return 0, classifyErr(err)
	}
	return res.RowsAffected()
}

// SaveTrack inserts a single track and returns the stored row.
func (s *Store) SaveTrack(ctx context.Context, track library.Track) (library.Track, error) {
	var saved library.Track
	if err := s.withRetry(ctx, func() error {
		var err error
		saved, err = saveTrack(ctx, s.db, track)
		return err
	}); err != nil {
		return library.Track{}, fmt.Errorf("save track: %w", err)
	}
	return saved, nil
}

// SaveAllTracks inserts every track in one all-or-nothing statement.
func (s *Store) SaveAllTracks(ctx context.Context, tracks []library.Track) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := s.withRetry(ctx, func() error {
		var err error
		ids, err = saveAllTracks(ctx, s.db, tracks)
		return err
	}); err != nil {
		return nil, fmt.Errorf("save all tracks: %w", err)
	}
	return ids, nil
}

// BatchSaveTracks inserts tracks row by row and reports each outcome, so one
// duplicate path never sinks the rest of the batch.
func (s *Store) BatchSaveTracks(ctx context.Context, tracks []library.Track) *BatchSaveReport {
	return batchSaveTracks(ensureContext(ctx), s.db, tracks)
}

// TrackByID fetches a track by identifier, returning nil when absent.
func (s *Store) TrackByID(ctx context.Context, id uuid.UUID) (*library.Track, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+trackColumns+` FROM tracks WHERE id = ? LIMIT 1`, id)
	track, err := scanTrack(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("track by id: %w", classifyErr(err))
	}
	return &track, nil
}

// TrackByPath fetches a track by its stored file path, returning nil when
// absent. The lookup is exact; callers comparing scanned paths against the
// catalog should fold both sides with library.NormalizePath instead.
func (s *Store) TrackByPath(ctx context.Context, path string) (*library.Track, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+trackColumns+` FROM tracks WHERE file_path = ? LIMIT 1`, path)
	track, err := scanTrack(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("track by path: %w", classifyErr(err))
	}
	return &track, nil
}

// AllTracks returns every track ordered by name.
func (s *Store) AllTracks(ctx context.Context) ([]library.Track, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT `+trackColumns+` FROM tracks ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query tracks: %w", err)
	}
	defer rows.Close()
	return collectTracks(rows)
}

// AllTracksByAlbum returns the tracks referencing the given album.
func (s *Store) AllTracksByAlbum(ctx context.Context, albumID uuid.UUID) ([]library.Track, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT `+trackColumns+` FROM tracks WHERE album_id = ? ORDER BY name`, albumID)
	if err != nil {
		return nil, fmt.Errorf("query tracks by album: %w", err)
	}
	defer rows.Close()
	return collectTracks(rows)
}

// AllTracksByUploader returns the tracks a given uploader brought in.
func (s *Store) AllTracksByUploader(ctx context.Context, uploader library.Uploader) ([]library.Track, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT `+trackColumns+` FROM tracks WHERE uploaded = ? ORDER BY name`, uploader.String())
	if err != nil {
		return nil, fmt.Errorf("query tracks by uploader: %w", err)
	}
	defer rows.Close()
	return collectTracks(rows)
}

func collectTracks(rows *sql.Rows) ([]library.Track, error) {
	var tracks []library.Track
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}
	return tracks, rows.Err()
}

// DeleteTrack removes a track by identifier. Returns ErrNotFound when no row
// matched.
func (s *Store) DeleteTrack(ctx context.Context, id uuid.UUID) error {
	if err := s.withRetry(ctx, func() error {
		return deleteTrack(ctx, s.db, id)
	}); err != nil {
		return fmt.Errorf("delete track: %w", err)
	}
	return nil
}

// BatchDeleteTracks removes tracks one by one, reporting which ids went away
// and which stayed.
func (s *Store) BatchDeleteTracks(ctx context.Context, ids []uuid.UUID) *BatchDeleteReport {
	return batchDeleteTracks(ensureContext(ctx), s.db, ids)
}

// DeleteAllTracks removes the given ids in one statement and returns the
// affected row count.
func (s *Store) DeleteAllTracks(ctx context.Context, ids []uuid.UUID) (int64, error) {
	var affected int64
	if err := s.withRetry(ctx, func() error {
		var err error
		affected, err = deleteAllTracks(ctx, s.db, ids)
		return err
	}); err != nil {
		return 0, fmt.Errorf("delete all tracks: %w", err)
	}
	return affected, nil
}

// TrackExists reports whether a track row with the given id is present.
func (s *Store) TrackExists(ctx context.Context, id uuid.UUID) (bool, error) {
	ctx = ensureContext(ctx)
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM tracks WHERE id = ? LIMIT 1)`, id).Scan(&n); err != nil {
		return false, fmt.Errorf("track exists: %w", err)
	}
	return n != 0, nil
}

// TrackPathExists reports whether a track with the exact stored path is present.
func (s *Store) TrackPathExists(ctx context.Context, path string) (bool, error) {
	ctx = ensureContext(ctx)
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM tracks WHERE file_path = ? LIMIT 1)`, path).Scan(&n); err != nil {
		return false, fmt.Errorf("track path exists: %w", err)
	}
	return n != 0, nil
}

// SaveTrack inserts a single track inside the transaction.
func (t *Tx) SaveTrack(ctx context.Context, track library.Track) (library.Track, error) {
	saved, err := saveTrack(ensureContext(ctx), t.tx, track)
	if err != nil {
		return library.Track{}, fmt.Errorf("save track: %w", err)
	}
	return saved, nil
}

// SaveAllTracks inserts every track in one statement inside the transaction.
func (t *Tx) SaveAllTracks(ctx context.Context, tracks []library.Track) ([]uuid.UUID, error) {
	ids, err := saveAllTracks(ensureContext(ctx), t.tx, tracks)
	if err != nil {
		return nil, fmt.Errorf("save all tracks: %w", err)
	}
	return ids, nil
}

// BatchSaveTracks inserts tracks row by row inside the transaction.
func (t *Tx) BatchSaveTracks(ctx context.Context, tracks []library.Track) *BatchSaveReport {
	return batchSaveTracks(ensureContext(ctx), t.tx, tracks)
}

// DeleteTrack removes a track inside the transaction.
func (t *Tx) DeleteTrack(ctx context.Context, id uuid.UUID) error {
	if err := deleteTrack(ensureContext(ctx), t.tx, id); err != nil {
		return fmt.Errorf("delete track: %w", err)
	}
	return nil
}

// BatchDeleteTracks removes tracks one by one inside the transaction.
func (t *Tx) BatchDeleteTracks(ctx context.Context, ids []uuid.UUID) *BatchDeleteReport {
	return batchDeleteTracks(ensureContext(ctx), t.tx, ids)
}

// DeleteAllTracks removes the given ids in one statement inside the transaction.
func (t *Tx) DeleteAllTracks(ctx context.Context, ids []uuid.UUID) (int64, error) {
	affected, err := deleteAllTracks(ensureContext(ctx), t.tx, ids)
	if err != nil {
		return 0, fmt.Errorf("delete all tracks: %w", err)
	}
	return affected, nil
}
