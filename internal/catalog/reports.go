package catalog

import "github.com/google/uuid"

// BatchSaveOutcome records the result of one row in a batch save, in input
// order. ID is set only when Err is nil.
type BatchSaveOutcome struct {
	Index int
	ID    uuid.UUID
	Err   error
}

// Saved reports whether the row was inserted.
func (o BatchSaveOutcome) Saved() bool {
	return o.Err == nil
}

// Skipped reports whether the row lost to an already-present duplicate.
// Skips are expected during a sync and are not failures.
func (o BatchSaveOutcome) Skipped() bool {
	return IsUniqueViolation(o.Err)
}

// BatchSaveReport aggregates per-row batch save results.
type BatchSaveReport struct {
	Outcomes []BatchSaveOutcome
}

// SuccessfulIDs returns the ids of rows that saved, in batch order.
func (r *BatchSaveReport) SuccessfulIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(r.Outcomes))
	for _, outcome := range r.Outcomes {
		if outcome.Saved() {
			ids = append(ids, outcome.ID)
		}
	}
	return ids
}

// Skipped returns the outcomes dropped as duplicates.
func (r *BatchSaveReport) Skipped() []BatchSaveOutcome {
	var skipped []BatchSaveOutcome
	for _, outcome := range r.Outcomes {
		if outcome.Skipped() {
			skipped = append(skipped, outcome)
		}
	}
	return skipped
}

// Failed returns the outcomes that errored for reasons other than a
// duplicate row.
func (r *BatchSaveReport) Failed() []BatchSaveOutcome {
	var failed []BatchSaveOutcome
	for _, outcome := range r.Outcomes {
		if outcome.Err != nil && !outcome.Skipped() {
			failed = append(failed, outcome)
		}
	}
	return failed
}

// BatchDeleteFailure pairs an id with the error that kept its row in place.
type BatchDeleteFailure struct {
	ID  uuid.UUID
	Err error
}

// BatchDeleteReport aggregates per-row batch delete results.
type BatchDeleteReport struct {
	DeletedIDs []uuid.UUID
	Failed     []BatchDeleteFailure
}
