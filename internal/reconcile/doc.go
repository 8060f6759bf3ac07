// Package reconcile diffs a filesystem scan against the catalog and applies
// the difference in one transaction.
//
// A run has four phases: snapshot the whole catalog into memory, stage
// additions for descriptors whose folded path is unknown (sharing freshly
// minted artist and album ids across files in the same run), stage cascading
// deletions computed once from the pre-run snapshot indices, then apply
// deletes and inserts in dependency order inside a single transaction.
// Per-row constraint problems land in the report; only a transaction-level
// failure aborts the run.
package reconcile
