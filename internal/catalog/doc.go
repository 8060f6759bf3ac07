// Package catalog persists the music library in SQLite and exposes typed
// operations over artists, albums, and tracks.
//
// The Store manages the database connection, schema initialization, and
// busy-retry behavior. Entity operations come in three save flavors: Save
// (single row), SaveAll (multi-row, all-or-nothing), and BatchSave (per-row
// outcomes collected into a report so one duplicate never sinks the rest of
// the batch). Deletes mirror the same split. WithTx exposes the operations
// bound to a single transaction so reconciliation can apply an entire sync
// plan atomically.
//
// Rows are mapped back through the validating constructors in
// internal/library; a corrupt row surfaces as a mapping error instead of a
// half-built entity. Schema changes bump the version in schema.go; users
// delete the database file to adopt the new schema.
package catalog
