// Package library defines the domain model of the media catalog: artists,
// albums, and tracks, plus the ephemeral descriptors a filesystem scan
// produces.
//
// Entities are normalized at construction and identified by natural dedup
// keys rather than their generated ids: artists by normalized name, albums
// by (name, artist id), tracks by normalized file path. Constructors
// validate the invariants the catalog relies on (non-empty names, non-zero
// duration and file size) so invalid rows never reach the store.
package library
