// Package prepare bootstraps a machine for home-server: required
// directories, the catalog database, a checksum-verified managed ffmpeg
// install and the synthetic test fixture tree. Steps are idempotent and
// individually skippable, so a partially prepared environment can be
// finished by re-running.
package prepare
