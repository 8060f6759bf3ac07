// Package scan walks the music library and produces file descriptors.
//
// A scan is read-only and ephemeral: it touches no persistent state and its
// result is consumed within the same run by the sync engine and the
// resample pass. The only fatal condition is an unreadable root; per-file
// problems are collected alongside the descriptors so callers can report
// them without losing the rest of the library.
package scan
