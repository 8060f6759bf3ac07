// Package resample converts library files above a sample-rate ceiling
// using a bounded worker pool.
//
// Every descriptor is decided independently: skipped with a reason,
// converted, or recorded as that file's error. One file's failure never
// stops the rest of the run. With the in-place strategy the original file
// is replaced only after its conversion fully succeeded; with the
// copy-to-cache strategy originals are never touched at all.
package resample
