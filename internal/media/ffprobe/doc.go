// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// This package has no home-server-specific dependencies and could be
// extracted as a standalone library.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual stream properties (sample rate, channels, tags)
//   - Format: container-level metadata (duration, size, tags)
//
// Primary entry point:
//   - Inspect: executes ffprobe and returns parsed Result
//
// Helper methods on Result provide convenient access to the first audio
// stream, sample rate, duration and case-insensitive tag lookup.
package ffprobe
