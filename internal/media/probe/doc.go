// Package probe turns audio files on disk into typed library metadata.
//
// The extractor shells out to ffprobe for stream properties (sample rate,
// duration) and container tags, then falls back to an in-process ID3/Vorbis
// tag reader when ffprobe fails or surfaces nothing. Metadata problems never
// fail a probe: unreadable tags degrade to placeholder names and a sample
// rate of zero, which downstream passes treat as "unknown".
package probe
