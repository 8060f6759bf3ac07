package probe

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Ocean50ul/home-server/internal/library"
)

func TestProbeReadsFFprobeOutput(t *testing.T) {
	stubFFprobe(t, `#!/bin/sh
cat <<'JSON'
{"streams":[{"index":0,"codec_name":"flac","codec_type":"audio","sample_rate":"96000","channels":2}],"format":{"duration":"241.8","size":"30000000","tags":{"ARTIST":"Helper Artist","ALBUM":"Helper Album","TITLE":"Helper Title","DATE":"2023-05-12"}}}
JSON
`)

	path := filepath.Join(t.TempDir(), "song.flac")
	if err := os.WriteFile(path, []byte("not real audio"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	extractor := NewExtractor()
	fileType, meta, err := extractor.Probe(context.Background(), path)
	if err != nil {
		t.Fatalf("Probe returned error: %v", err)
	}
	if fileType != library.FileTypeFlac {
		t.Fatalf("unexpected file type: %q", fileType)
	}
	if meta.ArtistName != "helper artist" {
		t.Fatalf("expected normalized artist, got %q", meta.ArtistName)
	}
	if meta.AlbumName != "helper album" {
		t.Fatalf("unexpected album: %q", meta.AlbumName)
	}
	if meta.TrackName != "helper title" {
		t.Fatalf("unexpected title: %q", meta.TrackName)
	}
	if meta.AlbumYear != 2023 {
		t.Fatalf("expected year from date string, got %d", meta.AlbumYear)
	}
	if meta.TrackDuration != 241 {
		t.Fatalf("unexpected duration: %d", meta.TrackDuration)
	}
	if meta.SampleRate != 96000 {
		t.Fatalf("unexpected sample rate: %d", meta.SampleRate)
	}
}

func TestProbeFallsBackToTagReader(t *testing.T) {
	stubFFprobe(t, "#!/bin/sh\nexit 1\n")

	path := filepath.Join(t.TempDir(), "tagged.mp3")
	writeID3File(t, path, "Stub Artist", "Stub Album", "Stub Title")

	extractor := NewExtractor()
	fileType, meta, err := extractor.Probe(context.Background(), path)
	if err != nil {
		t.Fatalf("Probe returned error: %v", err)
	}
	if fileType != library.FileTypeMp3 {
		t.Fatalf("unexpected file type: %q", fileType)
	}
	if meta.ArtistName != "stub artist" {
		t.Fatalf("expected tag reader artist, got %q", meta.ArtistName)
	}
	if meta.AlbumName != "stub album" {
		t.Fatalf("unexpected album: %q", meta.AlbumName)
	}
	if meta.TrackName != "stub title" {
		t.Fatalf("unexpected title: %q", meta.TrackName)
	}
	if meta.SampleRate != 0 {
		t.Fatalf("tag reader cannot supply a sample rate, got %d", meta.SampleRate)
	}
}

func TestProbeKeepsDefaultsWhenNothingReadable(t *testing.T) {
	stubFFprobe(t, "#!/bin/sh\nexit 1\n")

	path := filepath.Join(t.TempDir(), "broken.mp3")
	if err := os.WriteFile(path, []byte{0xde, 0xad, 0xbe, 0xef}, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	extractor := NewExtractor()
	fileType, meta, err := extractor.Probe(context.Background(), path)
	if err != nil {
		t.Fatalf("Probe returned error: %v", err)
	}
	if fileType != library.FileTypeMp3 {
		t.Fatalf("unexpected file type: %q", fileType)
	}
	if meta != library.DefaultMetadata() {
		t.Fatalf("expected placeholder metadata, got %#v", meta)
	}
}

func TestProbeRejectsEmptyPath(t *testing.T) {
	extractor := NewExtractor()
	if _, _, err := extractor.Probe(context.Background(), "   "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestParseYear(t *testing.T) {
	cases := map[string]int{
		"2023":       2023,
		"2023-05-12": 2023,
		"  1997 ":    1997,
		"":           0,
		"abcd":       0,
	}
	for input, want := range cases {
		if got := parseYear(input); got != want {
			t.Fatalf("parseYear(%q) = %d, want %d", input, got, want)
		}
	}
}

func stubFFprobe(t *testing.T, script string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "ffprobe")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write ffprobe stub: %v", err)
	}
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

// writeID3File writes a minimal ID3v2.3 tag with no audio frames; the tag
// reader only needs the tag block.
func writeID3File(t *testing.T, path, artist, album, title string) {
	t.Helper()
	var frames []byte
	frames = append(frames, id3Frame("TPE1", artist)...)
	frames = append(frames, id3Frame("TALB", album)...)
	frames = append(frames, id3Frame("TIT2", title)...)

	total := len(frames)
	header := []byte{
		'I', 'D', '3', 0x03, 0x00, 0x00,
		byte(total >> 21 & 0x7f), byte(total >> 14 & 0x7f), byte(total >> 7 & 0x7f), byte(total & 0x7f),
	}
	if err := os.WriteFile(path, append(header, frames...), 0o644); err != nil {
		t.Fatalf("write id3 fixture: %v", err)
	}
}

func id3Frame(id, text string) []byte {
	payload := append([]byte{0x00}, []byte(text)...)
	frame := make([]byte, 0, 10+len(payload))
	frame = append(frame, id...)
	size := len(payload)
	frame = append(frame, byte(size>>24), byte(size>>16), byte(size>>8), byte(size))
	frame = append(frame, 0x00, 0x00)
	frame = append(frame, payload...)
	return frame
}
