package logs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Ocean50ul/home-server/internal/logs"
)

func TestLastLinesReturnsTrailingWindow(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "home-server.log")
	content := "a\nb\nc\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	lines, offset, err := logs.LastLines(path, 2)
	if err != nil {
		t.Fatalf("LastLines: %v", err)
	}
	if len(lines) != 2 || lines[0] != "b" || lines[1] != "c" {
		t.Fatalf("unexpected lines: %#v", lines)
	}
	if offset != int64(len(content)) {
		t.Fatalf("expected offset %d, got %d", len(content), offset)
	}
}

func TestLastLinesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "home-server.log")

	lines, offset, err := logs.LastLines(path, 10)
	if err != nil {
		t.Fatalf("LastLines: %v", err)
	}
	if len(lines) != 0 || offset != 0 {
		t.Fatalf("expected empty result for missing file, got %#v at %d", lines, offset)
	}
}

func TestFollowEmitsAppendedLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "home-server.log")
	if err := os.WriteFile(path, []byte("start\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	_, offset, err := logs.LastLines(path, 1)
	if err != nil {
		t.Fatalf("LastLines: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	emitted := make(chan string, 8)
	done := make(chan error, 1)
	go func() {
		done <- logs.Follow(ctx, path, offset, func(line string) { emitted <- line })
	}()

	appendLine(t, path, "later")
	expectLine(t, emitted, "later")
	appendLine(t, path, "even later")
	expectLine(t, emitted, "even later")

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("follow returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("follow did not stop after cancel")
	}
}

func TestFollowRestartsAfterRotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "home-server.log")
	if err := os.WriteFile(path, []byte("one\ntwo\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	_, offset, err := logs.LastLines(path, 0)
	if err != nil {
		t.Fatalf("LastLines: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	emitted := make(chan string, 8)
	go func() {
		_ = logs.Follow(ctx, path, offset, func(line string) { emitted <- line })
	}()

	if err := os.WriteFile(path, []byte("fresh\n"), 0o644); err != nil {
		t.Fatalf("rotate log: %v", err)
	}
	expectLine(t, emitted, "fresh")
}

func appendLine(t *testing.T, path, line string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	if _, err := f.WriteString(line + "\n"); err != nil {
		t.Fatalf("append log: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close log: %v", err)
	}
}

func expectLine(t *testing.T, emitted <-chan string, want string) {
	t.Helper()
	select {
	case got := <-emitted:
		if got != want {
			t.Fatalf("expected line %q, got %q", want, got)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("line %q never emitted", want)
	}
}
