package runlock_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Ocean50ul/home-server/internal/runlock"
)

func TestAcquireAndRelease(t *testing.T) {
	dir := t.TempDir()
	lock := runlock.New(dir)

	if err := lock.Acquire(); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := lock.Acquire(); err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("final release: %v", err)
	}
}

func TestSecondAcquireIsRefused(t *testing.T) {
	dir := t.TempDir()
	first := runlock.New(dir)
	second := runlock.New(dir)

	if err := first.Acquire(); err != nil {
		t.Fatalf("first Acquire: %v", err)
	}
	defer first.Release()

	if err := second.Acquire(); !errors.Is(err, runlock.ErrHeld) {
		t.Fatalf("expected ErrHeld, got %v", err)
	}

	if err := first.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := second.Acquire(); err != nil {
		t.Fatalf("Acquire after first released: %v", err)
	}
	if err := second.Release(); err != nil {
		t.Fatalf("second Release: %v", err)
	}
}

func TestAcquireCreatesLockDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs", "nested")
	lock := runlock.New(dir)

	if err := lock.Acquire(); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer lock.Release()

	if _, err := os.Stat(lock.Path()); err != nil {
		t.Fatalf("lock file should exist at %s: %v", lock.Path(), err)
	}
}
