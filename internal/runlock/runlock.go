// Package runlock serializes mutating runs against one library.
//
// Sync, resample, and prepare all assume a single writer: the engine
// snapshots the catalog once and the orchestrator rewrites files in
// place. The lock turns a concurrent second run into a clean refusal
// instead of corruption.
package runlock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrHeld reports that another home-server run owns the library.
var ErrHeld = errors.New("another home-server run is already in progress")

// Lock is a file lock shared by every mutating command.
type Lock struct {
	path string
	lock *flock.Flock
}

// New builds a lock rooted in the given directory, conventionally the
// logging dir so the lock file sits next to the run logs.
func New(dir string) *Lock {
	path := filepath.Join(dir, "home-server.lock")
	return &Lock{path: path, lock: flock.New(path)}
}

// Acquire takes the lock without blocking. ErrHeld means another run
// holds it right now.
func (l *Lock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create lock dir: %w", err)
	}
	ok, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return ErrHeld
	}
	return nil
}

// Release lets the next run proceed. Safe to call when not held.
func (l *Lock) Release() error {
	return l.lock.Unlock()
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}
