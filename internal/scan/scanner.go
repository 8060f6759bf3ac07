package scan

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Ocean50ul/home-server/internal/library"
	"github.com/Ocean50ul/home-server/internal/logging"
	"github.com/Ocean50ul/home-server/internal/media/probe"
)

// RootAccessError reports an unreadable scan root. Nothing was scanned.
type RootAccessError struct {
	Path string
	Err  error
}

func (e *RootAccessError) Error() string {
	return fmt.Sprintf("scan root %s: %v", e.Path, e.Err)
}

func (e *RootAccessError) Unwrap() error {
	return e.Err
}

// FileError records one file or directory the walk could not handle. The
// scan keeps going; these ride along in the result.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e FileError) Unwrap() error {
	return e.Err
}

// Result is the outcome of one library walk.
type Result struct {
	Descriptors []library.Descriptor
	Errors      []FileError
}

// Option configures the scanner.
type Option func(*Scanner)

// WithLogger attaches a logger for walk diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Scanner walks a music library and probes every supported audio file.
type Scanner struct {
	root   string
	prober probe.Prober
	logger *slog.Logger
}

// New constructs a scanner over root.
func New(root string, prober probe.Prober, opts ...Option) *Scanner {
	scanner := &Scanner{root: root, prober: prober, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(scanner)
	}
	return scanner
}

// Scan walks the library root. An unreadable root is the only fatal
// filesystem condition; everything else is collected per file so one bad
// entry never hides the rest of the library. Directories and symlinks are
// skipped, as are files outside the supported extension set.
func (s *Scanner) Scan(ctx context.Context) (*Result, error) {
	// Fail fast before walking, while the error still means "the whole
	// library is unreachable" rather than one bad entry.
	if _, err := os.ReadDir(s.root); err != nil {
		return nil, &RootAccessError{Path: s.root, Err: err}
	}

	result := &Result{}
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, walkErr error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if walkErr != nil {
			s.logger.Warn("walk error", "path", s.displayPath(path), "error", walkErr)
			result.Errors = append(result.Errors, FileError{Path: path, Err: walkErr})
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			s.logger.Warn("skipping symlink", "path", s.displayPath(path))
			return nil
		}
		if !library.IsSupportedExtension(filepath.Ext(path)) {
			s.logger.Warn("skipping unsupported extension", "path", s.displayPath(path))
			return nil
		}

		descriptor, err := s.processFile(ctx, path)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Warn("skipping file", "path", s.displayPath(path), "error", err)
			result.Errors = append(result.Errors, FileError{Path: path, Err: err})
			return nil
		}
		result.Descriptors = append(result.Descriptors, descriptor)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", s.root, err)
	}
	return result, nil
}

// processFile opens the file as an access check, measures it, and probes
// metadata. Probe problems degrade inside the prober; only an unreadable
// file errors here.
func (s *Scanner) processFile(ctx context.Context, path string) (library.Descriptor, error) {
	file, err := os.Open(path)
	if err != nil {
		return library.Descriptor{}, err
	}

	var size int64
	if info, statErr := file.Stat(); statErr == nil {
		size = info.Size()
	} else {
		s.logger.Warn("could not stat file, recording size 0", "path", s.displayPath(path), "error", statErr)
	}
	file.Close()

	fileType, metadata, err := s.prober.Probe(ctx, path)
	if err != nil {
		return library.Descriptor{}, err
	}

	return library.Descriptor{
		Path:     path,
		FileSize: size,
		FileType: fileType,
		Metadata: metadata,
	}, nil
}

// displayPath shortens paths under the root to "./..." for logs.
func (s *Scanner) displayPath(path string) string {
	rel, err := filepath.Rel(s.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return "./" + filepath.ToSlash(rel)
}
