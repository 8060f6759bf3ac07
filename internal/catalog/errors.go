package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrNotFound reports a delete that matched no row.
var ErrNotFound = errors.New("not found")

// SQLite result codes classified as constraint violations. The driver
// usually reports the extended codes; 19 is the bare SQLITE_CONSTRAINT.
const (
	sqliteConstraintCode           = 19
	sqliteConstraintUniqueCode     = 2067
	sqliteConstraintPrimaryKeyCode = 1555
	sqliteConstraintForeignKeyCode = 787
)

// ConstraintError wraps a SQLite constraint failure so callers can tell
// duplicates and dangling references apart from real faults.
type ConstraintError struct {
	Code    int
	Message string
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("constraint violated: %s", e.Message)
}

// Unique reports whether the violation came from a UNIQUE or PRIMARY KEY
// index, which reconciliation treats as "row already present".
func (e *ConstraintError) Unique() bool {
	if e.Code == sqliteConstraintUniqueCode || e.Code == sqliteConstraintPrimaryKeyCode {
		return true
	}
	return strings.Contains(e.Message, "UNIQUE constraint")
}

// classifyErr converts driver constraint failures into *ConstraintError and
// passes every other error through untouched.
func classifyErr(err error) error {
	if err == nil {
		return nil
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) {
		switch code := coder.Code(); code {
		case sqliteConstraintCode, sqliteConstraintUniqueCode, sqliteConstraintPrimaryKeyCode, sqliteConstraintForeignKeyCode:
			return &ConstraintError{Code: code, Message: err.Error()}
		}
	}
	return err
}

// IsConstraintViolation reports whether err stems from a violated constraint.
func IsConstraintViolation(err error) bool {
	var ce *ConstraintError
	return errors.As(err, &ce)
}

// IsUniqueViolation reports whether err stems from a duplicate key.
func IsUniqueViolation(err error) bool {
	var ce *ConstraintError
	return errors.As(err, &ce) && ce.Unique()
}

func notFound(id uuid.UUID) error {
	return fmt.Errorf("%w: id %s", ErrNotFound, id)
}
