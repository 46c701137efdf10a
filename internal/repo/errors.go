package repo

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a key has no record. For pending
	// exchanges this is an expected outcome, not a failure.
	ErrNotFound = gorm.ErrRecordNotFound

	// ErrDuplicate indicates the key already holds a record; the existing
	// record is left untouched.
	ErrDuplicate = errors.New("duplicate")
)

// isUniqueViolation recognizes duplicate-key failures across drivers.
// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique") ||
		strings.Contains(low, "duplicate key value")
}
