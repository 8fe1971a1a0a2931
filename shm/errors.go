package shm

import (
	"errors"
	"fmt"
)

// ErrWriterActive is returned when another producer already holds the
// exclusive lock on the ring file. Exactly one writer may own a ring.
var ErrWriterActive = errors.New("shm: ring file locked by another writer")

// LayoutMismatchError reports a ring file whose header does not match
// the expected layout. Fatal at open; the field names the mismatch.
type LayoutMismatchError struct {
	Field string
	Want  uint64
	Got   uint64
}

func (e *LayoutMismatchError) Error() string {
	return fmt.Sprintf("shm: layout mismatch on %s: want %d, got %d", e.Field, e.Want, e.Got)
}

func layoutErr(field string, want, got uint64) error {
	return &LayoutMismatchError{Field: field, Want: want, Got: got}
}
