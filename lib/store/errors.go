package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when an insert violates a uniqueness constraint.
	ErrDuplicate = errors.New("duplicate")
)

// Error is a transport or query failure from the underlying database. It
// unwraps to ErrNotFound or ErrDuplicate when the driver reported one of
// those conditions.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// wrap classifies a gorm error. nil stays nil.
func wrap(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &Error{Op: op, Err: ErrNotFound}
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &Error{Op: op, Err: ErrDuplicate}
	default:
		return &Error{Op: op, Err: err}
	}
}
