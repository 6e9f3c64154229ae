package repository

import (
	"errors"
	"fmt"
)

// ErrNotFound matches any *NotFoundError through errors.Is.
var ErrNotFound = errors.New("not found")

// NotFoundError is returned when an operation targets an id with no row.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("todo with id %d not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// IsNotFound reports whether err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
