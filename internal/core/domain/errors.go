package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ConstraintViolation is returned by the store when a unique index rejects a
// write. Field names the offending form field ("username" or "email").
type ConstraintViolation struct {
	Field string
	Err   error
}

func (e *ConstraintViolation) Error() string {
	return fmt.Sprintf("%s already exists", e.Field)
}

func (e *ConstraintViolation) Unwrap() error {
	return e.Err
}
