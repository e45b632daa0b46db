package core

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyName          = errors.New("empty month name")
	ErrDuplicateMonth     = errors.New("month already exists")
	ErrEmptyDescription   = errors.New("empty description")
	ErrEmptySource        = errors.New("empty source")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInconsistentStatus = errors.New("status does not match paid amount")
)

// ValidationError reports user input that was rejected before any mutation.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// IndexError reports a month or entry position outside the current bounds.
type IndexError struct {
	Kind  string // "month", "expense" or "income"
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%s index %d out of range [0,%d)", e.Kind, e.Index, e.Len)
}

// ImportError reports a snapshot document that could not replace the store.
type ImportError struct {
	Reason string
	Err    error
}

func (e *ImportError) Error() string {
	if e.Err != nil {
		return e.Reason + ": " + e.Err.Error()
	}
	return e.Reason
}

func (e *ImportError) Unwrap() error { return e.Err }

// IsValidation, IsIndex and IsImport classify errors at the caller boundary.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsIndex(err error) bool {
	var target *IndexError
	return errors.As(err, &target)
}

func IsImport(err error) bool {
	var target *ImportError
	return errors.As(err, &target)
}
