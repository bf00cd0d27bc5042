package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is matched by every ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when an ID does not name a stored entry.
	ErrNotFound = errors.New("entry not found")

	// ErrStore is matched by every StoreError.
	ErrStore = errors.New("store failure")

	// ErrOpen is matched by every OpenError.
	ErrOpen = errors.New("open failure")
)

// ValidationError rejects input before any state changes.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// StoreError wraps a durable read or write failure.
type StoreError struct {
	Op      string // "load" | "save"
	Backend string // "file" | "redis" | "sqlite"
	Err     error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s store %s failed: %v", e.Backend, e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool { return target == ErrStore }

// OpenError wraps a failed activation of a reference.
type OpenError struct {
	Ref Reference
	Err error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("failed to open %s %q: %v", e.Ref.Kind, e.Ref.Value, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

func (e *OpenError) Is(target error) bool { return target == ErrOpen }
