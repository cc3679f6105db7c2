package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument reports a malformed request or query.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidState reports a control operation whose precondition does not hold.
	ErrInvalidState = errors.New("invalid state")

	// ErrNotFound reports a missing record or completed file.
	ErrNotFound = errors.New("not found")

	// ErrUnmappedStatus reports an internal status outside the vocabulary.
	ErrUnmappedStatus = errors.New("unmapped internal status")

	// ErrUnsupported reports an accessor the record view does not provide.
	ErrUnsupported = errors.New("unsupported operation")
)

// ArgumentError describes which input was rejected and why.
type ArgumentError struct {
	Field  string // Name of the rejected input
	Reason string // Human-readable explanation
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %s: %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidArgument) hold.
func (e *ArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// StateError names the record that blocked a control operation.
type StateError struct {
	Op     string       // pause, resume or restart
	ID     int64        // Offending download id
	Status PublicStatus // Status the record was in
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s download %d: status is %s", e.Op, e.ID, e.Status)
}

// Is makes errors.Is(err, ErrInvalidState) hold.
func (e *StateError) Is(target error) bool {
	return target == ErrInvalidState
}

func invalidArgument(field, format string, args ...interface{}) error {
	return &ArgumentError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
