package service

import (
	"errors"
	"fmt"
)

var (
	// ErrPageNotFound is returned when a topic, subtopic, measure or
	// measure version cannot be resolved from its slug path.
	ErrPageNotFound = errors.New("page not found")
	// ErrDimensionNotFound is returned when a dimension guid does not exist.
	ErrDimensionNotFound = errors.New("dimension not found")
	// ErrUploadNotFound is returned when an upload guid does not exist.
	ErrUploadNotFound = errors.New("upload not found")
	// ErrInvalidPageHierarchy is returned by composite lookups; the
	// underlying not-found kind is logged, not leaked.
	ErrInvalidPageHierarchy = errors.New("invalid page hierarchy")
	// ErrUpdateAlreadyExists is returned when the computed version number
	// slot is already occupied.
	ErrUpdateAlreadyExists = errors.New("a version of this measure with the requested number already exists")
	// ErrInvalidStateTransition is returned for workflow moves the current
	// status does not allow.
	ErrInvalidStateTransition = errors.New("invalid state transition")
)

// PageExistsError is returned when a measure slug collides under a subtopic.
type PageExistsError struct {
	Title    string
	Subtopic string
}

func (e *PageExistsError) Error() string {
	return fmt.Sprintf("measure with title %q already exists under the %q subtopic", e.Title, e.Subtopic)
}
