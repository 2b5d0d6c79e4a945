package fastresume

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingRequiredField reports a decoded document with neither save path key.
	ErrMissingRequiredField = errors.New("missing required save path fields")
	// ErrInvalidField reports a path write to an unrecognized key.
	ErrInvalidField = errors.New("invalid path field")
	// ErrInvalidTarget reports an unrecognized target OS.
	ErrInvalidTarget = errors.New("invalid target os")
	// ErrEmptyPath guards against blanking the primary save path.
	ErrEmptyPath = errors.New("cannot set empty save path")
	// ErrNotFound reports a missing or non-regular record file.
	ErrNotFound = errors.New("fastresume file not found")
)

// FieldError carries the rejected key of an invalid path write.
type FieldError struct {
	Field Field
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s %q: must be one of %s, %s, %s",
		ErrInvalidField, string(e.Field), FieldSavePath, FieldQBtSavePath, FieldDownloadPath)
}

func (e *FieldError) Unwrap() error { return ErrInvalidField }

// ErrorKind classifies the failure for the run journal.
func (e *FieldError) ErrorKind() string { return "validation" }

// LoadError wraps a failure to load a single record with its file path.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ErrorKind classifies the failure for the run journal.
func (e *LoadError) ErrorKind() string {
	if errors.Is(e.Err, ErrNotFound) {
		return "not_found"
	}
	return "validation"
}
