package bencode

import (
	"errors"
	"fmt"
)

// ErrMalformed matches every decode-time syntax violation.
var ErrMalformed = errors.New("malformed bencode")

// SyntaxError describes where decoding failed.
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("malformed bencode at offset %d: %s", e.Offset, e.Msg)
}

func (e *SyntaxError) Unwrap() error { return ErrMalformed }

// ErrorKind classifies decode failures for the run journal.
func (e *SyntaxError) ErrorKind() string { return "validation" }
