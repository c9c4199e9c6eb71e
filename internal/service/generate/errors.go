package generate

import (
	"errors"
	"io/fs"
)

// Sentinel errors matched by the typed errors below via errors.Is.
var (
	ErrNotFound = errors.New("not found")
	ErrParse    = errors.New("parse failed")
	ErrWrite    = errors.New("write failed")
)

// NotFoundError indicates a missing input path or source file.
type NotFoundError struct {
	Path string
	Err  error
}

func (e *NotFoundError) Error() string {
	return "source not found " + e.Path + ": " + e.Err.Error()
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// Is matches ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// notFound builds a NotFoundError for path. A *fs.PathError cause is
// unwrapped so the path is not repeated in the message.
func notFound(path string, err error) *NotFoundError {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		err = pathErr.Err
	}
	return &NotFoundError{Path: path, Err: err}
}

// ParseError indicates the source could not be read or parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is matches ErrParse.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// WriteError indicates a report could not be written.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return "failed to write " + e.Path + ": " + e.Err.Error()
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Is matches ErrWrite.
func (e *WriteError) Is(target error) bool {
	return target == ErrWrite
}
