package config

import (
	"errors"
	"fmt"
)

// Errors returned by configuration operations.
var (
	// ErrUnknownFormat indicates a file extension with no matching decoder.
	ErrUnknownFormat = errors.New("unknown config format")

	// ErrInvalidNode indicates a node with a missing id or unknown kind.
	ErrInvalidNode = errors.New("invalid node")

	// ErrDuplicateNode indicates two nodes share an id.
	ErrDuplicateNode = errors.New("duplicate node id")

	// ErrUnknownParent indicates a node whose parent is not the root or an
	// earlier group.
	ErrUnknownParent = errors.New("unknown parent")

	// ErrInvalidPolicy indicates an unrecognized resolution policy name.
	ErrInvalidPolicy = errors.New("invalid policy")

	// ErrInvalidLevel indicates an unrecognized log level.
	ErrInvalidLevel = errors.New("invalid log level")
)

// ParseError represents an error while parsing a configuration file.
type ParseError struct {
	// Path is the file path that failed to parse.
	Path string
	// Line is the line number where the error occurred (if available).
	Line int
	// Column is the column number where the error occurred (if available).
	Column int
	// Message describes the parse error.
	Message string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Line > 0 && e.Column > 0 {
		return fmt.Sprintf("parse error in %s at line %d, column %d: %s", e.Path, e.Line, e.Column, e.Message)
	}
	if e.Line > 0 {
		return fmt.Sprintf("parse error in %s at line %d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error in %s: %s", e.Path, e.Message)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}
