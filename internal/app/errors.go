package app

import (
	"errors"
)

// Application errors.
var (
	// ErrUnknownDumpFormat indicates a dump format other than yaml, toml,
	// text or none.
	ErrUnknownDumpFormat = errors.New("unknown dump format")
)

// InitError reports which component failed to initialize.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return "init " + e.Component + ": " + e.Err.Error()
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// ScriptError reports a Lua script failure.
type ScriptError struct {
	Source string // Script path or "<string>"
	Err    error  // Underlying Lua error
}

func (e *ScriptError) Error() string {
	return "script " + e.Source + ": " + e.Err.Error()
}

func (e *ScriptError) Unwrap() error {
	return e.Err
}
