// Package errs defines the interpreter's single error shape: a message
// paired with one of the exit codes from the documented error taxonomy
// (CLI/IO 10-11, document 31-32, semantic 52-58). internal/maincmd
// unwraps it to a process exit code; every layer of the pipeline (CLI,
// document load, integrity check, execution) returns errors through this
// one type rather than ad hoc wrapping at each layer.
package errs

import "fmt"

// Error is a fatal interpreter error carrying the exit code it must produce.
type Error struct {
	Code int
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

// New builds an *Error with the given exit code and message.
func New(code int, msg string) *Error { return &Error{Code: code, Msg: msg} }

// Newf builds an *Error with a formatted message.
func Newf(code int, format string, args ...interface{}) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// CodeOf returns the exit code carried by err, or 99 if err is not an *Error
// (an internal/unexpected failure, never part of the documented taxonomy).
func CodeOf(err error) int {
	if err == nil {
		return 0
	}
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return 99
}
