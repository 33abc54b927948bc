package main

import "errors"

// Exit codes
const (
	ExitSuccess   = 0 // Success
	ExitError     = 1 // General error (invalid arguments, unwritable output)
	ExitDataError = 3 // Input file unreadable
)

// codedError attaches an exit code to an error.
type codedError struct {
	code int
	err  error
}

func (e *codedError) Error() string { return e.err.Error() }

func (e *codedError) Unwrap() error { return e.err }

// exitCode maps an error returned by the command to the process exit code.
func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var coded *codedError
	if errors.As(err, &coded) {
		return coded.code
	}
	return ExitError
}
