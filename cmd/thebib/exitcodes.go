package main

import (
	"errors"

	"github.com/francescoalemanno/latex-thebib/internal/bibtex"
	"github.com/francescoalemanno/latex-thebib/internal/config"
	"github.com/francescoalemanno/latex-thebib/internal/refactor"
)

// Exit codes
const (
	ExitSuccess      = 0 // Success
	ExitError        = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError  = 2 // Configuration error (unreadable config, invalid values)
	ExitDataError    = 3 // Data error (unreadable file, malformed LaTeX or BibTeX)
	ExitIncludeError = 4 // Include target missing or include cycle
)

// codedError attaches an exit code to an error.
type codedError struct {
	code int
	err  error
}

func (e *codedError) Error() string { return e.err.Error() }

func (e *codedError) Unwrap() error { return e.err }

// withCode marks err to make the process exit with code.
func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &codedError{code: code, err: err}
}

// exitCode maps an error returned by a command to the process exit code.
func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var coded *codedError
	if errors.As(err, &coded) {
		return coded.code
	}

	if errors.Is(err, config.ErrInvalidThreshold) ||
		errors.Is(err, config.ErrInvalidSubdir) ||
		errors.Is(err, config.ErrInvalidExtension) {
		return ExitConfigError
	}

	var incErr *refactor.IncludeError
	var cycleErr *refactor.CycleError
	if errors.As(err, &incErr) || errors.As(err, &cycleErr) {
		return ExitIncludeError
	}

	var parseErr *refactor.ParseError
	var fileErr *refactor.FileError
	var bibErr *bibtex.ParseError
	if errors.As(err, &parseErr) || errors.As(err, &fileErr) || errors.As(err, &bibErr) {
		return ExitDataError
	}

	return ExitError
}
