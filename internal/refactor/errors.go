package refactor

import (
	"fmt"
	"strings"
)

// FileError reports a file that could not be read or written.
type FileError struct {
	Path string
	Op   string // "read" or "write"
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// IncludeError reports an include directive whose target does not resolve
// to an existing file.
type IncludeError struct {
	File   string `json:"file"`   // file containing the directive
	Target string `json:"target"` // directive argument as written
}

func (e *IncludeError) Error() string {
	return fmt.Sprintf("%s: include target %q not found", e.File, e.Target)
}

// CycleError reports an include chain that leads back to one of its own files.
type CycleError struct {
	Chain []string // files from the first repeated file back to itself
}

func (e *CycleError) Error() string {
	return "include cycle: " + strings.Join(e.Chain, " -> ")
}

// ParseError reports a LaTeX construct that could not be interpreted.
type ParseError struct {
	File string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
