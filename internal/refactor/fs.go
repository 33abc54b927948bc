package refactor

import (
	"os"
	"path/filepath"
)

// DefaultExtensions are tried in order when resolving an include target.
var DefaultExtensions = []string{"", ".tex", ".latex", ".bib", ".bbl"}

// FileSystem is the file access used by the extractor and the rewriter.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
	// WriteFile writes data to path, creating parent directories as needed.
	WriteFile(path string, data []byte) error
	// IsFile reports whether path names an existing regular file.
	IsFile(path string) bool
}

// OSFileSystem is the FileSystem backed by the operating system.
type OSFileSystem struct{}

func (OSFileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (OSFileSystem) WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (OSFileSystem) IsFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// ResolveInclude finds the file an include directive in from refers to.
// A relative target is taken from the directory of from; an absolute one is
// used as is. Each extension is appended in turn until an existing file is
// found.
func ResolveInclude(fsys FileSystem, from, target string, extensions []string) (string, bool) {
	dir := filepath.Dir(from)
	for _, ext := range extensions {
		candidate := filepath.Join(dir, target+ext)
		if filepath.IsAbs(target) {
			candidate = filepath.Clean(target + ext)
		}
		if fsys.IsFile(candidate) {
			return candidate, true
		}
	}
	return "", false
}

// OutputPath returns where the rewritten copy of path is written:
// <dir(path)>/<subdir>/<base(path)>.
func OutputPath(path, subdir string) string {
	return filepath.Join(filepath.Dir(path), subdir, filepath.Base(path))
}
