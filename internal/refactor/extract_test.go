package refactor

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

// writeTree creates files under dir from a relative path -> content map.
func writeTree(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func citationKeys(t *testing.T, ext *Extraction) [][]string {
	t.Helper()
	keys := make([][]string, len(ext.Citations))
	for i, c := range ext.Citations {
		keys[i] = c.Keys
	}
	return keys
}

func TestExtract_InOrderTraversal(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"main.tex": `Intro \cite{a}
\input{chap}
After \citep{d}
\begin{thebibliography}{9}
\bibitem{a} Entry A
\end{thebibliography}`,
		"chap.tex": `Chapter \citet{b, c} % \cite{hidden}
\include{sub/deep}`,
		"sub/deep.tex": `Deep \cite{e}
\begin{thebibliography}{9}
\bibitem{e} Entry E
\end{thebibliography}`,
	})

	ext, err := Extract(filepath.Join(dir, "main.tex"), Options{})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	want := [][]string{{"a"}, {"b", "c"}, {"e"}, {"d"}}
	if got := citationKeys(t, ext); !reflect.DeepEqual(got, want) {
		t.Errorf("citation keys = %v, want %v", got, want)
	}
	if ext.Citations[1].Kind != "citet" || ext.Citations[3].Kind != "citep" {
		t.Errorf("kinds = %q, %q", ext.Citations[1].Kind, ext.Citations[3].Kind)
	}

	if len(ext.Entries) != 2 || ext.Entries[0].Key != "a" || ext.Entries[1].Key != "e" {
		t.Errorf("entries = %+v, want a then e", ext.Entries)
	}

	wantFiles := []string{
		filepath.Join(dir, "main.tex"),
		filepath.Join(dir, "chap.tex"),
		filepath.Join(dir, "sub", "deep.tex"),
	}
	if !reflect.DeepEqual(ext.Files, wantFiles) {
		t.Errorf("Files = %v, want %v", ext.Files, wantFiles)
	}
}

func TestExtract_ExtensionOrder(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"main.tex":  `\input{refs}`,
		"refs.bbl":  `\begin{thebibliography}{9}\bibitem{bbl} From bbl\end{thebibliography}`,
		"refs.tex":  `\begin{thebibliography}{9}\bibitem{tex} From tex\end{thebibliography}`,
		"other.bib": ``,
	})

	ext, err := Extract(filepath.Join(dir, "main.tex"), Options{})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(ext.Entries) != 1 || ext.Entries[0].Key != "tex" {
		t.Errorf("entries = %+v, want the .tex file to win over .bbl", ext.Entries)
	}
}

func TestExtract_MissingInclude(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"main.tex": `\cite{a} \input{nowhere} \cite{b}`,
	})
	root := filepath.Join(dir, "main.tex")

	_, err := Extract(root, Options{})
	var incErr *IncludeError
	if !errors.As(err, &incErr) {
		t.Fatalf("Extract() error = %v, want *IncludeError", err)
	}
	if incErr.Target != "nowhere" || incErr.File != root {
		t.Errorf("IncludeError = %+v", incErr)
	}

	ext, err := Extract(root, Options{SkipMissing: true})
	if err != nil {
		t.Fatalf("Extract(SkipMissing) error = %v", err)
	}
	if len(ext.Skipped) != 1 || ext.Skipped[0].Target != "nowhere" {
		t.Errorf("Skipped = %+v, want one entry for nowhere", ext.Skipped)
	}
	if len(ext.Citations) != 2 {
		t.Errorf("Citations = %+v, want both citations around the skipped include", ext.Citations)
	}
}

func TestExtract_Cycle(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"a.tex": `\input{b}`,
		"b.tex": `\input{c}`,
		"c.tex": `\input{a}`,
	})

	_, err := Extract(filepath.Join(dir, "a.tex"), Options{})
	var cycle *CycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("Extract() error = %v, want *CycleError", err)
	}
	if len(cycle.Chain) != 4 {
		t.Errorf("Chain = %v, want a -> b -> c -> a", cycle.Chain)
	}
	if cycle.Chain[0] != cycle.Chain[len(cycle.Chain)-1] {
		t.Errorf("Chain = %v, want it to start and end at the same file", cycle.Chain)
	}
}

func TestExtract_DiamondIsNotACycle(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"main.tex":   `\input{left} \input{right}`,
		"left.tex":   `\input{common}`,
		"right.tex":  `\input{common}`,
		"common.tex": `\cite{shared}`,
	})

	ext, err := Extract(filepath.Join(dir, "main.tex"), Options{})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(ext.Citations) != 2 {
		t.Errorf("Citations = %+v, want common.tex walked twice", ext.Citations)
	}
}

func TestExtract_UnreadableRoot(t *testing.T) {
	_, err := Extract(filepath.Join(t.TempDir(), "missing.tex"), Options{})
	var fileErr *FileError
	if !errors.As(err, &fileErr) {
		t.Fatalf("Extract() error = %v, want *FileError", err)
	}
	if fileErr.Op != "read" {
		t.Errorf("FileError.Op = %q, want read", fileErr.Op)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Extract() error = %v, want it to wrap os.ErrNotExist", err)
	}
}

func TestExtract_ParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unterminated bibliography", `\begin{thebibliography}{9} \bibitem{a} A`},
		{"bibitem without key", `\begin{thebibliography}{9} \bibitem oops \end{thebibliography}`},
		{"citation without keys", `\cite{ , }`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeTree(t, dir, map[string]string{"main.tex": tt.content})
			root := filepath.Join(dir, "main.tex")

			_, err := Extract(root, Options{})
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("Extract() error = %v, want *ParseError", err)
			}
			if parseErr.File != root {
				t.Errorf("ParseError.File = %q, want %q", parseErr.File, root)
			}
		})
	}
}

func TestResolveInclude(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"chapters/intro.latex": "x",
		"exact.tex":            "x",
	})
	from := filepath.Join(dir, "main.tex")

	got, ok := ResolveInclude(OSFileSystem{}, from, "chapters/intro", DefaultExtensions)
	if !ok || got != filepath.Join(dir, "chapters", "intro.latex") {
		t.Errorf("ResolveInclude(chapters/intro) = %q, %v", got, ok)
	}

	got, ok = ResolveInclude(OSFileSystem{}, from, "exact.tex", DefaultExtensions)
	if !ok || got != filepath.Join(dir, "exact.tex") {
		t.Errorf("ResolveInclude(exact.tex) = %q, %v", got, ok)
	}

	if _, ok := ResolveInclude(OSFileSystem{}, from, "chapters", DefaultExtensions); ok {
		t.Error("ResolveInclude() must not resolve to a directory")
	}

	elsewhere := t.TempDir()
	writeTree(t, elsewhere, map[string]string{"shared.tex": "x"})
	abs := filepath.Join(elsewhere, "shared")
	got, ok = ResolveInclude(OSFileSystem{}, from, abs, DefaultExtensions)
	if !ok || got != filepath.Join(elsewhere, "shared.tex") {
		t.Errorf("ResolveInclude(%s) = %q, %v", abs, got, ok)
	}
}

func TestExtract_AbsoluteInclude(t *testing.T) {
	dir := t.TempDir()
	shared := t.TempDir()
	writeTree(t, shared, map[string]string{"shared.tex": `\cite{s}`})
	writeTree(t, dir, map[string]string{
		"main.tex": `\cite{m} \input{` + filepath.ToSlash(filepath.Join(shared, "shared")) + `}`,
	})

	ext, err := Extract(filepath.Join(dir, "main.tex"), Options{})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	want := [][]string{{"m"}, {"s"}}
	if got := citationKeys(t, ext); !reflect.DeepEqual(got, want) {
		t.Errorf("citations = %v, want %v", got, want)
	}
	if len(ext.Files) != 2 || ext.Files[1] != filepath.Join(shared, "shared.tex") {
		t.Errorf("Files = %v", ext.Files)
	}
}

func TestOutputPath(t *testing.T) {
	got := OutputPath(filepath.Join("doc", "sections", "one.tex"), "cleaned")
	want := filepath.Join("doc", "sections", "cleaned", "one.tex")
	if got != want {
		t.Errorf("OutputPath() = %q, want %q", got, want)
	}
}
