package library

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/francescoalemanno/latex-thebib/internal/compile"
)

func testEntries() []Entry {
	return []Entry{
		{
			Key:    "knuth84",
			Text:   `\textsc{D. E. Knuth} \textit{Literate Programming}, The Computer Journal (1984)`,
			Source: Source{File: "refs.bib", Format: FormatBibTeX},
		},
		{
			Key:    "lamport94",
			Text:   `L. Lamport, LaTeX: A Document Preparation System, Addison-Wesley, 1994`,
			Source: Source{File: "paper.tex", Format: FormatLaTeX},
		},
		{
			Key:    "turing36",
			Text:   `A. M. Turing, On computable numbers, 1936`,
			Source: Source{File: "paper.tex", Format: FormatLaTeX},
		},
	}
}

// setupTestDB creates a test database and JSONL file with test data
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	dir := t.TempDir()
	if err := WriteAll(EntriesPath(dir), testEntries()); err != nil {
		t.Fatalf("Failed to write test JSONL: %v", err)
	}

	db, err := OpenDB(DBPath(dir))
	if err != nil {
		t.Fatalf("Failed to open test DB: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	n, err := db.RebuildFromJSONL(EntriesPath(dir))
	if err != nil {
		t.Fatalf("Failed to rebuild DB: %v", err)
	}
	if n != 3 {
		t.Fatalf("RebuildFromJSONL() = %d, want 3", n)
	}
	return db
}

func TestReadAll_NonExistentFile(t *testing.T) {
	entries, err := ReadAll("/nonexistent/path/library.jsonl")
	if err != nil {
		t.Fatalf("ReadAll() error = %v (should return nil for nonexistent file)", err)
	}
	if len(entries) != 0 {
		t.Errorf("ReadAll() returned %v, want empty", entries)
	}
}

func TestWriteAll_ReadAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), EntriesFile)
	if err := WriteAll(path, testEntries()); err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}

	got, err := ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if !reflect.DeepEqual(got, testEntries()) {
		t.Errorf("ReadAll() = %+v, want %+v", got, testEntries())
	}
}

func TestReadAll_InvalidLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), EntriesFile)
	content := `{"key":"a","text":"A"}` + "\n\n" + `not json` + "\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := ReadAll(path)
	if err == nil || !strings.Contains(err.Error(), "line 3") {
		t.Errorf("ReadAll() error = %v, want a parse error on line 3", err)
	}
}

func TestMerge(t *testing.T) {
	existing := []Entry{
		{Key: "a", Text: "A", ImportID: "old"},
		{Key: "b", Text: "B", ImportID: "old"},
	}
	incoming := []Entry{
		{Key: "a", Text: "A"},
		{Key: "b", Text: "B revised"},
		{Key: "c", Text: "C"},
		{Key: "c", Text: "C"},
		{Key: "c", Text: "C again"},
	}

	merged, actions := Merge(existing, incoming, "batch")

	wantActions := []string{ActionSkip, ActionUpdate, ActionNew, ActionSkip, ActionUpdate}
	for i, a := range actions {
		if a.Action != wantActions[i] {
			t.Errorf("actions[%d] = %s, want %s", i, a.Action, wantActions[i])
		}
	}
	if actions[2].ExistingIdx != -1 || actions[1].ExistingIdx != 1 || actions[4].ExistingIdx != 2 {
		t.Errorf("ExistingIdx = %d, %d, %d", actions[2].ExistingIdx, actions[1].ExistingIdx, actions[4].ExistingIdx)
	}

	want := []Entry{
		{Key: "a", Text: "A", ImportID: "old"},
		{Key: "b", Text: "B revised", ImportID: "batch"},
		{Key: "c", Text: "C again", ImportID: "batch"},
	}
	if !reflect.DeepEqual(merged, want) {
		t.Errorf("merged = %+v, want %+v", merged, want)
	}
	if existing[1].Text != "B" {
		t.Error("Merge() modified existing")
	}
}

func TestLibrary_Import(t *testing.T) {
	lib := New(filepath.Join(t.TempDir(), "lib"))

	result, err := lib.Import(testEntries(), true)
	if err != nil {
		t.Fatalf("Import(dryRun) error = %v", err)
	}
	if result.New != 3 {
		t.Errorf("New = %d, want 3", result.New)
	}
	if _, err := os.Stat(lib.Dir); !os.IsNotExist(err) {
		t.Errorf("dry run created the library directory")
	}

	result, err = lib.Import(testEntries(), false)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if _, err := uuid.Parse(result.ImportID); err != nil {
		t.Errorf("ImportID %q is not a UUID: %v", result.ImportID, err)
	}

	again, err := lib.Import(testEntries()[:1], false)
	if err != nil {
		t.Fatalf("second Import() error = %v", err)
	}
	if again.Skipped != 1 || again.New != 0 {
		t.Errorf("second Import() = %+v, want one skip", again)
	}
	if again.ImportID == result.ImportID {
		t.Error("each import run should get its own id")
	}

	stored, err := lib.Entries()
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 3 || stored[0].ImportID != result.ImportID {
		t.Errorf("stored = %+v", stored)
	}

	db, err := lib.OpenDB()
	if err != nil {
		t.Fatalf("OpenDB() error = %v", err)
	}
	defer db.Close()
	if n, _ := db.Count(); n != 3 {
		t.Errorf("Count() = %d, want 3", n)
	}
}

func TestLibrary_OpenDBRebuildsMissingCache(t *testing.T) {
	dir := t.TempDir()
	if err := WriteAll(EntriesPath(dir), testEntries()); err != nil {
		t.Fatal(err)
	}

	db, err := New(dir).OpenDB()
	if err != nil {
		t.Fatalf("OpenDB() error = %v", err)
	}
	defer db.Close()
	if n, _ := db.Count(); n != 3 {
		t.Errorf("Count() = %d, want 3", n)
	}
}

func TestDB_GetByKey(t *testing.T) {
	db := setupTestDB(t)

	e, err := db.GetByKey("lamport94")
	if err != nil {
		t.Fatalf("GetByKey() error = %v", err)
	}
	if e.Source.Format != FormatLaTeX || !strings.HasPrefix(e.Text, "L. Lamport") {
		t.Errorf("GetByKey() = %+v", e)
	}

	if _, err := db.GetByKey("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByKey(nope) error = %v, want ErrNotFound", err)
	}

	if text, ok := db.Lookup("turing36"); !ok || !strings.Contains(text, "computable") {
		t.Errorf("Lookup(turing36) = %q, %v", text, ok)
	}
	if _, ok := db.Lookup("nope"); ok {
		t.Error("Lookup(nope) should miss")
	}
}

func TestDB_Search(t *testing.T) {
	db := setupTestDB(t)

	tests := []struct {
		query string
		want  []string
	}{
		{"Knuth", []string{"knuth84"}},
		{"computable", []string{"turing36"}},
		{"lamport94", []string{"lamport94"}},
		{`\textit{Literate`, []string{"knuth84"}},
		{"absent", nil},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			results, err := db.Search(tt.query, 10)
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			var keys []string
			for _, e := range results {
				keys = append(keys, e.Key)
			}
			if !reflect.DeepEqual(keys, tt.want) {
				t.Errorf("Search(%q) = %v, want %v", tt.query, keys, tt.want)
			}
		})
	}
}

func TestDB_ListAll(t *testing.T) {
	db := setupTestDB(t)

	all, err := db.ListAll(0)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(all) != 3 || all[0].Key != "knuth84" || all[2].Key != "turing36" {
		t.Errorf("ListAll(0) = %+v", all)
	}

	limited, err := db.ListAll(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 2 {
		t.Errorf("ListAll(2) returned %d entries", len(limited))
	}
}

func TestReadSource(t *testing.T) {
	dir := t.TempDir()
	bib := filepath.Join(dir, "refs.bib")
	tex := filepath.Join(dir, "paper.tex")
	if err := os.WriteFile(bib, []byte(`@article{k1, author={Knuth, Donald}, title={T}, year={1984}}
@article{k2, title={No author}}`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(tex, []byte(`\begin{thebibliography}{9}
\bibitem{t1} First entry
\bibitem{t2} Second   entry
\end{thebibliography}`), 0644); err != nil {
		t.Fatal(err)
	}

	entries, errs := ReadSource(bib, compile.Options{})
	if len(errs) != 1 || !errors.Is(errs[0], compile.ErrMissingField) {
		t.Errorf("ReadSource(bib) errors = %v, want one missing field", errs)
	}
	if len(entries) != 1 || entries[0].Text != `\textsc{D. Knuth} \textit{T}, (1984)` || entries[0].Source.Format != FormatBibTeX {
		t.Errorf("ReadSource(bib) = %+v", entries)
	}

	entries, errs = ReadSource(tex, compile.Options{})
	if len(errs) != 0 {
		t.Fatalf("ReadSource(tex) errors = %v", errs)
	}
	if len(entries) != 2 || entries[1].Text != "Second entry" || entries[1].Source.Format != FormatLaTeX {
		t.Errorf("ReadSource(tex) = %+v", entries)
	}

	if _, errs := ReadSource(filepath.Join(dir, "missing.tex"), compile.Options{}); len(errs) != 1 {
		t.Errorf("ReadSource(missing) errors = %v, want one", errs)
	}
}

func TestDB_LookupLogsFailures(t *testing.T) {
	db, err := OpenDB(filepath.Join(t.TempDir(), DBFile))
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	db.SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))

	if _, ok := db.Lookup("nope"); ok || buf.Len() != 0 {
		t.Errorf("absent key should be a quiet miss, logged %q", buf.String())
	}

	db.Close()
	if _, ok := db.Lookup("nope"); ok {
		t.Error("Lookup() on a closed DB should miss")
	}
	if !strings.Contains(buf.String(), "library lookup failed") {
		t.Errorf("closed DB failure not logged, got %q", buf.String())
	}
}
