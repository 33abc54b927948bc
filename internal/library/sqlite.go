package library

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	db     *sql.DB
	logger *slog.Logger
}

// selectEntryFields contains the standard field list for SELECT queries.
const selectEntryFields = `key, text, source_file, source_format, import_id`

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db, logger: slog.Default()}, nil
}

// SetLogger sets where Lookup reports database failures.
func (d *DB) SetLogger(logger *slog.Logger) {
	if logger != nil {
		d.logger = logger
	}
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS entries (
			key TEXT PRIMARY KEY,
			text TEXT NOT NULL,
			source_file TEXT,
			source_format TEXT,
			import_id TEXT
		);

		-- Full-text search virtual table (standalone, not external content)
		CREATE VIRTUAL TABLE IF NOT EXISTS entries_fts USING fts5(
			key,
			text
		);
	`

	_, err := db.Exec(schema)
	return err
}

// RebuildFromJSONL clears the database and rebuilds it from a JSONL file.
func (d *DB) RebuildFromJSONL(jsonlPath string) (int, error) {
	entries, err := ReadAll(jsonlPath)
	if err != nil {
		return 0, fmt.Errorf("reading JSONL: %w", err)
	}

	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("starting rebuild: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM entries"); err != nil {
		return 0, fmt.Errorf("clearing entries table: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM entries_fts"); err != nil {
		return 0, fmt.Errorf("clearing entries_fts table: %w", err)
	}

	entryStmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO entries (key, text, source_file, source_format, import_id)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing entries insert: %w", err)
	}
	defer entryStmt.Close()

	ftsStmt, err := tx.Prepare(`INSERT INTO entries_fts (key, text) VALUES (?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing fts insert: %w", err)
	}
	defer ftsStmt.Close()

	for _, e := range entries {
		_, err := entryStmt.Exec(e.Key, e.Text,
			nullableStringValue(e.Source.File), nullableStringValue(e.Source.Format),
			nullableStringValue(e.ImportID))
		if err != nil {
			return 0, fmt.Errorf("inserting entry %s: %w", e.Key, err)
		}
		if _, err := ftsStmt.Exec(e.Key, e.Text); err != nil {
			return 0, fmt.Errorf("inserting fts for %s: %w", e.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing rebuild: %w", err)
	}
	return len(entries), nil
}

// GetByKey retrieves an entry by key, or ErrNotFound.
func (d *DB) GetByKey(key string) (*Entry, error) {
	row := d.db.QueryRow(`SELECT `+selectEntryFields+` FROM entries WHERE key = ?`, key)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("getting %s: %w", key, err)
	}
	return e, nil
}

// Lookup returns the stored text for key. It has the shape of
// refactor.Lookup, so a DB can fill keys a document is missing. Only an
// absent key is a silent miss; other failures are logged as warnings.
func (d *DB) Lookup(key string) (string, bool) {
	e, err := d.GetByKey(key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			d.logger.Warn("library lookup failed", "key", key, "error", err)
		}
		return "", false
	}
	return e.Text, true
}

// Search performs a full-text search over keys and texts.
func (d *DB) Search(query string, limit int) ([]Entry, error) {
	ftsQuery := prepareFTSQuery(query)
	if ftsQuery == "" {
		return nil, nil
	}

	rows, err := d.db.Query(`
		SELECT `+selectEntryFields+`
		FROM entries
		WHERE key IN (SELECT key FROM entries_fts WHERE entries_fts MATCH ?)
		ORDER BY key
		LIMIT ?`, ftsQuery, limitOrAll(limit))
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// ListAll returns all entries ordered by key, optionally limited.
func (d *DB) ListAll(limit int) ([]Entry, error) {
	rows, err := d.db.Query(`SELECT `+selectEntryFields+` FROM entries ORDER BY key LIMIT ?`, limitOrAll(limit))
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Count returns the total number of entries.
func (d *DB) Count() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM entries").Scan(&count)
	return count, err
}

// limitOrAll maps a non-positive limit to SQLite's "no limit".
func limitOrAll(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

// scanner interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(s scanner) (*Entry, error) {
	var e Entry
	var file, format, importID sql.NullString
	if err := s.Scan(&e.Key, &e.Text, &file, &format, &importID); err != nil {
		return nil, err
	}
	e.Source.File = file.String
	e.Source.Format = format.String
	e.ImportID = importID.String
	return &e, nil
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// nullableStringValue converts a string to sql.NullString, treating empty as NULL.
func nullableStringValue(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// prepareFTSQuery escapes special characters for FTS5 queries.
// A query holding an FTS5 operator or LaTeX punctuation is searched as one
// quoted phrase.
func prepareFTSQuery(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	if strings.ContainsAny(query, "\"*+-:(){}[]^~\\.,") {
		query = strings.ReplaceAll(query, "\"", "\"\"")
		return "\"" + query + "\""
	}

	return query
}
