package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// selectRunFields contains the standard field list for SELECT queries.
const selectRunFields = `id, recorded_at, document_path, refs_path, bib_path,
	converted, keys_json, messages_json`

// OpenDB opens or creates a SQLite database at the given path.
// Parent directories are created as needed.
func OpenDB(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// createSchema creates the database schema if it doesn't exist.
func createSchema(db *sql.DB) error {
	schema := `
		-- One row per conversion
		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			recorded_at INTEGER NOT NULL,
			document_path TEXT,
			refs_path TEXT,
			bib_path TEXT,
			converted INTEGER NOT NULL,
			keys_json TEXT NOT NULL,
			messages_json TEXT NOT NULL
		);

		-- Keys produced by each run, for per-key queries
		CREATE TABLE IF NOT EXISTS run_keys (
			run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			key TEXT NOT NULL,
			position INTEGER NOT NULL,
			PRIMARY KEY (run_id, key)
		);
		CREATE INDEX IF NOT EXISTS idx_run_keys_key ON run_keys(key);

		-- Full-text search over diagnostics
		CREATE VIRTUAL TABLE IF NOT EXISTS runs_fts USING fts5(
			run_id UNINDEXED,
			document_path,
			messages_text
		);
	`

	_, err := db.Exec(schema)
	return err
}

// RecordRun stores a run and returns its ID. A zero RecordedAt is set to
// the current time.
func (d *DB) RecordRun(run Run) (int64, error) {
	if run.RecordedAt.IsZero() {
		run.RecordedAt = time.Now()
	}
	if run.Keys == nil {
		run.Keys = []string{}
	}
	if run.Messages == nil {
		run.Messages = []string{}
	}

	keysJSON, err := json.Marshal(run.Keys)
	if err != nil {
		return 0, fmt.Errorf("marshaling keys: %w", err)
	}
	messagesJSON, err := json.Marshal(run.Messages)
	if err != nil {
		return 0, fmt.Errorf("marshaling messages: %w", err)
	}

	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO runs (
			recorded_at, document_path, refs_path, bib_path,
			converted, keys_json, messages_json
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.RecordedAt.Unix(),
		nullableStringValue(run.DocumentPath),
		nullableStringValue(run.RefsPath),
		nullableStringValue(run.BibPath),
		run.Converted, string(keysJSON), string(messagesJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}

	keyStmt, err := tx.Prepare(`INSERT OR IGNORE INTO run_keys (run_id, key, position) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing key insert: %w", err)
	}
	defer keyStmt.Close()

	for i, k := range run.Keys {
		if _, err := keyStmt.Exec(id, k, i); err != nil {
			return 0, fmt.Errorf("inserting key %s: %w", k, err)
		}
	}

	_, err = tx.Exec(`INSERT INTO runs_fts (run_id, document_path, messages_text) VALUES (?, ?, ?)`,
		id, run.DocumentPath, strings.Join(run.Messages, "\n"))
	if err != nil {
		return 0, fmt.Errorf("inserting fts for run %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing run: %w", err)
	}
	return id, nil
}

// ImportRuns records every run in a JSONL export and returns how many were
// added. Imported runs get new IDs; their timestamps are kept.
func (d *DB) ImportRuns(path string) (int, error) {
	if _, err := os.Stat(path); err != nil {
		return 0, fmt.Errorf("opening runs file: %w", err)
	}
	runs, err := ReadAll(path)
	if err != nil {
		return 0, err
	}
	for i, run := range runs {
		run.ID = 0
		if _, err := d.RecordRun(run); err != nil {
			return i, fmt.Errorf("importing run %d: %w", i+1, err)
		}
	}
	return len(runs), nil
}

// GetRun retrieves a run by ID. Returns nil, nil if it doesn't exist.
func (d *DB) GetRun(id int64) (*Run, error) {
	row := d.db.QueryRow(`SELECT `+selectRunFields+` FROM runs WHERE id = ?`, id)
	return scanRun(row)
}

// ListRuns returns the most recent runs first. A limit of 0 or less
// returns all runs.
func (d *DB) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := d.db.Query(`
		SELECT `+selectRunFields+`
		FROM runs
		ORDER BY recorded_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// RunsWithKey returns the runs that produced a citation for key, most
// recent first.
func (d *DB) RunsWithKey(key string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := d.db.Query(`
		SELECT `+selectRunFields+`
		FROM runs
		WHERE id IN (SELECT run_id FROM run_keys WHERE key = ?)
		ORDER BY recorded_at DESC, id DESC
		LIMIT ?`, key, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs for key %s: %w", key, err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// SearchRuns performs a full-text search over document paths and messages.
func (d *DB) SearchRuns(query string, limit int) ([]Run, error) {
	ftsQuery := prepareFTSQuery(query)
	if ftsQuery == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := d.db.Query(`
		SELECT `+selectRunFields+`
		FROM runs
		WHERE id IN (SELECT run_id FROM runs_fts WHERE runs_fts MATCH ?)
		ORDER BY recorded_at DESC, id DESC
		LIMIT ?`, ftsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("searching runs: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// KeyCount is the number of runs that cited a key.
type KeyCount struct {
	Key  string `json:"key"`
	Runs int    `json:"runs"`
}

// KeyCounts returns how many runs cited each key, most cited first.
func (d *DB) KeyCounts() ([]KeyCount, error) {
	rows, err := d.db.Query(`
		SELECT key, COUNT(*) AS n
		FROM run_keys
		GROUP BY key
		ORDER BY n DESC, key ASC`)
	if err != nil {
		return nil, fmt.Errorf("counting keys: %w", err)
	}
	defer rows.Close()

	var counts []KeyCount
	for rows.Next() {
		var kc KeyCount
		if err := rows.Scan(&kc.Key, &kc.Runs); err != nil {
			return nil, err
		}
		counts = append(counts, kc)
	}
	return counts, rows.Err()
}

// Count returns the number of recorded runs.
func (d *DB) Count() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&count)
	return count, err
}

// scanner interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(s scanner) (*Run, error) {
	var run Run
	var recordedAt int64
	var docPath, refsPath, bibPath sql.NullString
	var keysJSON, messagesJSON string

	err := s.Scan(
		&run.ID, &recordedAt, &docPath, &refsPath, &bibPath,
		&run.Converted, &keysJSON, &messagesJSON,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	run.RecordedAt = time.Unix(recordedAt, 0)
	run.DocumentPath = docPath.String
	run.RefsPath = refsPath.String
	run.BibPath = bibPath.String

	if err := json.Unmarshal([]byte(keysJSON), &run.Keys); err != nil {
		return nil, fmt.Errorf("parsing keys JSON for run %d: %w", run.ID, err)
	}
	if err := json.Unmarshal([]byte(messagesJSON), &run.Messages); err != nil {
		return nil, fmt.Errorf("parsing messages JSON for run %d: %w", run.ID, err)
	}

	return &run, nil
}

func scanRuns(rows *sql.Rows) ([]Run, error) {
	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		if run != nil {
			runs = append(runs, *run)
		}
	}
	return runs, rows.Err()
}

// nullableStringValue converts a string to sql.NullString, treating empty as NULL.
func nullableStringValue(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// prepareFTSQuery escapes special characters for FTS5 queries.
func prepareFTSQuery(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	// FTS5 uses double quotes for phrase matching
	if strings.ContainsAny(query, "\"*+-:(){}[]^~./") {
		query = strings.ReplaceAll(query, "\"", "\"\"")
		return "\"" + query + "\""
	}

	return query
}
