package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aversoft/b24sync/pkg/journal"

	_ "github.com/mattn/go-sqlite3"
)

// DB is the SQLite-backed journal store used by the migration flow.
type DB struct {
	*sql.DB
}

// New creates a new database connection
func New(dbPath string) (*DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db}, nil
}

// Initialize creates the necessary tables if they don't exist
func (db *DB) Initialize() error {
	query := `
	CREATE TABLE IF NOT EXISTS log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source_id TEXT,
		destination_id TEXT,
		action TEXT,
		request TEXT,
		response TEXT,
		note TEXT,
		ts TEXT
	)
	`

	_, err := db.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create log table: %w", err)
	}

	return nil
}

// Write appends one journal entry to the log table.
func (db *DB) Write(e journal.Entry) error {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	query := `
	INSERT INTO log (source_id, destination_id, action, request, response, note, ts)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query,
		e.SourceID,
		e.DestinationID,
		e.Action,
		e.Request,
		e.Response,
		e.Note,
		ts.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to write journal entry: %w", err)
	}

	return nil
}

// Entries returns every logged entry in insertion order.
func (db *DB) Entries() ([]journal.Entry, error) {
	query := `
	SELECT source_id, destination_id, action, request, response, note, ts
	FROM log
	ORDER BY id
	`

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal entries: %w", err)
	}
	defer rows.Close()

	var entries []journal.Entry
	for rows.Next() {
		var e journal.Entry
		var ts string
		if err := rows.Scan(&e.SourceID, &e.DestinationID, &e.Action, &e.Request, &e.Response, &e.Note, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			e.Timestamp = parsed
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
