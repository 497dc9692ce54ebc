package db

import (
	"os"
	"testing"
	"time"

	"github.com/aversoft/b24sync/pkg/journal"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	tempFile, err := os.CreateTemp("", "test-db-*.db")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	tempFile.Close()
	t.Cleanup(func() { os.Remove(tempFile.Name()) })

	db, err := New(tempFile.Name())
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNew(t *testing.T) {
	db := newTestDB(t)

	if err := db.Ping(); err != nil {
		t.Fatalf("Failed to ping database: %v", err)
	}
}

func TestInitialize(t *testing.T) {
	db := newTestDB(t)

	if err := db.Initialize(); err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}

	// Verify the log table was created
	var tableName string
	err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='log'").Scan(&tableName)
	if err != nil {
		t.Fatalf("Failed to query for log table: %v", err)
	}
	if tableName != "log" {
		t.Fatalf("Expected table name 'log', got '%s'", tableName)
	}
}

func TestWriteAndReadEntries(t *testing.T) {
	db := newTestDB(t)

	if err := db.Initialize(); err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}

	entry := journal.Entry{
		Timestamp:     time.Date(2025, 4, 29, 12, 0, 0, 0, time.UTC),
		SourceID:      "CUST-001",
		DestinationID: "42",
		Action:        journal.ActionCreated,
		Request:       `{"TITLE":"Acme"}`,
		Response:      `{"result":42}`,
		Note:          "test",
	}
	if err := db.Write(entry); err != nil {
		t.Fatalf("Failed to write entry: %v", err)
	}

	entries, err := db.Entries()
	if err != nil {
		t.Fatalf("Failed to read entries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	got := entries[0]
	if got.SourceID != entry.SourceID {
		t.Errorf("Expected source id '%s', got '%s'", entry.SourceID, got.SourceID)
	}
	if got.DestinationID != entry.DestinationID {
		t.Errorf("Expected destination id '%s', got '%s'", entry.DestinationID, got.DestinationID)
	}
	if got.Action != journal.ActionCreated {
		t.Errorf("Expected action '%s', got '%s'", journal.ActionCreated, got.Action)
	}
	if got.Request != entry.Request {
		t.Errorf("Expected request '%s', got '%s'", entry.Request, got.Request)
	}
}

func TestWriteFillsTimestamp(t *testing.T) {
	db := newTestDB(t)

	if err := db.Initialize(); err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}

	if err := db.Write(journal.Entry{SourceID: "CUST-002", Action: journal.ActionSkipped}); err != nil {
		t.Fatalf("Failed to write entry: %v", err)
	}

	entries, err := db.Entries()
	if err != nil {
		t.Fatalf("Failed to read entries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if entries[0].Timestamp.IsZero() {
		t.Errorf("Expected timestamp to be filled, got zero value")
	}
}
