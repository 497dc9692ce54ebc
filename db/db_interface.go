package db

import (
	"github.com/aversoft/b24sync/pkg/journal"
)

// JournalStore defines the interface for the durable journal log
type JournalStore interface {
	Initialize() error
	Close() error
	Write(e journal.Entry) error
	Entries() ([]journal.Entry, error)
}

// Ensure DB implements JournalStore
var _ JournalStore = (*DB)(nil)

// Ensure MockStore implements JournalStore
var _ JournalStore = (*MockStore)(nil)

// The SQLite store doubles as a journal sink for the migrator.
var _ journal.Sink = (*DB)(nil)
