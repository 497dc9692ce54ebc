package db

import (
	"github.com/aversoft/b24sync/pkg/journal"
)

// MockStore is a mock implementation of the journal store for testing
type MockStore struct {
	// Written entries, in order
	Written []journal.Entry

	// Error values to return
	WriteErr   error
	EntriesErr error
}

// NewMockStore creates a new mock journal store
func NewMockStore() *MockStore {
	return &MockStore{}
}

// Write records the entry in memory
func (m *MockStore) Write(e journal.Entry) error {
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.Written = append(m.Written, e)
	return nil
}

// Entries returns the recorded entries
func (m *MockStore) Entries() ([]journal.Entry, error) {
	if m.EntriesErr != nil {
		return nil, m.EntriesErr
	}
	return m.Written, nil
}

// Initialize is a no-op for the mock store
func (m *MockStore) Initialize() error {
	return nil
}

// Close is a no-op for the mock store
func (m *MockStore) Close() error {
	return nil
}
