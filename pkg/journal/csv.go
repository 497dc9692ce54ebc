package journal

import (
	"encoding/csv"
	"fmt"
	"os"
	"sync"
	"time"
)

var csvHeader = []string{"timestamp", "source_id", "destination_id", "action", "request", "response", "note"}

// CSVSink appends journal entries to a CSV file. The header row is
// written once, when the sink creates the file.
type CSVSink struct {
	mu sync.Mutex
	f  *os.File
	w  *csv.Writer
}

// NewCSVSink opens (or creates) the journal file at path.
func NewCSVSink(path string) (*CSVSink, error) {
	_, statErr := os.Stat(path)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal file: %w", err)
	}

	s := &CSVSink{f: f, w: csv.NewWriter(f)}
	if os.IsNotExist(statErr) {
		if err := s.w.Write(csvHeader); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write journal header: %w", err)
		}
		s.w.Flush()
		if err := s.w.Error(); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write journal header: %w", err)
		}
	}
	return s, nil
}

// Write appends one entry. A zero timestamp is filled in.
func (s *CSVSink) Write(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	record := []string{
		ts.UTC().Format(time.RFC3339),
		e.SourceID,
		e.DestinationID,
		e.Action,
		e.Request,
		e.Response,
		e.Note,
	}
	if err := s.w.Write(record); err != nil {
		return fmt.Errorf("failed to write journal entry: %w", err)
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return fmt.Errorf("failed to flush journal entry: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (s *CSVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		s.f.Close()
		return err
	}
	return s.f.Close()
}

var _ Sink = (*CSVSink)(nil)
