package memory

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/sheets"
)

// Store keeps exported ledger entries in process. It backs the worker when no
// spreadsheet is configured.
type Store struct {
	mu    sync.Mutex
	items []sheets.Entry
	seen  map[string]int
}

func New() *Store {
	return &Store{seen: map[string]int{}}
}

// AppendEntry stores the entry and returns a synthetic row reference. An entry
// whose event id was already stored returns the original reference.
func (s *Store) AppendEntry(_ context.Context, e sheets.Entry) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.EventID != "" {
		if row, ok := s.seen[e.EventID]; ok {
			return fmt.Sprintf("mem:%d", row), nil
		}
	}
	s.items = append(s.items, e)
	if e.EventID != "" {
		s.seen[e.EventID] = len(s.items)
	}
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

// Entries returns a copy of the stored entries in insertion order.
func (s *Store) Entries() []sheets.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sheets.Entry(nil), s.items...)
}
