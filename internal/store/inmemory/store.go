// Package inmemory provides a RowStore held in process memory. It backs
// tests and local development runs where no spreadsheet is configured, and
// mirrors the sheet's positional semantics exactly: header at row 1, data
// from row 2, deletes shift subsequent rows up.
package inmemory

import (
	"context"
	"sync"

	"github.com/kaisng/expense-tracker/internal/domain"
	"github.com/kaisng/expense-tracker/internal/store"
)

// Store is an in-memory RowStore.
type Store struct {
	mu   sync.Mutex
	rows []domain.Expense
}

var _ store.RowStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{}
}

// Append adds a new row and returns its 1-based row number.
func (s *Store) Append(ctx context.Context, e domain.Expense) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, e)
	return len(s.rows) + 1, nil
}

// List returns every data row in insertion order.
func (s *Store) List(ctx context.Context) ([]store.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := make([]store.Record, len(s.rows))
	for i, e := range s.rows {
		records[i] = store.Record{Expense: e, RowNumber: i + 2}
	}
	return records, nil
}

// Get returns the record at the given row number.
func (s *Store) Get(ctx context.Context, rowNumber int) (store.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.index(rowNumber)
	if !ok {
		return store.Record{}, store.ErrRowNotFound
	}
	return store.Record{Expense: s.rows[idx], RowNumber: rowNumber}, nil
}

// Update overwrites the record at the given row number.
func (s *Store) Update(ctx context.Context, rowNumber int, e domain.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.index(rowNumber)
	if !ok {
		return store.ErrRowNotFound
	}
	s.rows[idx] = e
	return nil
}

// Delete removes the row; subsequent rows shift up by one.
func (s *Store) Delete(ctx context.Context, rowNumber int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.index(rowNumber)
	if !ok {
		return store.ErrRowNotFound
	}
	s.rows = append(s.rows[:idx], s.rows[idx+1:]...)
	return nil
}

// index converts a 1-based sheet row number (data starts at 2) into a slice
// index, reporting whether it is in range while the lock is held.
func (s *Store) index(rowNumber int) (int, bool) {
	idx := rowNumber - 2
	return idx, idx >= 0 && idx < len(s.rows)
}
