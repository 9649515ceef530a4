package store

import (
	"context"
	"errors"
	"strings"

	"github.com/kaisng/expense-tracker/internal/domain"
)

// ErrRowNotFound is returned when a row number is outside the current data
// range. Row numbers are 1-based and include the header row, so the first
// data row is 2.
var ErrRowNotFound = errors.New("store: row not found")

// Record is one persisted expense together with its current row position.
// The position is the record's identity in the backing sheet: deleting row N
// shifts every subsequent record up by one row.
type Record struct {
	domain.Expense
	RowNumber int `json:"row_number"`
}

// RowStore is the spreadsheet-backed row store. Implementations persist
// expenses as ordered rows under a fixed header row.
type RowStore interface {
	// Append adds a new row and returns its 1-based row number.
	Append(ctx context.Context, e domain.Expense) (int, error)
	// List returns every data row in sheet order.
	List(ctx context.Context) ([]Record, error)
	// Get returns the record at the given row number.
	Get(ctx context.Context, rowNumber int) (Record, error)
	// Update overwrites the record at the given row number in place.
	Update(ctx context.Context, rowNumber int, e domain.Expense) error
	// Delete removes the row; subsequent rows shift up by one.
	Delete(ctx context.Context, rowNumber int) error
}

// Filter restricts a record listing. Zero values mean unrestricted.
type Filter struct {
	UserID     string
	Window     domain.TimeWindow
	Category   string
	Categories []domain.Category
}

// Apply returns the records matching the filter, preserving sheet order.
func (f Filter) Apply(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if f.UserID != "" && r.UserID != f.UserID {
			continue
		}
		if !f.Window.Contains(r.Timestamp) {
			continue
		}
		if f.Category != "" && !strings.EqualFold(string(r.Category), f.Category) {
			continue
		}
		if len(f.Categories) > 0 && !containsCategory(f.Categories, r.Category) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func containsCategory(cats []domain.Category, c domain.Category) bool {
	for _, v := range cats {
		if v == c {
			return true
		}
	}
	return false
}

// Search returns records whose description, category, subcategory, tags or
// notes contain the query as a case-insensitive substring.
func Search(records []Record, query string) []Record {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	out := make([]Record, 0)
	for _, r := range records {
		haystack := strings.ToLower(strings.Join([]string{
			r.Description,
			string(r.Category),
			r.Subcategory,
			strings.Join(r.Tags, " "),
			r.Notes,
		}, " "))
		if strings.Contains(haystack, q) {
			out = append(out, r)
		}
	}
	return out
}
