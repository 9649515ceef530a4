package store

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kaisng/expense-tracker/internal/domain"
)

// Headers is the fixed 13-column layout of the expense sheet. Row 1 always
// carries these headers; data rows start at row 2.
var Headers = []string{
	"Timestamp", "Date", "Time", "Amount", "Currency",
	"Category", "Subcategory", "Description", "Tags",
	"Location", "Payment Method", "Notes", "User ID",
}

// EncodeRow maps an expense onto the 13-column sheet layout.
func EncodeRow(e domain.Expense) []string {
	return []string{
		e.Timestamp.Format("2006-01-02 15:04:05"),
		e.Date,
		e.Time,
		strconv.FormatFloat(e.Amount, 'f', -1, 64),
		e.Currency,
		string(e.Category),
		e.Subcategory,
		e.Description,
		strings.Join(e.Tags, ", "),
		e.Location,
		e.PaymentMethod,
		e.Notes,
		e.UserID,
	}
}

// DecodeRow parses one sheet row back into an expense. Short rows are
// padded; cells the sheet returns as free text are parsed tolerantly so a
// single hand-edited cell cannot poison a whole table scan.
func DecodeRow(cells []string) (domain.Expense, error) {
	row := make([]string, len(Headers))
	copy(row, cells)

	amount, err := parseAmount(row[3])
	if err != nil {
		return domain.Expense{}, fmt.Errorf("store: decode amount %q: %w", row[3], err)
	}

	ts := parseTimestamp(row[0], row[1], row[2])

	e := domain.Expense{
		Timestamp:     ts,
		Date:          ts.Format("2006-01-02"),
		Time:          ts.Format("15:04:05"),
		Amount:        amount,
		Currency:      orDefault(row[4], domain.DefaultCurrency),
		Category:      domain.ParseCategory(row[5]),
		Subcategory:   row[6],
		Description:   row[7],
		Tags:          splitTags(row[8]),
		Location:      row[9],
		PaymentMethod: row[10],
		Notes:         row[11],
		UserID:        orDefault(row[12], domain.DefaultUserID),
	}
	return e, nil
}

func parseAmount(raw string) (float64, error) {
	s := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "$"))
	if s == "" {
		return 0, nil
	}
	s = strings.ReplaceAll(s, ",", "")
	return strconv.ParseFloat(s, 64)
}

func parseTimestamp(tsCell, dateCell, timeCell string) time.Time {
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, strings.TrimSpace(tsCell)); err == nil {
			return t
		}
	}
	// Fall back to composing from the date and time columns.
	if t, err := time.Parse("2006-01-02 15:04:05", strings.TrimSpace(dateCell)+" "+orDefault(strings.TrimSpace(timeCell), "00:00:00")); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02", strings.TrimSpace(dateCell)); err == nil {
		return t
	}
	return time.Time{}
}

func splitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
