// Package analytics is the query pipeline: interpret a natural-language
// question into a typed intent, resolve relative date windows, aggregate the
// stored rows, and assemble the response envelope.
package analytics

import (
	"strings"
	"time"

	"github.com/kaisng/expense-tracker/internal/domain"
)

// ResolveWindow turns a relative phrase inside the query into a concrete
// inclusive [start, end] pair. Both are nil when no known phrase occurs.
// The resolver works purely on calendar dates already expressed in the
// service's canonical timezone; no conversion happens here.
func ResolveWindow(phrase string, today time.Time) (start, end *time.Time) {
	q := strings.ToLower(phrase)
	t := date(today.Year(), today.Month(), today.Day())

	switch {
	case strings.Contains(q, "this month"):
		return ptr(date(t.Year(), t.Month(), 1)), ptr(t)

	case strings.Contains(q, "last month"):
		// January rolls back to December of the previous year.
		firstOfThis := date(t.Year(), t.Month(), 1)
		endPrev := firstOfThis.AddDate(0, 0, -1)
		startPrev := date(endPrev.Year(), endPrev.Month(), 1)
		return ptr(startPrev), ptr(endPrev)

	case strings.Contains(q, "this week"):
		return ptr(t.AddDate(0, 0, -daysSinceMonday(t))), ptr(t)

	case strings.Contains(q, "last week"):
		endPrev := t.AddDate(0, 0, -(daysSinceMonday(t) + 1)) // Sunday before this week
		return ptr(endPrev.AddDate(0, 0, -6)), ptr(endPrev)

	case strings.Contains(q, "this year"):
		return ptr(date(t.Year(), time.January, 1)), ptr(t)

	case strings.Contains(q, "last year"):
		return ptr(date(t.Year()-1, time.January, 1)), ptr(date(t.Year()-1, time.December, 31))

	case strings.Contains(q, "last 30 days"), strings.Contains(q, "past month"):
		return ptr(t.AddDate(0, 0, -30)), ptr(t)

	case strings.Contains(q, "last 7 days"), strings.Contains(q, "past week"):
		return ptr(t.AddDate(0, 0, -7)), ptr(t)
	}

	return nil, nil
}

// windowFromPhrase wraps ResolveWindow into a labeled TimeWindow, reporting
// whether any phrase matched.
func windowFromPhrase(phrase string, today time.Time) (domain.TimeWindow, bool) {
	start, end := ResolveWindow(phrase, today)
	if start == nil && end == nil {
		return domain.TimeWindow{Label: "all time"}, false
	}
	return domain.TimeWindow{Label: matchedLabel(phrase), Start: start, End: end}, true
}

var knownPhrases = []string{
	"this month", "last month", "this week", "last week",
	"this year", "last year", "last 30 days", "past month",
	"last 7 days", "past week",
}

func matchedLabel(phrase string) string {
	q := strings.ToLower(phrase)
	for _, p := range knownPhrases {
		if strings.Contains(q, p) {
			return titleCase(p)
		}
	}
	return "all time"
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func daysSinceMonday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time {
	return &t
}
