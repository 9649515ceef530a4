package analytics

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolveWindow(t *testing.T) {
	tests := []struct {
		name      string
		phrase    string
		today     time.Time
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "this month",
			phrase:    "how much did I spend this month",
			today:     day(2024, time.March, 15),
			wantStart: day(2024, time.March, 1),
			wantEnd:   day(2024, time.March, 15),
		},
		{
			name:      "last month",
			phrase:    "last month spending",
			today:     day(2024, time.March, 15),
			wantStart: day(2024, time.February, 1),
			wantEnd:   day(2024, time.February, 29),
		},
		{
			name:      "last month rolls back across year boundary",
			phrase:    "last month",
			today:     day(2024, time.January, 15),
			wantStart: day(2023, time.December, 1),
			wantEnd:   day(2023, time.December, 31),
		},
		{
			name:   "this week starts on Monday",
			phrase: "this week",
			// 2024-03-13 is a Wednesday.
			today:     day(2024, time.March, 13),
			wantStart: day(2024, time.March, 11),
			wantEnd:   day(2024, time.March, 13),
		},
		{
			name:      "this week on a Monday is a single day",
			phrase:    "this week",
			today:     day(2024, time.March, 11),
			wantStart: day(2024, time.March, 11),
			wantEnd:   day(2024, time.March, 11),
		},
		{
			name:      "last week is the previous Monday through Sunday",
			phrase:    "last week",
			today:     day(2024, time.March, 13),
			wantStart: day(2024, time.March, 4),
			wantEnd:   day(2024, time.March, 10),
		},
		{
			name:      "this year",
			phrase:    "spending this year",
			today:     day(2024, time.March, 15),
			wantStart: day(2024, time.January, 1),
			wantEnd:   day(2024, time.March, 15),
		},
		{
			name:      "last year",
			phrase:    "last year",
			today:     day(2024, time.March, 15),
			wantStart: day(2023, time.January, 1),
			wantEnd:   day(2023, time.December, 31),
		},
		{
			name:      "last 30 days",
			phrase:    "last 30 days",
			today:     day(2024, time.March, 15),
			wantStart: day(2024, time.February, 14),
			wantEnd:   day(2024, time.March, 15),
		},
		{
			name:      "past month is the rolling window, not the calendar one",
			phrase:    "past month",
			today:     day(2024, time.March, 15),
			wantStart: day(2024, time.February, 14),
			wantEnd:   day(2024, time.March, 15),
		},
		{
			name:      "last 7 days",
			phrase:    "last 7 days",
			today:     day(2024, time.March, 15),
			wantStart: day(2024, time.March, 8),
			wantEnd:   day(2024, time.March, 15),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := ResolveWindow(tt.phrase, tt.today)
			if start == nil || end == nil {
				t.Fatalf("ResolveWindow(%q) = (%v, %v), want concrete bounds", tt.phrase, start, end)
			}
			if !start.Equal(tt.wantStart) {
				t.Errorf("start = %v, want %v", start, tt.wantStart)
			}
			if !end.Equal(tt.wantEnd) {
				t.Errorf("end = %v, want %v", end, tt.wantEnd)
			}
		})
	}
}

func TestResolveWindowUnknownPhrase(t *testing.T) {
	start, end := ResolveWindow("how much on coffee", day(2024, time.March, 15))
	if start != nil || end != nil {
		t.Errorf("ResolveWindow on unknown phrase = (%v, %v), want (nil, nil)", start, end)
	}
}

func TestWindowFromPhraseLabels(t *testing.T) {
	w, ok := windowFromPhrase("show me LAST MONTH please", day(2024, time.March, 15))
	if !ok {
		t.Fatal("windowFromPhrase did not match")
	}
	if w.Label != "Last Month" {
		t.Errorf("label = %q, want %q", w.Label, "Last Month")
	}

	w, ok = windowFromPhrase("everything", day(2024, time.March, 15))
	if ok {
		t.Fatal("windowFromPhrase matched an unknown phrase")
	}
	if w.Label != "all time" {
		t.Errorf("label = %q, want %q", w.Label, "all time")
	}
}
