package domain

import "time"

// AnalysisType selects the aggregation routine for an analytics query.
type AnalysisType string

const (
	AnalysisComparison        AnalysisType = "comparison"
	AnalysisTrend             AnalysisType = "trend"
	AnalysisCategoryBreakdown AnalysisType = "category_breakdown"
	AnalysisTotal             AnalysisType = "total"
	AnalysisPeriodAnalysis    AnalysisType = "period_analysis"
)

// ComparisonType refines AnalysisComparison.
type ComparisonType string

const (
	CompareTimePeriods        ComparisonType = "time_periods"
	CompareCategories         ComparisonType = "categories"
	CompareCategoriesOverTime ComparisonType = "categories_over_time"
)

// Granularity is the time-bucketing resolution for trend and period analysis.
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
	GranularityYear  Granularity = "year"
)

// ValidGranularity reports whether g is a recognized bucketing resolution.
func ValidGranularity(g Granularity) bool {
	switch g {
	case GranularityDay, GranularityWeek, GranularityMonth, GranularityYear:
		return true
	}
	return false
}

// ChartType names the visualization requested for a query result.
type ChartType string

const (
	ChartPie           ChartType = "pie"
	ChartBar           ChartType = "bar"
	ChartLine          ChartType = "line"
	ChartComparisonBar ChartType = "comparison_bar"
	ChartNone          ChartType = "none"
)

// TimeWindow is an inclusive date range. Nil bounds mean unbounded on that
// side; both nil means all time.
type TimeWindow struct {
	Label string     `json:"label"`
	Start *time.Time `json:"start_date,omitempty"`
	End   *time.Time `json:"end_date,omitempty"`
}

// Contains reports whether a calendar date falls inside the window.
func (w TimeWindow) Contains(d time.Time) bool {
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	if w.Start != nil && day.Before(dateOnly(*w.Start)) {
		return false
	}
	if w.End != nil && day.After(dateOnly(*w.End)) {
		return false
	}
	return true
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// QueryIntent is the interpreted shape of an analytics question. It is the
// strictly validated form of whatever the model returned: every enum field
// is checked and defaulted at the interpreter boundary, so downstream code
// never sees an out-of-range value.
type QueryIntent struct {
	AnalysisType     AnalysisType   `json:"analysis_type"`
	ComparisonType   ComparisonType `json:"comparison_type,omitempty"`
	TimePeriods      []TimeWindow   `json:"time_periods"`
	Categories       []Category     `json:"categories,omitempty"` // nil = unrestricted
	Granularity      Granularity    `json:"granularity"`
	ChartType        ChartType      `json:"chart_type"`
	IncludeBreakdown bool           `json:"include_breakdown"`
}

// PrimaryWindow returns the first declared time window, or an unbounded
// all-time window when none was declared.
func (q QueryIntent) PrimaryWindow() TimeWindow {
	if len(q.TimePeriods) > 0 {
		return q.TimePeriods[0]
	}
	return TimeWindow{Label: "all time"}
}
