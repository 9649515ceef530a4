package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/kaisng/expense-tracker/internal/domain"
	"github.com/kaisng/expense-tracker/internal/store"
)

// significantChangePct is the magnitude threshold above which a category's
// movement between two windows is flagged.
const significantChangePct = 20.0

// Engine computes grouped sums and comparisons over the persisted rows.
// Every call re-fetches the full table; nothing is cached between requests.
type Engine struct {
	store store.RowStore
	log   zerolog.Logger
}

// NewEngine creates an aggregation engine over the given row store.
func NewEngine(st store.RowStore, log zerolog.Logger) *Engine {
	return &Engine{store: st, log: log}
}

// Result is the numeric output of one aggregation, before chart rendering
// and envelope assembly.
type Result struct {
	Message string
	Data    interface{}
	Chart   *ChartSpec
	Window  domain.TimeWindow
}

// ChartSpec is the grouped numeric series handed to the chart renderer.
type ChartSpec struct {
	Type    domain.ChartType
	Title   string
	Labels  []string
	Values  []float64
	// Overlay is an optional trailing series aligned to the last
	// len(Overlay) labels (the 7-bucket moving average).
	Overlay []float64
}

// BreakdownData is the payload for category breakdowns.
type BreakdownData struct {
	CategoryBreakdown map[string]float64 `json:"category_breakdown"`
	Total             float64            `json:"total"`
}

// TotalData is the payload for scalar totals.
type TotalData struct {
	TotalAmount           float64 `json:"total_amount"`
	TransactionCount      int     `json:"transaction_count"`
	AveragePerTransaction float64 `json:"average_per_transaction"`
}

// PeriodData is the payload for trend and period analysis.
type PeriodData struct {
	Breakdown        map[string]float64 `json:"period_breakdown"`
	TotalPeriods     int                `json:"total_periods"`
	AveragePerPeriod float64            `json:"average_per_period"`
	MovingAverage    []float64          `json:"moving_average_7,omitempty"`
}

// WindowSummary is one compared window's totals.
type WindowSummary struct {
	Label             string             `json:"label"`
	Total             float64            `json:"total"`
	TransactionCount  int                `json:"transaction_count"`
	CategoryBreakdown map[string]float64 `json:"category_breakdown,omitempty"`
}

// ComparisonData is the payload for time-period comparisons.
type ComparisonData struct {
	Periods       []WindowSummary `json:"periods"`
	Change        float64         `json:"change"`
	ChangePercent float64         `json:"change_percent"`
	Direction     string          `json:"direction"`
	HighestPeriod string          `json:"highest_period"`
	LowestPeriod  string          `json:"lowest_period"`
}

// CategoryChange describes one category's movement between the first two
// compared windows.
type CategoryChange struct {
	Category      string  `json:"category"`
	FirstTotal    float64 `json:"first_total"`
	SecondTotal   float64 `json:"second_total"`
	ChangePercent float64 `json:"change_percent"`
	Significant   bool    `json:"significant"`
}

// CategoriesOverTimeData is the payload for category-over-time comparisons.
type CategoriesOverTimeData struct {
	Periods []WindowSummary  `json:"periods"`
	Changes []CategoryChange `json:"category_changes"`
}

// Aggregate routes the intent to the matching aggregation routine. The only
// error source is the row store; every computation below it is total.
func (e *Engine) Aggregate(ctx context.Context, intent domain.QueryIntent, userID string) (*Result, error) {
	records, err := e.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("analytics: fetch rows: %w", err)
	}
	if userID == "" {
		userID = domain.DefaultUserID
	}

	switch intent.AnalysisType {
	case domain.AnalysisTotal:
		return e.total(records, intent, userID), nil
	case domain.AnalysisTrend, domain.AnalysisPeriodAnalysis:
		return e.periods(records, intent, userID), nil
	case domain.AnalysisComparison:
		switch intent.ComparisonType {
		case domain.CompareCategoriesOverTime:
			return e.categoriesOverTime(records, intent, userID), nil
		case domain.CompareCategories:
			return e.breakdown(records, intent, userID), nil
		default:
			return e.compareTimePeriods(records, intent, userID), nil
		}
	default:
		return e.breakdown(records, intent, userID), nil
	}
}

func (e *Engine) breakdown(records []store.Record, intent domain.QueryIntent, userID string) *Result {
	window := intent.PrimaryWindow()
	filtered := store.Filter{UserID: userID, Window: window, Categories: intent.Categories}.Apply(records)

	byCategory := sumByCategory(filtered, intent.Categories)
	total := 0.0
	for _, v := range byCategory {
		total += v
	}

	res := &Result{
		Data:   BreakdownData{CategoryBreakdown: byCategory, Total: round2(total)},
		Window: window,
	}
	if len(filtered) == 0 && len(intent.Categories) == 0 {
		res.Message = "No expenses found for the specified period."
		return res
	}

	res.Message = fmt.Sprintf("Spending breakdown by category. Total: %s", FormatAmount(total))
	labels, values := sortedByValueDesc(byCategory)
	if len(labels) > 0 {
		chartType := intent.ChartType
		if chartType == "" || chartType == domain.ChartNone {
			chartType = domain.ChartPie
		}
		res.Chart = &ChartSpec{
			Type:   chartType,
			Title:  "Spending by Category",
			Labels: labels,
			Values: values,
		}
	}
	return res
}

func (e *Engine) total(records []store.Record, intent domain.QueryIntent, userID string) *Result {
	window := intent.PrimaryWindow()
	filtered := store.Filter{UserID: userID, Window: window, Categories: intent.Categories}.Apply(records)

	total := 0.0
	for _, r := range filtered {
		total += r.Amount
	}

	avg := 0.0
	if len(filtered) > 0 {
		avg = total / float64(len(filtered))
	}

	return &Result{
		Message: fmt.Sprintf("Total spending %s: %s", DescribePeriod(window), FormatAmount(total)),
		Data: TotalData{
			TotalAmount:           round2(total),
			TransactionCount:      len(filtered),
			AveragePerTransaction: round2(avg),
		},
		Window: window,
	}
}

func (e *Engine) periods(records []store.Record, intent domain.QueryIntent, userID string) *Result {
	window := intent.PrimaryWindow()
	filtered := store.Filter{UserID: userID, Window: window, Categories: intent.Categories}.Apply(records)

	buckets := make(map[string]float64)
	for _, r := range filtered {
		buckets[bucketKey(intent.Granularity, r.Timestamp)] += r.Amount
	}

	res := &Result{Window: window}
	if len(buckets) == 0 {
		res.Message = "No expenses found for the specified period."
		res.Data = PeriodData{Breakdown: buckets}
		return res
	}

	labels := sortedKeys(buckets)
	values := make([]float64, len(labels))
	total := 0.0
	for i, l := range labels {
		values[i] = round2(buckets[l])
		buckets[l] = values[i]
		total += values[i]
	}

	data := PeriodData{
		Breakdown:        buckets,
		TotalPeriods:     len(labels),
		AveragePerPeriod: round2(total / float64(len(labels))),
	}

	// Trailing 7-bucket moving average for daily series, aligned to the
	// 7th bucket onward.
	if intent.Granularity == domain.GranularityDay && len(values) >= 7 {
		data.MovingAverage = movingAverage(values, 7)
	}

	chartType := intent.ChartType
	if chartType == "" || chartType == domain.ChartNone {
		chartType = domain.ChartBar
		if intent.AnalysisType == domain.AnalysisTrend {
			chartType = domain.ChartLine
		}
	}

	res.Message = fmt.Sprintf("%s spending analysis", granularityLabel(intent.Granularity))
	if intent.AnalysisType == domain.AnalysisTrend {
		res.Message = "Spending trend analysis"
	}
	res.Data = data
	res.Chart = &ChartSpec{
		Type:    chartType,
		Title:   fmt.Sprintf("%s Spending", granularityLabel(intent.Granularity)),
		Labels:  labels,
		Values:  values,
		Overlay: data.MovingAverage,
	}
	return res
}

func (e *Engine) compareTimePeriods(records []store.Record, intent domain.QueryIntent, userID string) *Result {
	summaries := make([]WindowSummary, 0, len(intent.TimePeriods))
	for _, w := range intent.TimePeriods {
		filtered := store.Filter{UserID: userID, Window: w, Categories: intent.Categories}.Apply(records)
		s := WindowSummary{
			Label:            w.Label,
			TransactionCount: len(filtered),
		}
		for _, r := range filtered {
			s.Total += r.Amount
		}
		s.Total = round2(s.Total)
		if intent.IncludeBreakdown {
			s.CategoryBreakdown = sumByCategory(filtered, intent.Categories)
		}
		summaries = append(summaries, s)
	}

	data := ComparisonData{Periods: summaries}

	first, second := summaries[0], summaries[1]
	data.Change = round2(second.Total - first.Total)
	if first.Total != 0 {
		data.ChangePercent = round2((second.Total - first.Total) / first.Total * 100)
	}
	switch {
	case data.Change > 0:
		data.Direction = "increase"
	case data.Change < 0:
		data.Direction = "decrease"
	default:
		data.Direction = "remained the same"
	}

	// Declaration order breaks ties: earliest wins lowest, latest wins
	// highest.
	data.LowestPeriod = summaries[0].Label
	data.HighestPeriod = summaries[0].Label
	low, high := summaries[0].Total, summaries[0].Total
	for _, s := range summaries[1:] {
		if s.Total < low {
			low = s.Total
			data.LowestPeriod = s.Label
		}
		if s.Total >= high {
			high = s.Total
			data.HighestPeriod = s.Label
		}
	}

	labels := make([]string, len(summaries))
	values := make([]float64, len(summaries))
	for i, s := range summaries {
		labels[i] = s.Label
		values[i] = s.Total
	}

	return &Result{
		Message: comparisonMessage(first, second, data),
		Data:    data,
		Window:  intent.TimePeriods[0],
		Chart: &ChartSpec{
			Type:   domain.ChartComparisonBar,
			Title:  "Spending Comparison",
			Labels: labels,
			Values: values,
		},
	}
}

func (e *Engine) categoriesOverTime(records []store.Record, intent domain.QueryIntent, userID string) *Result {
	summaries := make([]WindowSummary, 0, len(intent.TimePeriods))
	for _, w := range intent.TimePeriods {
		filtered := store.Filter{UserID: userID, Window: w, Categories: intent.Categories}.Apply(records)
		s := WindowSummary{
			Label:             w.Label,
			TransactionCount:  len(filtered),
			CategoryBreakdown: sumByCategory(filtered, intent.Categories),
		}
		for _, r := range filtered {
			s.Total += r.Amount
		}
		s.Total = round2(s.Total)
		summaries = append(summaries, s)
	}

	data := CategoriesOverTimeData{Periods: summaries}

	if len(summaries) >= 2 {
		data.Changes = categoryChanges(summaries[0], summaries[1], intent.Categories)
	}

	var chart *ChartSpec
	if len(summaries) > 0 {
		labels, values := sortedByValueDesc(summaries[len(summaries)-1].CategoryBreakdown)
		if len(labels) > 0 {
			chart = &ChartSpec{
				Type:   domain.ChartComparisonBar,
				Title:  "Category Spending Over Time",
				Labels: labels,
				Values: values,
			}
		}
	}

	return &Result{
		Message: "Category spending across periods",
		Data:    data,
		Window:  intent.PrimaryWindow(),
		Chart:   chart,
	}
}

// categoryChanges flags categories whose movement between the two windows
// exceeds the significance threshold. A category that appears from a zero
// baseline cannot produce a percentage; it is flagged significant with the
// percentage left at 0.
func categoryChanges(first, second WindowSummary, requested []domain.Category) []CategoryChange {
	names := make(map[string]bool)
	for c := range first.CategoryBreakdown {
		names[c] = true
	}
	for c := range second.CategoryBreakdown {
		names[c] = true
	}
	for _, c := range requested {
		names[string(c)] = true
	}

	ordered := make([]string, 0, len(names))
	for c := range names {
		ordered = append(ordered, c)
	}
	sort.Strings(ordered)

	changes := make([]CategoryChange, 0, len(ordered))
	for _, c := range ordered {
		a, b := first.CategoryBreakdown[c], second.CategoryBreakdown[c]
		ch := CategoryChange{Category: c, FirstTotal: round2(a), SecondTotal: round2(b)}
		if a != 0 {
			ch.ChangePercent = round2((b - a) / a * 100)
			ch.Significant = math.Abs(ch.ChangePercent) > significantChangePct
		} else {
			ch.Significant = b != 0
		}
		changes = append(changes, ch)
	}
	return changes
}

func comparisonMessage(first, second WindowSummary, data ComparisonData) string {
	if data.Direction == "remained the same" {
		return fmt.Sprintf("Spending remained the same between %s and %s (%s)",
			first.Label, second.Label, FormatAmount(first.Total))
	}
	verb := "increased"
	if data.Direction == "decrease" {
		verb = "decreased"
	}
	return fmt.Sprintf("Spending %s by %s (%.1f%%) from %s to %s",
		verb, FormatAmount(math.Abs(data.Change)), math.Abs(data.ChangePercent), first.Label, second.Label)
}

// sumByCategory groups amounts by category. Requested categories always
// appear in the result, at zero when absent from the data.
func sumByCategory(records []store.Record, requested []domain.Category) map[string]float64 {
	out := make(map[string]float64)
	for _, c := range requested {
		out[string(c)] = 0
	}
	for _, r := range records {
		out[string(r.Category)] += r.Amount
	}
	for k, v := range out {
		out[k] = round2(v)
	}
	return out
}

func bucketKey(g domain.Granularity, t time.Time) string {
	switch g {
	case domain.GranularityDay:
		return t.Format("2006-01-02")
	case domain.GranularityWeek:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case domain.GranularityYear:
		return t.Format("2006")
	default:
		return t.Format("2006-01")
	}
}

func granularityLabel(g domain.Granularity) string {
	switch g {
	case domain.GranularityDay:
		return "Daily"
	case domain.GranularityWeek:
		return "Weekly"
	case domain.GranularityYear:
		return "Yearly"
	default:
		return "Monthly"
	}
}

// movingAverage returns the trailing n-bucket averages, one per bucket from
// the nth onward.
func movingAverage(values []float64, n int) []float64 {
	if len(values) < n {
		return nil
	}
	out := make([]float64, 0, len(values)-n+1)
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= n {
			sum -= values[i-n]
		}
		if i >= n-1 {
			out = append(out, round2(sum/float64(n)))
		}
	}
	return out
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// sortedByValueDesc orders labels by amount, largest first, names breaking
// ties for determinism.
func sortedByValueDesc(m map[string]float64) ([]string, []float64) {
	labels := sortedKeys(m)
	sort.SliceStable(labels, func(i, j int) bool {
		return m[labels[i]] > m[labels[j]]
	})
	values := make([]float64, len(labels))
	for i, l := range labels {
		values[i] = m[l]
	}
	return labels, values
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
