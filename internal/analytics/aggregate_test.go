package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/kaisng/expense-tracker/internal/domain"
	"github.com/kaisng/expense-tracker/internal/store/inmemory"
)

func seedExpense(t *testing.T, st *inmemory.Store, ts time.Time, amount float64, category domain.Category, userID string) {
	t.Helper()
	e := domain.NewExpense(ts, userID)
	e.Amount = amount
	e.Category = category
	if _, err := st.Append(context.Background(), e); err != nil {
		t.Fatalf("seed append: %v", err)
	}
}

func newTestEngine(st *inmemory.Store) *Engine {
	return NewEngine(st, zerolog.Nop())
}

func window(label string, start, end time.Time) domain.TimeWindow {
	return domain.TimeWindow{Label: label, Start: &start, End: &end}
}

func TestAggregateBreakdown(t *testing.T) {
	st := inmemory.New()
	march := day(2024, time.March, 10)
	seedExpense(t, st, march, 30, domain.CategoryFood, "alice")
	seedExpense(t, st, march, 20, domain.CategoryFood, "alice")
	seedExpense(t, st, march, 15, domain.CategoryTransportation, "alice")
	seedExpense(t, st, march, 99, domain.CategoryFood, "bob") // other user, excluded

	intent := domain.QueryIntent{
		AnalysisType: domain.AnalysisCategoryBreakdown,
		TimePeriods:  []domain.TimeWindow{window("March", day(2024, time.March, 1), day(2024, time.March, 31))},
		ChartType:    domain.ChartPie,
	}

	res, err := newTestEngine(st).Aggregate(context.Background(), intent, "alice")
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	data, ok := res.Data.(BreakdownData)
	if !ok {
		t.Fatalf("Data type = %T, want BreakdownData", res.Data)
	}
	if data.Total != 65 {
		t.Errorf("Total = %v, want 65", data.Total)
	}
	if data.CategoryBreakdown["food"] != 50 {
		t.Errorf("food = %v, want 50", data.CategoryBreakdown["food"])
	}
	if data.CategoryBreakdown["transportation"] != 15 {
		t.Errorf("transportation = %v, want 15", data.CategoryBreakdown["transportation"])
	}
	if res.Message != "Spending breakdown by category. Total: $65.00" {
		t.Errorf("Message = %q", res.Message)
	}
	if res.Chart == nil {
		t.Fatal("Chart = nil, want pie spec")
	}
	// Largest category first.
	if res.Chart.Labels[0] != "food" || res.Chart.Values[0] != 50 {
		t.Errorf("chart head = %q/%v, want food/50", res.Chart.Labels[0], res.Chart.Values[0])
	}
}

func TestAggregateBreakdownEmpty(t *testing.T) {
	st := inmemory.New()

	intent := domain.QueryIntent{AnalysisType: domain.AnalysisCategoryBreakdown}
	res, err := newTestEngine(st).Aggregate(context.Background(), intent, "alice")
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	if res.Message != "No expenses found for the specified period." {
		t.Errorf("Message = %q", res.Message)
	}
	if res.Chart != nil {
		t.Error("Chart should be nil for an empty breakdown")
	}
}

func TestAggregateBreakdownSeedsRequestedCategories(t *testing.T) {
	st := inmemory.New()
	seedExpense(t, st, day(2024, time.March, 10), 30, domain.CategoryFood, "alice")

	intent := domain.QueryIntent{
		AnalysisType: domain.AnalysisCategoryBreakdown,
		Categories:   []domain.Category{domain.CategoryFood, domain.CategoryTravel},
	}
	res, err := newTestEngine(st).Aggregate(context.Background(), intent, "alice")
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	data := res.Data.(BreakdownData)
	if v, ok := data.CategoryBreakdown["travel"]; !ok || v != 0 {
		t.Errorf("travel = %v (present=%v), want explicit 0", v, ok)
	}
}

func TestAggregateTotal(t *testing.T) {
	st := inmemory.New()
	seedExpense(t, st, day(2024, time.March, 10), 10, domain.CategoryFood, "alice")
	seedExpense(t, st, day(2024, time.March, 11), 20, domain.CategoryFood, "alice")

	intent := domain.QueryIntent{
		AnalysisType: domain.AnalysisTotal,
		TimePeriods:  []domain.TimeWindow{window("March", day(2024, time.March, 1), day(2024, time.March, 31))},
	}
	res, err := newTestEngine(st).Aggregate(context.Background(), intent, "alice")
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	data := res.Data.(TotalData)
	if data.TotalAmount != 30 || data.TransactionCount != 2 || data.AveragePerTransaction != 15 {
		t.Errorf("TotalData = %+v, want total 30, count 2, avg 15", data)
	}
	if res.Message != "Total spending from 2024-03-01 to 2024-03-31: $30.00" {
		t.Errorf("Message = %q", res.Message)
	}
}

func TestAggregateTotalEmptyAvoidsDivisionByZero(t *testing.T) {
	st := inmemory.New()

	intent := domain.QueryIntent{AnalysisType: domain.AnalysisTotal}
	res, err := newTestEngine(st).Aggregate(context.Background(), intent, "alice")
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	data := res.Data.(TotalData)
	if data.TotalAmount != 0 || data.TransactionCount != 0 || data.AveragePerTransaction != 0 {
		t.Errorf("TotalData = %+v, want all zeros", data)
	}
}

func TestAggregateTrendBuckets(t *testing.T) {
	st := inmemory.New()
	seedExpense(t, st, day(2024, time.January, 5), 10, domain.CategoryFood, "alice")
	seedExpense(t, st, day(2024, time.January, 20), 30, domain.CategoryFood, "alice")
	seedExpense(t, st, day(2024, time.February, 2), 20, domain.CategoryFood, "alice")

	intent := domain.QueryIntent{
		AnalysisType: domain.AnalysisTrend,
		Granularity:  domain.GranularityMonth,
	}
	res, err := newTestEngine(st).Aggregate(context.Background(), intent, "alice")
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	data := res.Data.(PeriodData)
	if data.Breakdown["2024-01"] != 40 || data.Breakdown["2024-02"] != 20 {
		t.Errorf("Breakdown = %v, want 2024-01:40 2024-02:20", data.Breakdown)
	}
	if data.TotalPeriods != 2 || data.AveragePerPeriod != 30 {
		t.Errorf("periods = %d avg = %v, want 2 and 30", data.TotalPeriods, data.AveragePerPeriod)
	}
	if res.Message != "Spending trend analysis" {
		t.Errorf("Message = %q", res.Message)
	}
	if res.Chart == nil || res.Chart.Type != domain.ChartLine {
		t.Errorf("Chart = %+v, want line chart", res.Chart)
	}
	// Bucket labels sort chronologically.
	if res.Chart.Labels[0] != "2024-01" || res.Chart.Labels[1] != "2024-02" {
		t.Errorf("chart labels = %v", res.Chart.Labels)
	}
}

func TestAggregateDailyMovingAverage(t *testing.T) {
	st := inmemory.New()
	for i := 0; i < 8; i++ {
		seedExpense(t, st, day(2024, time.March, 1+i), float64(i+1), domain.CategoryFood, "alice")
	}

	intent := domain.QueryIntent{
		AnalysisType: domain.AnalysisPeriodAnalysis,
		Granularity:  domain.GranularityDay,
	}
	res, err := newTestEngine(st).Aggregate(context.Background(), intent, "alice")
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	data := res.Data.(PeriodData)
	// Buckets are 1..8; trailing 7-day means over [1..7] and [2..8].
	want := []float64{4, 5}
	if len(data.MovingAverage) != len(want) {
		t.Fatalf("MovingAverage = %v, want %v", data.MovingAverage, want)
	}
	for i, v := range want {
		if data.MovingAverage[i] != v {
			t.Errorf("MovingAverage[%d] = %v, want %v", i, data.MovingAverage[i], v)
		}
	}
}

func TestAggregateDailyMovingAverageSkippedForShortSeries(t *testing.T) {
	st := inmemory.New()
	for i := 0; i < 5; i++ {
		seedExpense(t, st, day(2024, time.March, 1+i), 10, domain.CategoryFood, "alice")
	}

	intent := domain.QueryIntent{
		AnalysisType: domain.AnalysisPeriodAnalysis,
		Granularity:  domain.GranularityDay,
	}
	res, err := newTestEngine(st).Aggregate(context.Background(), intent, "alice")
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	if ma := res.Data.(PeriodData).MovingAverage; ma != nil {
		t.Errorf("MovingAverage = %v, want nil for fewer than 7 buckets", ma)
	}
}

func TestAggregateComparison(t *testing.T) {
	st := inmemory.New()
	seedExpense(t, st, day(2024, time.February, 10), 100, domain.CategoryFood, "alice")
	seedExpense(t, st, day(2024, time.March, 10), 150, domain.CategoryFood, "alice")

	intent := domain.QueryIntent{
		AnalysisType:   domain.AnalysisComparison,
		ComparisonType: domain.CompareTimePeriods,
		TimePeriods: []domain.TimeWindow{
			window("February", day(2024, time.February, 1), day(2024, time.February, 29)),
			window("March", day(2024, time.March, 1), day(2024, time.March, 31)),
		},
	}
	res, err := newTestEngine(st).Aggregate(context.Background(), intent, "alice")
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	data := res.Data.(ComparisonData)
	if data.Change != 50 || data.ChangePercent != 50 {
		t.Errorf("change = %v (%v%%), want 50 (50%%)", data.Change, data.ChangePercent)
	}
	if data.Direction != "increase" {
		t.Errorf("Direction = %q, want increase", data.Direction)
	}
	if data.HighestPeriod != "March" || data.LowestPeriod != "February" {
		t.Errorf("high/low = %q/%q", data.HighestPeriod, data.LowestPeriod)
	}
	if res.Message != "Spending increased by $50.00 (50.0%) from February to March" {
		t.Errorf("Message = %q", res.Message)
	}
}

func TestAggregateComparisonRemainedTheSame(t *testing.T) {
	st := inmemory.New()
	seedExpense(t, st, day(2024, time.February, 10), 100, domain.CategoryFood, "alice")
	seedExpense(t, st, day(2024, time.March, 10), 100, domain.CategoryFood, "alice")

	intent := domain.QueryIntent{
		AnalysisType:   domain.AnalysisComparison,
		ComparisonType: domain.CompareTimePeriods,
		TimePeriods: []domain.TimeWindow{
			window("February", day(2024, time.February, 1), day(2024, time.February, 29)),
			window("March", day(2024, time.March, 1), day(2024, time.March, 31)),
		},
	}
	res, err := newTestEngine(st).Aggregate(context.Background(), intent, "alice")
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	data := res.Data.(ComparisonData)
	if data.Direction != "remained the same" {
		t.Errorf("Direction = %q", data.Direction)
	}
	// Equal totals: earliest window keeps lowest, latest takes highest.
	if data.LowestPeriod != "February" || data.HighestPeriod != "March" {
		t.Errorf("low/high tie-break = %q/%q, want February/March", data.LowestPeriod, data.HighestPeriod)
	}
	if res.Message != "Spending remained the same between February and March ($100.00)" {
		t.Errorf("Message = %q", res.Message)
	}
}

func TestAggregateComparisonZeroBaseline(t *testing.T) {
	st := inmemory.New()
	seedExpense(t, st, day(2024, time.March, 10), 80, domain.CategoryFood, "alice")

	intent := domain.QueryIntent{
		AnalysisType:   domain.AnalysisComparison,
		ComparisonType: domain.CompareTimePeriods,
		TimePeriods: []domain.TimeWindow{
			window("February", day(2024, time.February, 1), day(2024, time.February, 29)),
			window("March", day(2024, time.March, 1), day(2024, time.March, 31)),
		},
	}
	res, err := newTestEngine(st).Aggregate(context.Background(), intent, "alice")
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	data := res.Data.(ComparisonData)
	if data.Change != 80 {
		t.Errorf("Change = %v, want 80", data.Change)
	}
	// No baseline, no percentage.
	if data.ChangePercent != 0 {
		t.Errorf("ChangePercent = %v, want 0 on zero baseline", data.ChangePercent)
	}
}

func TestAggregateCategoriesOverTime(t *testing.T) {
	st := inmemory.New()
	seedExpense(t, st, day(2024, time.February, 10), 100, domain.CategoryFood, "alice")
	seedExpense(t, st, day(2024, time.March, 10), 130, domain.CategoryFood, "alice")
	seedExpense(t, st, day(2024, time.March, 12), 40, domain.CategoryTravel, "alice")

	intent := domain.QueryIntent{
		AnalysisType:   domain.AnalysisComparison,
		ComparisonType: domain.CompareCategoriesOverTime,
		TimePeriods: []domain.TimeWindow{
			window("February", day(2024, time.February, 1), day(2024, time.February, 29)),
			window("March", day(2024, time.March, 1), day(2024, time.March, 31)),
		},
	}
	res, err := newTestEngine(st).Aggregate(context.Background(), intent, "alice")
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	data := res.Data.(CategoriesOverTimeData)
	changes := make(map[string]CategoryChange, len(data.Changes))
	for _, c := range data.Changes {
		changes[c.Category] = c
	}

	food := changes["food"]
	if food.ChangePercent != 30 || !food.Significant {
		t.Errorf("food change = %+v, want +30%% significant", food)
	}
	travel := changes["travel"]
	if !travel.Significant || travel.ChangePercent != 0 {
		t.Errorf("travel change = %+v, want significant with 0%% (zero baseline)", travel)
	}
}

func TestMovingAverage(t *testing.T) {
	got := movingAverage([]float64{1, 2, 3, 4}, 3)
	want := []float64{2, 3}
	if len(got) != len(want) {
		t.Fatalf("movingAverage = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("movingAverage[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	if movingAverage([]float64{1, 2}, 3) != nil {
		t.Error("movingAverage on short input should be nil")
	}
}

func TestBucketKey(t *testing.T) {
	ts := time.Date(2024, time.January, 3, 14, 0, 0, 0, time.UTC)
	tests := []struct {
		g    domain.Granularity
		want string
	}{
		{domain.GranularityDay, "2024-01-03"},
		{domain.GranularityWeek, "2024-W01"},
		{domain.GranularityMonth, "2024-01"},
		{domain.GranularityYear, "2024"},
	}
	for _, tt := range tests {
		if got := bucketKey(tt.g, ts); got != tt.want {
			t.Errorf("bucketKey(%q) = %q, want %q", tt.g, got, tt.want)
		}
	}
}
