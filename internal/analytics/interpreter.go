package analytics

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kaisng/expense-tracker/internal/ai"
	"github.com/kaisng/expense-tracker/internal/domain"
)

// Interpreter converts an analytics question into a QueryIntent. The primary
// path asks the generative model; a keyword rule table covers every failure
// mode, so Interpret always returns a usable intent.
type Interpreter struct {
	model ai.TextModel
	now   func() time.Time
	log   zerolog.Logger
}

// NewInterpreter creates an interpreter. A nil model means every query takes
// the rule-based path.
func NewInterpreter(model ai.TextModel, log zerolog.Logger) *Interpreter {
	return &Interpreter{
		model: model,
		now:   time.Now,
		log:   log,
	}
}

// WithClock overrides the interpreter's notion of now. Test hook.
func (in *Interpreter) WithClock(now func() time.Time) *Interpreter {
	in.now = now
	return in
}

// Interpret translates the query into a validated intent. It never returns
// an error; malformed or missing model output degrades to the rule table.
func (in *Interpreter) Interpret(ctx context.Context, query string) domain.QueryIntent {
	if in.model == nil {
		return in.fallbackIntent(query)
	}

	reply, err := in.model.GenerateText(ctx, in.buildPrompt(query))
	if err != nil {
		in.log.Warn().Err(err).Msg("Interpreter model call failed, using rule-based intent")
		return in.fallbackIntent(query)
	}

	intent, ok := in.parseReply(reply, query)
	if !ok {
		return in.fallbackIntent(query)
	}
	return intent
}

// intentReply is the JSON shape requested from the model. Each time period
// may carry explicit dates, a relative phrase, or both; phrases are resolved
// locally by the date-window resolver.
type intentReply struct {
	AnalysisType     string        `json:"analysis_type"`
	ComparisonType   string        `json:"comparison_type"`
	TimePeriods      []periodReply `json:"time_periods"`
	Categories       []string      `json:"categories"`
	Granularity      string        `json:"granularity"`
	ChartType        string        `json:"chart_type"`
	IncludeBreakdown bool          `json:"include_breakdown"`
}

type periodReply struct {
	Label     string `json:"label"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Period    string `json:"period"`
}

// parseReply validates the model's answer into a QueryIntent. Enum fields
// outside their closed sets are defaulted or, where the shape is unusable,
// the whole reply is rejected in favor of the rule-based intent.
func (in *Interpreter) parseReply(reply, query string) (domain.QueryIntent, bool) {
	var parsed intentReply
	if err := json.Unmarshal([]byte(ai.CleanJSON(reply)), &parsed); err != nil {
		in.log.Warn().Err(err).Msg("Interpreter model returned malformed JSON")
		return domain.QueryIntent{}, false
	}

	analysis := domain.AnalysisType(strings.ToLower(strings.TrimSpace(parsed.AnalysisType)))
	switch analysis {
	case domain.AnalysisComparison, domain.AnalysisTrend, domain.AnalysisCategoryBreakdown,
		domain.AnalysisTotal, domain.AnalysisPeriodAnalysis:
	default:
		in.log.Warn().Str("analysis_type", parsed.AnalysisType).Msg("Interpreter model returned unknown analysis type")
		return domain.QueryIntent{}, false
	}

	intent := domain.QueryIntent{
		AnalysisType:     analysis,
		Granularity:      domain.Granularity(strings.ToLower(parsed.Granularity)),
		ChartType:        domain.ChartType(strings.ToLower(parsed.ChartType)),
		IncludeBreakdown: parsed.IncludeBreakdown,
	}
	if !domain.ValidGranularity(intent.Granularity) {
		intent.Granularity = domain.GranularityMonth
	}
	if intent.ChartType == "" {
		intent.ChartType = defaultChartType(analysis)
	}

	if analysis == domain.AnalysisComparison {
		switch ct := domain.ComparisonType(strings.ToLower(parsed.ComparisonType)); ct {
		case domain.CompareTimePeriods, domain.CompareCategories, domain.CompareCategoriesOverTime:
			intent.ComparisonType = ct
		default:
			intent.ComparisonType = domain.CompareTimePeriods
		}
	}

	today := in.now()
	for _, p := range parsed.TimePeriods {
		intent.TimePeriods = append(intent.TimePeriods, in.resolvePeriod(p, today))
	}
	if len(intent.TimePeriods) == 0 {
		if w, ok := windowFromPhrase(query, today); ok {
			intent.TimePeriods = []domain.TimeWindow{w}
		} else {
			intent.TimePeriods = []domain.TimeWindow{{Label: "all time"}}
		}
	}

	// A time-period comparison needs at least two windows.
	if intent.AnalysisType == domain.AnalysisComparison &&
		intent.ComparisonType == domain.CompareTimePeriods &&
		len(intent.TimePeriods) < 2 {
		in.log.Warn().Int("periods", len(intent.TimePeriods)).Msg("Comparison intent missing second window")
		return domain.QueryIntent{}, false
	}

	// Unknown categories are dropped from the filter, not errors.
	for _, raw := range parsed.Categories {
		if domain.ValidCategory(raw) {
			intent.Categories = append(intent.Categories, domain.ParseCategory(raw))
		}
	}

	return intent, true
}

func (in *Interpreter) resolvePeriod(p periodReply, today time.Time) domain.TimeWindow {
	w := domain.TimeWindow{Label: p.Label}
	if t, err := time.Parse("2006-01-02", strings.TrimSpace(p.StartDate)); err == nil {
		w.Start = &t
	}
	if t, err := time.Parse("2006-01-02", strings.TrimSpace(p.EndDate)); err == nil {
		w.End = &t
	}
	if w.Start == nil && w.End == nil && p.Period != "" {
		if resolved, ok := windowFromPhrase(p.Period, today); ok {
			resolved.Label = firstNonEmpty(p.Label, resolved.Label)
			return resolved
		}
	}
	if w.Label == "" {
		w.Label = "all time"
	}
	return w
}

// fallbackIntent is the deterministic rule table applied when the model path
// fails or its output does not validate.
func (in *Interpreter) fallbackIntent(query string) domain.QueryIntent {
	q := strings.ToLower(query)
	today := in.now()

	if containsAny(q, "vs", "versus", "compare", "comparison") {
		intent := domain.QueryIntent{
			AnalysisType:   domain.AnalysisComparison,
			ComparisonType: domain.CompareTimePeriods,
			ChartType:      domain.ChartComparisonBar,
			Granularity:    domain.GranularityMonth,
		}
		// "this month" and "last month" together pick the two windows;
		// otherwise the same pair is the comparison default.
		thisStart, thisEnd := ResolveWindow("this month", today)
		lastStart, lastEnd := ResolveWindow("last month", today)
		intent.TimePeriods = []domain.TimeWindow{
			{Label: "This Month", Start: thisStart, End: thisEnd},
			{Label: "Last Month", Start: lastStart, End: lastEnd},
		}
		return intent
	}

	intent := domain.QueryIntent{
		AnalysisType: domain.AnalysisCategoryBreakdown,
		ChartType:    domain.ChartPie,
		Granularity:  domain.GranularityMonth,
	}
	if w, ok := windowFromPhrase(q, today); ok {
		intent.TimePeriods = []domain.TimeWindow{w}
	} else {
		intent.TimePeriods = []domain.TimeWindow{{Label: "all time"}}
	}
	return intent
}

func defaultChartType(a domain.AnalysisType) domain.ChartType {
	switch a {
	case domain.AnalysisComparison:
		return domain.ChartComparisonBar
	case domain.AnalysisTrend:
		return domain.ChartLine
	case domain.AnalysisTotal:
		return domain.ChartNone
	default:
		return domain.ChartPie
	}
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
