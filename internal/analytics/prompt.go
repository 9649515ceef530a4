package analytics

import (
	"strings"

	"github.com/kaisng/expense-tracker/internal/domain"
)

// buildPrompt constructs the fixed-schema interpretation instruction. The
// model translates only; all computation happens locally in the engine.
func (in *Interpreter) buildPrompt(query string) string {
	categories := make([]string, len(domain.Categories))
	for i, c := range domain.Categories {
		categories[i] = string(c)
	}

	var b strings.Builder
	b.WriteString("You are a query translator for a personal expense tracker.\n")
	b.WriteString("Translate the user's question about their spending into a structured JSON request.\n")
	b.WriteString("You are a TRANSLATOR ONLY - do NOT compute any values.\n\n")
	b.WriteString("CURRENT DATE: " + in.now().Format("2006-01-02") + "\n\n")
	b.WriteString("USER QUERY: \"" + query + "\"\n\n")
	b.WriteString("Respond with exactly this JSON shape:\n")
	b.WriteString(`{
  "analysis_type": "comparison|trend|category_breakdown|total|period_analysis",
  "comparison_type": "time_periods|categories|categories_over_time",
  "time_periods": [
    {"label": "This Month", "start_date": "YYYY-MM-DD", "end_date": "YYYY-MM-DD", "period": "relative phrase like 'last month' if no explicit dates"}
  ],
  "categories": ["category filter, empty for all"],
  "granularity": "day|week|month|year",
  "chart_type": "pie|bar|line|comparison_bar|none",
  "include_breakdown": false
}` + "\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("- analysis_type \"comparison\" with comparison_type \"time_periods\" requires at least two time_periods.\n")
	b.WriteString("- Omit start_date/end_date for unbounded windows; an empty time_periods list means all time.\n")
	b.WriteString("- categories must come from: " + strings.Join(categories, ", ") + "\n")
	b.WriteString("- \"how much\" questions are total; \"by category\" questions are category_breakdown; \"over time\" questions are trend or period_analysis.\n")
	b.WriteString("- Return ONLY valid raw JSON. Do NOT wrap the response in code fences.\n")
	return b.String()
}
