package extract

import (
	"strings"
	"time"

	"github.com/kaisng/expense-tracker/internal/domain"
)

// buildPrompt constructs the fixed-schema extraction instruction. The model
// must answer with a single strict JSON object.
func buildPrompt(text string, now time.Time) string {
	categories := make([]string, len(domain.Categories))
	for i, c := range domain.Categories {
		categories[i] = string(c)
	}

	var b strings.Builder
	b.WriteString("Parse the following expense text into structured data and return a single JSON object.\n\n")
	b.WriteString("Text: \"" + text + "\"\n\n")
	b.WriteString("Return exactly these fields:\n")
	b.WriteString("{\n")
	b.WriteString("  \"timestamp\": \"ISO datetime string (use the time mentioned in the text, otherwise the current time)\",\n")
	b.WriteString("  \"amount\": numeric amount (required),\n")
	b.WriteString("  \"currency\": \"currency code, default " + domain.DefaultCurrency + " if not specified\",\n")
	b.WriteString("  \"category\": \"one of: " + strings.Join(categories, ", ") + "\",\n")
	b.WriteString("  \"subcategory\": \"more specific category if applicable\",\n")
	b.WriteString("  \"description\": \"clear description of the expense\",\n")
	b.WriteString("  \"tags\": [\"relevant\", \"keywords\"],\n")
	b.WriteString("  \"location\": \"location if mentioned\",\n")
	b.WriteString("  \"payment_method\": \"cash, card, online, etc. if mentioned\",\n")
	b.WriteString("  \"notes\": \"any additional context\"\n")
	b.WriteString("}\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("- If no time is specified, use the current time.\n")
	b.WriteString("- If no date is specified, assume today.\n")
	b.WriteString("- Amount is required and must be a non-negative number.\n")
	b.WriteString("- Category must be one of the listed options.\n")
	b.WriteString("- Return ONLY valid raw JSON. Do NOT wrap the response in code fences.\n\n")
	b.WriteString("Current datetime for reference: " + now.Format(time.RFC3339) + "\n")
	return b.String()
}
