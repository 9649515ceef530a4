package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/kaisng/expense-tracker/internal/domain"
)

var amountRe = regexp.MustCompile(`\$?([0-9]+(?:\.[0-9]+)?)`)

// categoryKeywords maps trigger words to categories. First match wins, in
// declaration order.
var categoryKeywords = []struct {
	category domain.Category
	words    []string
}{
	{domain.CategoryFood, []string{"eat", "food", "lunch", "dinner", "breakfast", "restaurant"}},
	{domain.CategoryTransportation, []string{"transport", "taxi", "bus", "train", "grab"}},
	{domain.CategoryShopping, []string{"shop", "buy", "purchase"}},
	{domain.CategoryFamily, []string{"kids", "toys"}},
}

// fallbackParse builds an expense from the raw text alone: first dollar
// amount in the text, keyword-guessed category, text as description.
func (x *Extractor) fallbackParse(text, userID string) domain.Expense {
	e := domain.NewExpense(x.now(), userID)
	e.Description = text

	if m := amountRe.FindStringSubmatch(text); len(m) >= 2 {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			e.Amount = v
		}
	}

	lower := strings.ToLower(text)
	for _, kw := range categoryKeywords {
		for _, w := range kw.words {
			if strings.Contains(lower, w) {
				e.Category = kw.category
				return e
			}
		}
	}
	return e
}
