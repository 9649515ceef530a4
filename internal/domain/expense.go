package domain

import (
	"strings"
	"time"
)

// DefaultUserID is the fixed subject used when a request carries no user id.
const DefaultUserID = "default_user"

// DefaultCurrency is SGD regardless of locale. This is a deliberate business
// rule, not an oversight: the tracker is built for Singapore-based spending.
const DefaultCurrency = "SGD"

// Category is the closed set of expense categories. Anything the extraction
// model returns outside this set is normalized to CategoryOther.
type Category string

const (
	CategoryFood           Category = "food"
	CategoryTransportation Category = "transportation"
	CategoryEntertainment  Category = "entertainment"
	CategoryUtilities      Category = "utilities"
	CategoryShopping       Category = "shopping"
	CategoryGroceries      Category = "groceries"
	CategoryHealthcare     Category = "healthcare"
	CategoryEducation      Category = "education"
	CategoryTravel         Category = "travel"
	CategorySubscription   Category = "subscription"
	CategoryFamily         Category = "family"
	CategoryOther          Category = "other"
)

// Categories lists every valid category in declaration order.
var Categories = []Category{
	CategoryFood,
	CategoryTransportation,
	CategoryEntertainment,
	CategoryUtilities,
	CategoryShopping,
	CategoryGroceries,
	CategoryHealthcare,
	CategoryEducation,
	CategoryTravel,
	CategorySubscription,
	CategoryFamily,
	CategoryOther,
}

var categorySet = func() map[Category]bool {
	m := make(map[Category]bool, len(Categories))
	for _, c := range Categories {
		m[c] = true
	}
	return m
}()

// ParseCategory normalizes a raw category string to a member of the closed
// enum. Unrecognized values map to CategoryOther.
func ParseCategory(raw string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	if categorySet[c] {
		return c
	}
	return CategoryOther
}

// ValidCategory reports whether raw names a member of the closed enum.
func ValidCategory(raw string) bool {
	return categorySet[Category(strings.ToLower(strings.TrimSpace(raw)))]
}

// Expense is one logged transaction, produced by the extraction step from
// free text and persisted as a single spreadsheet row.
type Expense struct {
	Timestamp     time.Time `json:"timestamp"`
	Date          string    `json:"date"` // YYYY-MM-DD
	Time          string    `json:"time"` // HH:MM:SS
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	Category      Category  `json:"category"`
	Subcategory   string    `json:"subcategory,omitempty"`
	Description   string    `json:"description"`
	Tags          []string  `json:"tags"`
	Location      string    `json:"location,omitempty"`
	PaymentMethod string    `json:"payment_method,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	UserID        string    `json:"user_id"`
}

// NewExpense fills derived and defaulted fields from a timestamp. Amount,
// category and description are set by the caller.
func NewExpense(ts time.Time, userID string) Expense {
	if userID == "" {
		userID = DefaultUserID
	}
	return Expense{
		Timestamp: ts,
		Date:      ts.Format("2006-01-02"),
		Time:      ts.Format("15:04:05"),
		Currency:  DefaultCurrency,
		Category:  CategoryOther,
		Tags:      []string{},
		UserID:    userID,
	}
}
