// Package extract turns free-text expense descriptions into structured
// expenses. The primary path asks the generative model for strict JSON; a
// rule-based parser covers model failures so extraction never errors out.
package extract

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kaisng/expense-tracker/internal/ai"
	"github.com/kaisng/expense-tracker/internal/domain"
)

// Extractor parses expense text. The clock is injectable so tests can pin
// "today".
type Extractor struct {
	model ai.TextModel
	loc   *time.Location
	now   func() time.Time
	log   zerolog.Logger
}

// New creates an extractor. A nil model disables the AI path entirely and
// every input goes through the rule-based parser.
func New(model ai.TextModel, loc *time.Location, log zerolog.Logger) *Extractor {
	if loc == nil {
		loc = time.UTC
	}
	return &Extractor{
		model: model,
		loc:   loc,
		now:   func() time.Time { return time.Now().In(loc) },
		log:   log,
	}
}

// WithClock overrides the extractor's notion of now. Test hook.
func (x *Extractor) WithClock(now func() time.Time) *Extractor {
	x.now = now
	return x
}

// Extract parses the text into an expense. It never returns an error: any
// model or parse failure falls back to the deterministic rule parser.
func (x *Extractor) Extract(ctx context.Context, text, userID string) domain.Expense {
	if x.model != nil {
		if e, ok := x.tryModel(ctx, text, userID); ok {
			return e
		}
	}
	return x.fallbackParse(text, userID)
}

// modelReply is the JSON shape requested from the model. Amount tolerates
// both numeric and quoted values since models are inconsistent about it.
type modelReply struct {
	Timestamp     string     `json:"timestamp"`
	Amount        looseFloat `json:"amount"`
	Currency      string     `json:"currency"`
	Category      string     `json:"category"`
	Subcategory   string     `json:"subcategory"`
	Description   string     `json:"description"`
	Tags          []string   `json:"tags"`
	Location      string     `json:"location"`
	PaymentMethod string     `json:"payment_method"`
	Notes         string     `json:"notes"`
}

func (x *Extractor) tryModel(ctx context.Context, text, userID string) (domain.Expense, bool) {
	reply, err := x.model.GenerateText(ctx, buildPrompt(text, x.now()))
	if err != nil {
		x.log.Warn().Err(err).Msg("Extraction model call failed, using fallback parser")
		return domain.Expense{}, false
	}

	var parsed modelReply
	if err := json.Unmarshal([]byte(ai.CleanJSON(reply)), &parsed); err != nil {
		x.log.Warn().Err(err).Msg("Extraction model returned malformed JSON, using fallback parser")
		return domain.Expense{}, false
	}

	if parsed.Amount < 0 {
		x.log.Warn().Float64("amount", float64(parsed.Amount)).Msg("Extraction model returned negative amount, using fallback parser")
		return domain.Expense{}, false
	}

	ts := x.parseTimestamp(parsed.Timestamp)
	e := domain.NewExpense(ts, userID)
	e.Amount = float64(parsed.Amount)
	if parsed.Currency != "" {
		e.Currency = strings.ToUpper(strings.TrimSpace(parsed.Currency))
	}
	e.Category = domain.ParseCategory(parsed.Category)
	e.Subcategory = parsed.Subcategory
	e.Description = parsed.Description
	if e.Description == "" {
		e.Description = text
	}
	if parsed.Tags != nil {
		e.Tags = parsed.Tags
	}
	e.Location = parsed.Location
	e.PaymentMethod = parsed.PaymentMethod
	e.Notes = parsed.Notes
	return e, true
}

func (x *Extractor) parseTimestamp(raw string) time.Time {
	raw = strings.TrimSpace(strings.Replace(raw, "Z", "+00:00", 1))
	for _, layout := range []string{
		"2006-01-02T15:04:05-07:00",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	} {
		if t, err := time.ParseInLocation(layout, raw, x.loc); err == nil {
			return t
		}
	}
	return x.now()
}

// looseFloat unmarshals from a JSON number or a numeric string.
type looseFloat float64

func (f *looseFloat) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	s = strings.TrimPrefix(s, "$")
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = looseFloat(v)
	return nil
}
