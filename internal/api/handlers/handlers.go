// Package handlers implements the HTTP surface. Handlers hold their
// dependencies explicitly; nothing here reaches for globals.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/kaisng/expense-tracker/internal/analytics"
	"github.com/kaisng/expense-tracker/internal/api/middleware"
	"github.com/kaisng/expense-tracker/internal/domain"
	"github.com/kaisng/expense-tracker/internal/extract"
	"github.com/kaisng/expense-tracker/internal/store"
)

// ExpensesHandler serves expense creation, listing, search and direct row
// access.
type ExpensesHandler struct {
	store     store.RowStore
	extractor *extract.Extractor
	log       zerolog.Logger
}

// NewExpensesHandler creates an expenses handler.
func NewExpensesHandler(st store.RowStore, extractor *extract.Extractor, log zerolog.Logger) *ExpensesHandler {
	return &ExpensesHandler{store: st, extractor: extractor, log: log}
}

type expenseInput struct {
	Text   string `json:"text"`
	UserID string `json:"user_id"`
}

// AddExpense handles POST /api/v1/expenses
func (h *ExpensesHandler) AddExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		middleware.WriteError(w, http.StatusBadRequest, "text is required")
		return
	}

	expense := h.extractor.Extract(r.Context(), req.Text, req.UserID)

	rowNumber, err := h.store.Append(r.Context(), expense)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to append expense row")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to record expense")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"message":    fmt.Sprintf("Expense successfully recorded in row %d", rowNumber),
		"expense":    expense,
		"row_number": rowNumber,
	})
}

// ListExpenses handles GET /api/v1/expenses/{userID}
func (h *ExpensesHandler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	window, ok := windowFromQuery(w, r)
	if !ok {
		return
	}

	records, err := h.store.List(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list expense rows")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to fetch expenses")
		return
	}

	filtered := store.Filter{
		UserID:   userID,
		Window:   window,
		Category: r.URL.Query().Get("category"),
	}.Apply(records)

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"count":    len(filtered),
		"expenses": filtered,
	})
}

// TotalSpending handles GET /api/v1/spending/total/{userID}
func (h *ExpensesHandler) TotalSpending(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	window, ok := windowFromQuery(w, r)
	if !ok {
		return
	}

	records, err := h.store.List(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list expense rows")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to calculate total spending")
		return
	}

	total := 0.0
	for _, rec := range (store.Filter{UserID: userID, Window: window}).Apply(records) {
		total += rec.Amount
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":        true,
		"user_id":        userID,
		"total_spending": total,
		"period":         periodPayload(window),
	})
}

// CategorySpending handles GET /api/v1/spending/category/{userID}
func (h *ExpensesHandler) CategorySpending(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	window, ok := windowFromQuery(w, r)
	if !ok {
		return
	}

	records, err := h.store.List(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list expense rows")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get category breakdown")
		return
	}

	filtered := store.Filter{UserID: userID, Window: window}.Apply(records)
	breakdown := make(map[string]float64)
	total := 0.0
	for _, rec := range filtered {
		breakdown[string(rec.Category)] += rec.Amount
		total += rec.Amount
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":            true,
		"user_id":            userID,
		"category_breakdown": breakdown,
		"total":              total,
		"period":             periodPayload(window),
	})
}

// SearchExpenses handles GET /api/v1/search/{userID}
func (h *ExpensesHandler) SearchExpenses(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	query := r.URL.Query().Get("q")
	if strings.TrimSpace(query) == "" {
		middleware.WriteError(w, http.StatusBadRequest, "q is required")
		return
	}

	records, err := h.store.List(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list expense rows")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to search expenses")
		return
	}

	mine := store.Filter{UserID: userID}.Apply(records)
	results := store.Search(mine, query)

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"query":   query,
		"count":   len(results),
		"results": results,
	})
}

// GetRow handles GET /api/v1/expenses/row/{rowNumber}
func (h *ExpensesHandler) GetRow(w http.ResponseWriter, r *http.Request) {
	rowNumber, ok := rowNumberParam(w, r)
	if !ok {
		return
	}

	record, err := h.store.Get(r.Context(), rowNumber)
	if err != nil {
		h.writeRowError(w, err, rowNumber)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"expense": record,
	})
}

// UpdateRow handles PUT /api/v1/expenses/row/{rowNumber}. The body is the
// same free-text input as AddExpense; the row is re-extracted and rewritten
// in place.
func (h *ExpensesHandler) UpdateRow(w http.ResponseWriter, r *http.Request) {
	rowNumber, ok := rowNumberParam(w, r)
	if !ok {
		return
	}

	var req expenseInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		middleware.WriteError(w, http.StatusBadRequest, "text is required")
		return
	}

	expense := h.extractor.Extract(r.Context(), req.Text, req.UserID)
	if err := h.store.Update(r.Context(), rowNumber, expense); err != nil {
		h.writeRowError(w, err, rowNumber)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"message":    fmt.Sprintf("Expense at row %d updated", rowNumber),
		"expense":    expense,
		"row_number": rowNumber,
	})
}

// DeleteRow handles DELETE /api/v1/expenses/row/{rowNumber}. Rows after the
// deleted one shift up by one position.
func (h *ExpensesHandler) DeleteRow(w http.ResponseWriter, r *http.Request) {
	rowNumber, ok := rowNumberParam(w, r)
	if !ok {
		return
	}

	if err := h.store.Delete(r.Context(), rowNumber); err != nil {
		h.writeRowError(w, err, rowNumber)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": fmt.Sprintf("Expense at row %d deleted", rowNumber),
	})
}

func (h *ExpensesHandler) writeRowError(w http.ResponseWriter, err error, rowNumber int) {
	if errors.Is(err, store.ErrRowNotFound) {
		middleware.WriteError(w, http.StatusNotFound, fmt.Sprintf("Row %d not found", rowNumber))
		return
	}
	h.log.Error().Err(err).Int("row", rowNumber).Msg("Row store operation failed")
	middleware.WriteError(w, http.StatusInternalServerError, "Row store operation failed")
}

// AnalyticsHandler serves natural-language analytics questions.
type AnalyticsHandler struct {
	interpreter *analytics.Interpreter
	engine      *analytics.Engine
	assembler   *analytics.Assembler
	log         zerolog.Logger
}

// NewAnalyticsHandler creates an analytics handler.
func NewAnalyticsHandler(interpreter *analytics.Interpreter, engine *analytics.Engine, assembler *analytics.Assembler, log zerolog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		interpreter: interpreter,
		engine:      engine,
		assembler:   assembler,
		log:         log,
	}
}

// Query handles POST /api/v1/analytics
func (h *AnalyticsHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query  string `json:"query"`
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		middleware.WriteError(w, http.StatusBadRequest, "query is required")
		return
	}

	intent := h.interpreter.Interpret(r.Context(), req.Query)

	result, err := h.engine.Aggregate(r.Context(), intent, req.UserID)
	if err != nil {
		h.log.Error().Err(err).Str("query", req.Query).Msg("Aggregation failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to generate analytics")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, h.assembler.Assemble(req.Query, result))
}

// Root handles GET /
func Root(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Personal Expense Tracker API",
		"authentication": map[string]string{
			"login":  "/auth/login",
			"verify": "/auth/verify",
			"note":   "All expense endpoints require Bearer token authentication",
		},
		"endpoints": map[string]string{
			"add_expense":        "/api/v1/expenses",
			"get_analytics":      "/api/v1/analytics",
			"get_expenses":       "/api/v1/expenses/{user_id}",
			"total_spending":     "/api/v1/spending/total/{user_id}",
			"category_breakdown": "/api/v1/spending/category/{user_id}",
			"search":             "/api/v1/search/{user_id}",
		},
	})
}

// Health handles GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "personal-expense-api",
	})
}

// windowFromQuery builds a time window from start_date / end_date query
// parameters, writing a 400 and returning false on malformed dates.
func windowFromQuery(w http.ResponseWriter, r *http.Request) (domain.TimeWindow, bool) {
	window := domain.TimeWindow{Label: "all time"}
	for _, bound := range []struct {
		param string
		dst   **time.Time
	}{
		{"start_date", &window.Start},
		{"end_date", &window.End},
	} {
		raw := r.URL.Query().Get(bound.param)
		if raw == "" {
			continue
		}
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s, expected YYYY-MM-DD", bound.param))
			return domain.TimeWindow{}, false
		}
		*bound.dst = &t
	}
	return window, true
}

func periodPayload(w domain.TimeWindow) map[string]interface{} {
	payload := map[string]interface{}{"start_date": nil, "end_date": nil}
	if w.Start != nil {
		payload["start_date"] = w.Start.Format("2006-01-02")
	}
	if w.End != nil {
		payload["end_date"] = w.End.Format("2006-01-02")
	}
	return payload
}

// rowNumberParam parses the {rowNumber} path parameter.
func rowNumberParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "rowNumber")
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid row number")
		return 0, false
	}
	return n, true
}
