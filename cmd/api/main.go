package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"

	"github.com/kaisng/expense-tracker/internal/ai"
	"github.com/kaisng/expense-tracker/internal/analytics"
	"github.com/kaisng/expense-tracker/internal/api/handlers"
	"github.com/kaisng/expense-tracker/internal/api/middleware"
	"github.com/kaisng/expense-tracker/internal/auth"
	"github.com/kaisng/expense-tracker/internal/chart"
	"github.com/kaisng/expense-tracker/internal/config"
	"github.com/kaisng/expense-tracker/internal/extract"
	"github.com/kaisng/expense-tracker/internal/logger"
	"github.com/kaisng/expense-tracker/internal/store"
	"github.com/kaisng/expense-tracker/internal/store/inmemory"
	"github.com/kaisng/expense-tracker/internal/store/sheets"
)

func main() {
	port := flag.String("port", "", "HTTP server port (overrides PORT env)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info")
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *port != "" {
		cfg.Port = *port
	}

	log := logger.New(cfg.LogLevel)
	log.Info().Str("port", cfg.Port).Msg("Starting expense tracker API")

	ctx := context.Background()

	// Row store: Google Sheets when configured, otherwise an in-memory
	// store so the API stays usable in local development.
	var rowStore store.RowStore
	if cfg.SpreadsheetID != "" {
		sheetStore, err := sheets.New(ctx, sheets.Config{
			CredentialsFile: cfg.ServiceAccountFile,
			SpreadsheetID:   cfg.SpreadsheetID,
			WorksheetName:   cfg.WorksheetName,
		}, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Google Sheets")
		}
		rowStore = sheetStore
		log.Info().Str("spreadsheet", cfg.SpreadsheetID).Str("worksheet", cfg.WorksheetName).Msg("Using Google Sheets row store")
	} else {
		rowStore = inmemory.New()
		log.Warn().Msg("SPREADSHEET_ID not set, using in-memory store; data will not persist")
	}

	// Language model: without an API key the extractor and interpreter
	// run on their rule-based fallbacks alone.
	var model ai.TextModel
	if cfg.GoogleAIKey != "" {
		gemini, err := ai.NewGemini(ctx, cfg.GoogleAIKey, cfg.GeminiModel)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Gemini client")
		}
		model = gemini
		log.Info().Str("model", cfg.GeminiModel).Msg("Gemini client ready")
	} else {
		log.Warn().Msg("GOOGLE_AI_API_KEY not set, falling back to rule-based parsing")
	}

	authSvc := auth.NewService(cfg.StaticPassword, cfg.JWTSecret, cfg.AccessTokenExpiry)
	extractor := extract.New(model, cfg.Location(), log)
	interpreter := analytics.NewInterpreter(model, log)
	engine := analytics.NewEngine(rowStore, log)
	assembler := analytics.NewAssembler(chart.NewPNGRenderer(), log)

	authHandler := handlers.NewAuthHandler(authSvc, log)
	expensesHandler := handlers.NewExpensesHandler(rowStore, extractor, log)
	analyticsHandler := handlers.NewAnalyticsHandler(interpreter, engine, assembler, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Use(middleware.CORS)
	r.Use(middleware.RateLimit(rate.NewLimiter(rate.Limit(20), 40), log))

	r.Get("/", handlers.Root)
	r.Get("/health", handlers.Health)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", authHandler.Login)
		r.Post("/verify", authHandler.Verify)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(authSvc))

		r.Post("/expenses", expensesHandler.AddExpense)
		r.Get("/expenses/{userID}", expensesHandler.ListExpenses)
		r.Get("/expenses/row/{rowNumber}", expensesHandler.GetRow)
		r.Put("/expenses/row/{rowNumber}", expensesHandler.UpdateRow)
		r.Delete("/expenses/row/{rowNumber}", expensesHandler.DeleteRow)

		r.Get("/spending/total/{userID}", expensesHandler.TotalSpending)
		r.Get("/spending/category/{userID}", expensesHandler.CategorySpending)
		r.Get("/search/{userID}", expensesHandler.SearchExpenses)

		r.Post("/analytics", analyticsHandler.Query)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
	log.Info().Msg("Server stopped")
}
