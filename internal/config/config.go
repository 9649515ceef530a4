package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings for the service. Values come from
// environment variables, optionally seeded from a .env file.
type Config struct {
	Port     string
	LogLevel string

	// Authentication
	StaticPassword    string
	JWTSecret         string
	AccessTokenExpiry time.Duration

	// Google AI
	GoogleAIKey string
	GeminiModel string

	// Google Sheets
	ServiceAccountFile string
	SpreadsheetID      string
	WorksheetName      string

	// Timezone all calendar dates are expressed in.
	Timezone string
}

// Load reads configuration from the environment. A missing .env file is not
// an error; production relies on real environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		StaticPassword:     os.Getenv("STATIC_PASSWORD"),
		JWTSecret:          os.Getenv("JWT_SECRET_KEY"),
		AccessTokenExpiry:  getEnvAsMinutes("ACCESS_TOKEN_EXPIRE_MINUTES", 1440),
		GoogleAIKey:        os.Getenv("GOOGLE_AI_API_KEY"),
		GeminiModel:        getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		ServiceAccountFile: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		SpreadsheetID:      os.Getenv("GOOGLE_SHEET_ID"),
		WorksheetName:      getEnv("WORKSHEET_NAME", "expenses"),
		Timezone:           getEnv("DEFAULT_TIMEZONE", "UTC"),
	}

	if cfg.StaticPassword == "" {
		return nil, fmt.Errorf("config: STATIC_PASSWORD is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("config: JWT_SECRET_KEY is required")
	}

	return cfg, nil
}

// Location resolves the configured timezone, falling back to UTC when the
// name is unknown.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsMinutes(key string, fallback int) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return time.Duration(fallback) * time.Minute
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return time.Duration(fallback) * time.Minute
	}
	return time.Duration(n) * time.Minute
}
