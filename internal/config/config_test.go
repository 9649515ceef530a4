package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("STATIC_PASSWORD", "pw")
	t.Setenv("JWT_SECRET_KEY", "secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.AccessTokenExpiry != 1440*time.Minute {
		t.Errorf("AccessTokenExpiry = %v, want 24h", cfg.AccessTokenExpiry)
	}
	if cfg.WorksheetName != "expenses" {
		t.Errorf("WorksheetName = %q", cfg.WorksheetName)
	}
	if cfg.GeminiModel == "" {
		t.Error("GeminiModel has no default")
	}
}

func TestLoadMissingSecrets(t *testing.T) {
	t.Setenv("STATIC_PASSWORD", "")
	t.Setenv("JWT_SECRET_KEY", "")
	if _, err := Load(); err == nil {
		t.Error("expected error when STATIC_PASSWORD is missing")
	}

	t.Setenv("STATIC_PASSWORD", "pw")
	if _, err := Load(); err == nil {
		t.Error("expected error when JWT_SECRET_KEY is missing")
	}
}

func TestLoadExpiryOverride(t *testing.T) {
	setRequired(t)

	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "60")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AccessTokenExpiry != time.Hour {
		t.Errorf("AccessTokenExpiry = %v, want 1h", cfg.AccessTokenExpiry)
	}

	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "junk")
	cfg, _ = Load()
	if cfg.AccessTokenExpiry != 1440*time.Minute {
		t.Errorf("AccessTokenExpiry = %v, want fallback on junk input", cfg.AccessTokenExpiry)
	}
}

func TestLocation(t *testing.T) {
	cfg := &Config{Timezone: "Asia/Singapore"}
	if cfg.Location().String() != "Asia/Singapore" {
		t.Errorf("Location = %v", cfg.Location())
	}

	cfg = &Config{Timezone: "Mars/Olympus"}
	if cfg.Location() != time.UTC {
		t.Errorf("unknown timezone should fall back to UTC, got %v", cfg.Location())
	}
}
