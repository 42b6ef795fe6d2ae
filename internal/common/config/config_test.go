package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/featherline/backend/internal/common/config"
)

const validSecret = "test-secret-key-that-is-long-enough-123"

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", validSecret)
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/app")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.HTTPPort != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.HTTPPort)
	}
	if cfg.Environment != "development" {
		t.Errorf("expected default environment development, got %s", cfg.Environment)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Errorf("expected default token ttl 24h, got %s", cfg.TokenTTL)
	}
	if cfg.IsProduction() {
		t.Error("development must not report as production")
	}
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/app")

	_, err := config.Load()
	if !errors.Is(err, config.ErrMissingRequiredEnv) {
		t.Errorf("expected ErrMissingRequiredEnv, got %v", err)
	}
}

func TestLoad_ShortSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "too-short")
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/app")

	_, err := config.Load()
	if !errors.Is(err, config.ErrInvalidJWTSecret) {
		t.Errorf("expected ErrInvalidJWTSecret, got %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("TOKEN_TTL", "1h")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.HTTPPort != "9000" {
		t.Errorf("expected port 9000, got %s", cfg.HTTPPort)
	}
	if !cfg.IsProduction() {
		t.Error("expected production environment")
	}
	if cfg.TokenTTL != time.Hour {
		t.Errorf("expected 1h token ttl, got %s", cfg.TokenTTL)
	}
}

func TestLoad_BadDurationFallsBack(t *testing.T) {
	setRequired(t)
	t.Setenv("TOKEN_TTL", "not-a-duration")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Errorf("expected fallback 24h, got %s", cfg.TokenTTL)
	}
}
