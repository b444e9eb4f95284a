package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/iho/gobank/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL == "" {
		t.Fatalf("expected default database URL to be set")
	}

	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default HTTP port 8080, got %s", cfg.HTTPPort)
	}

	if cfg.MaxAccountsPerUser != 3 {
		t.Fatalf("expected default account limit 3, got %d", cfg.MaxAccountsPerUser)
	}

	if cfg.DatabaseLockTimeout != 5*time.Second {
		t.Fatalf("expected default lock timeout 5s, got %s", cfg.DatabaseLockTimeout)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_LOCK_TIMEOUT", "45s")
	t.Setenv("MAX_ACCOUNTS_PER_USER", "5")
	t.Setenv("OUTBOX_ENABLED", "false")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL != "postgres://example" {
		t.Fatalf("expected custom database URL, got %s", cfg.DatabaseURL)
	}

	if cfg.RedisURL != "redis://example" {
		t.Fatalf("expected custom redis URL, got %s", cfg.RedisURL)
	}

	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected HTTP port override, got %s", cfg.HTTPPort)
	}

	if cfg.DatabaseLockTimeout != 45*time.Second {
		t.Fatalf("expected lock timeout override, got %s", cfg.DatabaseLockTimeout)
	}

	if cfg.MaxAccountsPerUser != 5 || cfg.OutboxEnabled {
		t.Fatalf("expected policy overrides, got limit=%d outbox=%v", cfg.MaxAccountsPerUser, cfg.OutboxEnabled)
	}
}

func TestLoadRejectsNonPositiveAccountLimit(t *testing.T) {
	t.Setenv("MAX_ACCOUNTS_PER_USER", "0")

	if _, err := config.Load(); err != config.ErrInvalidAccountLimit {
		t.Fatalf("expected ErrInvalidAccountLimit, got %v", err)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	original := os.Getenv("HTTP_READ_TIMEOUT")
	t.Setenv("HTTP_READ_TIMEOUT", "not-a-duration")
	t.Cleanup(func() {
		t.Setenv("HTTP_READ_TIMEOUT", original)
	})

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}
