package config

import (
	"testing"
	"time"
)

const testSecret = "config-test-secret-0123456789abcdef"

func TestLoad_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Error("Expected Load to fail without JWT_SECRET")
	}
}

func TestLoad_RejectsShortSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "too-short")

	if _, err := Load(); err == nil {
		t.Error("Expected Load to reject a short JWT_SECRET")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.TokenTTL != 15*time.Minute {
		t.Errorf("Expected default token TTL 15m, got %v", cfg.TokenTTL)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("Expected default session TTL 24h, got %v", cfg.SessionTTL)
	}
	if cfg.RequestLimit != 3 || cfg.VerifyLimit != 5 {
		t.Errorf("Expected default limits 3/5, got %d/%d", cfg.RequestLimit, cfg.VerifyLimit)
	}
	if cfg.RateWindow != 15*time.Minute {
		t.Errorf("Expected default rate window 15m, got %v", cfg.RateWindow)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("AUTH_TOKEN_EXPIRATION", "5m")
	t.Setenv("JWT_EXPIRES_IN", "1h")
	t.Setenv("RATE_LIMIT_TOKEN_REQUEST", "10")
	t.Setenv("RATE_LIMIT_WINDOW", "1m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.TokenTTL != 5*time.Minute {
		t.Errorf("Expected token TTL 5m, got %v", cfg.TokenTTL)
	}
	if cfg.SessionTTL != time.Hour {
		t.Errorf("Expected session TTL 1h, got %v", cfg.SessionTTL)
	}
	if cfg.RequestLimit != 10 {
		t.Errorf("Expected request limit 10, got %d", cfg.RequestLimit)
	}
	if cfg.RateWindow != time.Minute {
		t.Errorf("Expected rate window 1m, got %v", cfg.RateWindow)
	}
}

func TestLoad_IgnoresMalformedOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("AUTH_TOKEN_EXPIRATION", "soon")
	t.Setenv("RATE_LIMIT_TOKEN_REQUEST", "many")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.TokenTTL != 15*time.Minute {
		t.Errorf("Malformed duration should fall back to 15m, got %v", cfg.TokenTTL)
	}
	if cfg.RequestLimit != 3 {
		t.Errorf("Malformed int should fall back to 3, got %d", cfg.RequestLimit)
	}
}
