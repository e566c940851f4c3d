package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const minSecretLength = 32

// Config holds the process-wide auth configuration. It is built once at
// startup and passed by reference into services; core logic never reads the
// environment directly, so tests can run with distinct secrets per test.
type Config struct {
	// JWTSecret signs session credentials. Required, at least 32 bytes.
	JWTSecret []byte

	// TokenTTL is the one-time login code validity window.
	TokenTTL time.Duration

	// SessionTTL is the session credential validity window.
	SessionTTL time.Duration

	// RequestLimit and VerifyLimit are per-IP ceilings within RateWindow.
	RequestLimit int
	VerifyLimit  int
	RateWindow   time.Duration

	// SendTimeout bounds notification sink calls; StoreTimeout bounds
	// individual credential store calls.
	SendTimeout  time.Duration
	StoreTimeout time.Duration

	// SweepInterval is how often the background reaper runs.
	SweepInterval time.Duration
}

// Load builds the configuration from the environment. A missing or short
// JWT_SECRET is a startup error: the process must refuse to serve auth
// routes rather than sign credentials with a weak secret.
func Load() (*Config, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET not configured")
	}
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("JWT_SECRET must be at least %d bytes, got %d", minSecretLength, len(secret))
	}

	cfg := &Config{
		JWTSecret:     []byte(secret),
		TokenTTL:      envDuration("AUTH_TOKEN_EXPIRATION", 15*time.Minute),
		SessionTTL:    envDuration("JWT_EXPIRES_IN", 24*time.Hour),
		RequestLimit:  envInt("RATE_LIMIT_TOKEN_REQUEST", 3),
		VerifyLimit:   envInt("RATE_LIMIT_TOKEN_VERIFY", 5),
		RateWindow:    envDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
		SendTimeout:   envDuration("EMAIL_SEND_TIMEOUT", 10*time.Second),
		StoreTimeout:  envDuration("STORE_TIMEOUT", 5*time.Second),
		SweepInterval: envDuration("SWEEP_INTERVAL", 10*time.Minute),
	}
	return cfg, nil
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
