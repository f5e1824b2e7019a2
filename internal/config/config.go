package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const envPrefix = "ANCESTRA_"

// Config holds everything the service needs at startup. It is built once in
// main and passed into the components that need it; no package reads the
// environment on its own.
type Config struct {
	ListenAddr string

	// Signing secret for bearer tokens. Required.
	AuthSecret string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Postgres DSN for the credential and person stores. Optional: when
	// empty the service runs against in-memory stores (development mode).
	PostgresDSN string

	// Base URL of the background task engine. Optional: when empty, task
	// status lookups run against an empty in-memory engine.
	TaskEngineURL string

	RateBurst  int
	RatePerSec int

	MaxBodyBytes int64
}

// Load reads configuration from ANCESTRA_* environment variables and applies
// defaults. It fails when a required value is missing or unparseable.
func Load() (Config, error) {
	cfg := Config{
		ListenAddr:    getEnv("ADDR", ":5555"),
		AuthSecret:    strings.TrimSpace(os.Getenv(envPrefix + "AUTH_SECRET")),
		Issuer:        getEnv("ISSUER", "ancestra"),
		PostgresDSN:   strings.TrimSpace(os.Getenv(envPrefix + "PG_DSN")),
		TaskEngineURL: strings.TrimSpace(os.Getenv(envPrefix + "TASK_ENGINE_URL")),
	}
	if cfg.AuthSecret == "" {
		return Config{}, errors.New("config: " + envPrefix + "AUTH_SECRET is required")
	}

	var err error
	if cfg.AccessTTL, err = getDuration("ACCESS_TTL", 15*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.RefreshTTL, err = getDuration("REFRESH_TTL", 14*24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.AccessTTL >= cfg.RefreshTTL {
		return Config{}, errors.New("config: access TTL must be shorter than refresh TTL")
	}
	if cfg.RateBurst, err = getInt("RATE_BURST", 20); err != nil {
		return Config{}, err
	}
	if cfg.RatePerSec, err = getInt("RATE_PER_SEC", 10); err != nil {
		return Config{}, err
	}
	maxBody, err := getInt("MAX_BODY_BYTES", 1<<20)
	if err != nil {
		return Config{}, err
	}
	cfg.MaxBodyBytes = int64(maxBody)
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(envPrefix + key)); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(envPrefix + key))
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: parse %s%s: %w", envPrefix, key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("config: %s%s must be positive", envPrefix, key)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(envPrefix + key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("config: parse %s%s: %w", envPrefix, key, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("config: %s%s must be positive", envPrefix, key)
	}
	return v, nil
}
