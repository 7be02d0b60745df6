package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"taskhub.org/internal/auth"
)

// Config carries process-wide settings, loaded once at startup.
type Config struct {
	HTTP          HTTPConfig
	DatabaseDSN   string
	Auth          AuthConfig
	MigrationsDir string
}

type HTTPConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// AuthConfig is the configuration surface of the authentication core. The
// signing secret has no default: its absence is a fatal startup condition.
type AuthConfig struct {
	SigningSecret string
	IssuerName    string
	TokenTTL      time.Duration
}

// Load reads configuration from the environment. TASKHUB_AUTH_SECRET is
// required; everything else has a default.
func Load() (Config, error) {
	cfg := Config{
		HTTP: HTTPConfig{
			Addr:            getEnv("TASKHUB_ADDR", ":8080"),
			ReadTimeout:     time.Duration(getEnvInt("TASKHUB_HTTP_READ_TIMEOUT_SEC", 15)) * time.Second,
			WriteTimeout:    time.Duration(getEnvInt("TASKHUB_HTTP_WRITE_TIMEOUT_SEC", 15)) * time.Second,
			IdleTimeout:     time.Duration(getEnvInt("TASKHUB_HTTP_IDLE_TIMEOUT_SEC", 60)) * time.Second,
			ShutdownTimeout: time.Duration(getEnvInt("TASKHUB_HTTP_SHUTDOWN_TIMEOUT_SEC", 10)) * time.Second,
		},
		DatabaseDSN: getEnv("TASKHUB_PG_DSN", ""),
		Auth: AuthConfig{
			SigningSecret: os.Getenv("TASKHUB_AUTH_SECRET"),
			IssuerName:    getEnv("TASKHUB_TOKEN_ISSUER", "taskhub"),
			TokenTTL:      time.Duration(getEnvInt("TASKHUB_TOKEN_TTL_MIN", int(auth.DefaultTokenTTL/time.Minute))) * time.Minute,
		},
		MigrationsDir: getEnv("TASKHUB_MIGRATIONS_DIR", "migrations"),
	}

	if cfg.HTTP.Addr == "" {
		return Config{}, fmt.Errorf("TASKHUB_ADDR must not be empty")
	}
	if cfg.DatabaseDSN == "" {
		return Config{}, fmt.Errorf("TASKHUB_PG_DSN is required")
	}
	if cfg.Auth.SigningSecret == "" {
		return Config{}, fmt.Errorf("TASKHUB_AUTH_SECRET is required")
	}
	if cfg.Auth.TokenTTL <= 0 {
		return Config{}, fmt.Errorf("TASKHUB_TOKEN_TTL_MIN must be > 0")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	return val
}

func getEnvInt(key string, fallback int) int {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return n
}
