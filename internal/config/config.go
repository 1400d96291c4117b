package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

type EmailConfig struct {
	Host string
	Port int
	// Secure enables implicit TLS (SMTPS, typically port 465).
	Secure bool
	User   string
	Pass   string
	// InsecureSkipVerify disables TLS certificate validation for relays with
	// self-signed certificates. Off unless explicitly enabled.
	InsecureSkipVerify bool
}

type Config struct {
	Port   string
	DBPath string

	MPAccessToken   string
	SuccessURL      string
	PendingURL      string
	FailureURL      string
	NotificationURL string

	FrontendURL    string
	AllowedOrigins []string

	Email EmailConfig
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "3000"),
		DBPath:          getEnv("DB_PATH", "./reservas.db"),
		MPAccessToken:   os.Getenv("MP_ACCESS_TOKEN"),
		SuccessURL:      os.Getenv("SUCCESS_URL"),
		PendingURL:      os.Getenv("PENDING_URL"),
		FailureURL:      os.Getenv("FAILURE_URL"),
		NotificationURL: os.Getenv("NOTIFICATION_URL"),
		FrontendURL:     getEnv("FRONTEND_URL", "http://localhost:5173"),
		Email: EmailConfig{
			Host:               os.Getenv("EMAIL_HOST"),
			Port:               getEnvInt("EMAIL_PORT", 465),
			Secure:             getEnv("EMAIL_SECURE", "true") == "true",
			User:               os.Getenv("EMAIL_USER"),
			Pass:               os.Getenv("EMAIL_PASS"),
			InsecureSkipVerify: getEnv("EMAIL_TLS_SKIP_VERIFY", "false") == "true",
		},
	}

	// Allowed CORS origins: the configured frontend plus any extras.
	cfg.AllowedOrigins = []string{cfg.FrontendURL}
	if extra := os.Getenv("ALLOWED_ORIGINS"); extra != "" {
		for _, o := range strings.Split(extra, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	if cfg.MPAccessToken == "" {
		slog.Warn("MP_ACCESS_TOKEN environment variable not set. Payment endpoints will fail until it is configured.")
	}
	if cfg.Email.Host == "" || cfg.Email.User == "" {
		slog.Warn("EMAIL_HOST/EMAIL_USER not fully set. Email endpoints will fail until the relay is configured.")
	}

	// Make sure port is valid
	if _, err := strconv.Atoi(cfg.Port); err != nil {
		slog.Error("Invalid PORT environment variable. Falling back to default.", "PORT", os.Getenv("PORT"))
		cfg.Port = "3000"
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("Invalid integer environment variable. Using default.", "key", key, "value", value)
		return defaultValue
	}
	return n
}
