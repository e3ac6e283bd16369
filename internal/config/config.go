package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
// Every field has a sensible default; DATABASE_URL, WEBHOOK_SIGNING_KEY and
// TRACKER_API_KEY are required.
type Config struct {
	// Server
	HTTPPort        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// Database
	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// Webhook trust boundary
	WebhookSigningKey string
	MaxEventAge       time.Duration

	// Reminder policy
	TargetState     string
	TimeToRemind    time.Duration
	PollInterval    time.Duration
	ReminderWorkers int

	// Outbound tracker API
	TrackerAPIURL    string
	TrackerAPIKey    string
	NotifierTimeout  time.Duration
	ReminderTemplate string

	// Rate limiting: maximum outbound tracker calls per second
	RateLimit int
}

func Load() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	signingKey := os.Getenv("WEBHOOK_SIGNING_KEY")
	if signingKey == "" {
		return nil, fmt.Errorf("WEBHOOK_SIGNING_KEY is required")
	}
	apiKey := os.Getenv("TRACKER_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("TRACKER_API_KEY is required")
	}

	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		ReadTimeout:     getDuration("READ_TIMEOUT", 5*time.Second),
		WriteTimeout:    getDuration("WRITE_TIMEOUT", 10*time.Second),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		DatabaseURL: dbURL,
		DBMaxConns:  int32(getInt("DB_MAX_CONNS", 25)),
		DBMinConns:  int32(getInt("DB_MIN_CONNS", 5)),

		WebhookSigningKey: signingKey,
		MaxEventAge:       getDuration("MAX_EVENT_AGE", 60*time.Second),

		TargetState:     getEnv("TARGET_STATE", "In Progress"),
		TimeToRemind:    getDuration("TIME_TO_REMIND", 48*time.Hour),
		PollInterval:    getDuration("POLL_INTERVAL", 5*time.Second),
		ReminderWorkers: getInt("REMINDER_WORKERS", 1),

		TrackerAPIURL:   getEnv("TRACKER_API_URL", "https://api.linear.app/graphql"),
		TrackerAPIKey:   apiKey,
		NotifierTimeout: getDuration("NOTIFIER_TIMEOUT", 10*time.Second),
		ReminderTemplate: getEnv("REMINDER_TEMPLATE",
			"Friendly reminder: {{.Identifier}} ({{.Title}}) has been in progress for {{.Age}}."),

		RateLimit: getInt("RATE_LIMIT", 5),
	}, nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
