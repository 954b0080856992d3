// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/notifier and cmd/notifyctl.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// --------------------------------------------------------------------------
// Push providers
// --------------------------------------------------------------------------

const (
	ProviderFCM = "fcm"
	ProviderSNS = "sns"
	ProviderLog = "log"
)

// --------------------------------------------------------------------------
// Config struct, populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Database
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// Admin API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production

	// CORS
	CORSAllowOrigins []string

	// Rate limiting (admin API only)
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Push transport
	PushProvider            string // fcm, sns, log
	FirebaseCredentialsFile string
	AndroidChannelID        string
	AWSRegion               string
	SendBreakerEnabled      bool

	// Lookup cache (plans, achievements)
	RedisURL       string
	LookupCacheTTL time.Duration

	// Schedules
	ScheduleTimezone      string
	DailyReminderSchedule string
	InactivitySchedule    string
	InactivityThreshold   time.Duration
	BatchConcurrency      int

	// Event ingestion
	ListenerEnabled bool
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	dbURL := envOr("DATABASE_URL", "")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL must be set")
	}

	cfg := &Config{
		DatabaseURL:    dbURL,
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 2),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 10),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8080)),
		Environment: envOr("ENVIRONMENT", "development"),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		PushProvider:            strings.ToLower(envOr("PUSH_PROVIDER", ProviderLog)),
		FirebaseCredentialsFile: envOr("FIREBASE_CREDENTIALS_FILE", ""),
		AndroidChannelID:        envOr("ANDROID_CHANNEL_ID", "pushup_channel"),
		AWSRegion:               envOr("AWS_REGION", "us-east-1"),
		SendBreakerEnabled:      envBool("SEND_BREAKER_ENABLED", true),

		RedisURL:       envOr("REDIS_URL", ""),
		LookupCacheTTL: envDuration("LOOKUP_CACHE_TTL", 10*time.Minute),

		ScheduleTimezone:      envOr("SCHEDULE_TIMEZONE", "America/New_York"),
		DailyReminderSchedule: envOr("DAILY_REMINDER_SCHEDULE", "0 9 * * *"),
		InactivitySchedule:    envOr("INACTIVITY_SCHEDULE", "0 18 * * *"),
		InactivityThreshold:   envDuration("INACTIVITY_THRESHOLD", 72*time.Hour),
		BatchConcurrency:      envInt("BATCH_CONCURRENCY", 10),

		ListenerEnabled: envBool("LISTENER_ENABLED", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late, at the first
// schedule tick or the first send.
func (c *Config) Validate() error {
	switch c.PushProvider {
	case ProviderFCM:
		if c.FirebaseCredentialsFile == "" {
			return fmt.Errorf("FIREBASE_CREDENTIALS_FILE is required when PUSH_PROVIDER=fcm")
		}
	case ProviderSNS, ProviderLog:
	default:
		return fmt.Errorf("unknown PUSH_PROVIDER %q (want fcm, sns or log)", c.PushProvider)
	}

	if _, err := time.LoadLocation(c.ScheduleTimezone); err != nil {
		return fmt.Errorf("invalid SCHEDULE_TIMEZONE %q: %w", c.ScheduleTimezone, err)
	}
	for name, spec := range map[string]string{
		"DAILY_REMINDER_SCHEDULE": c.DailyReminderSchedule,
		"INACTIVITY_SCHEDULE":     c.InactivitySchedule,
	} {
		if _, err := cron.ParseStandard(spec); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, spec, err)
		}
	}

	if c.InactivityThreshold <= 0 {
		return fmt.Errorf("INACTIVITY_THRESHOLD must be positive")
	}
	if c.BatchConcurrency < 1 {
		c.BatchConcurrency = 1
	}
	return nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Location returns the schedule timezone. Validate has already checked it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ScheduleTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
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

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
