// Package config loads the agent configuration from the environment.
// Every trigger window and cap gate limit flows from here, so the
// trigger evaluator and the gate evaluator share one source of truth.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/example/solrelay/internal/core/gate"
	"github.com/example/solrelay/internal/core/trigger"
	"github.com/example/solrelay/internal/models"
)

// Config is the full agent configuration.
type Config struct {
	// Loop timing
	PollInterval time.Duration

	// Cap gates
	MaxRemindersPerDay   int
	MaxRemindersPerHour  int
	MaxReclaimsPerMinute int

	// Reclaim (disabled by default for safety)
	ReclaimEnabled bool

	// Self-healing
	StaleWindow time.Duration

	// Mode
	DryRun bool

	// Batch sizes
	MissionBatch int
	EmailBatch   int

	// Retry cap shared by missions and queued emails
	MaxAttempts int

	// Trigger windows
	Thresholds trigger.Thresholds

	// Email delivery
	FromEmail   string
	FrontendURL string

	// Health surface
	HealthPort int

	// Leadership lease kept in agent state
	LeaseTTL time.Duration
}

// Load reads configuration from the environment, after loading .env if
// present. Missing variables fall back to production defaults.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		PollInterval:         durationEnv("AGENT_POLL_INTERVAL_MS", 30*time.Second),
		MaxRemindersPerDay:   intEnv("MAX_REMINDERS_PER_DAY", 100),
		MaxRemindersPerHour:  intEnv("MAX_REMINDERS_PER_HOUR", 30),
		MaxReclaimsPerMinute: intEnv("MAX_RECLAIMS_PER_MINUTE", 5),
		ReclaimEnabled:       boolEnv("RECLAIM_ENABLED", false),
		StaleWindow:          time.Duration(intEnv("STALE_MINUTES", 30)) * time.Minute,
		DryRun:               boolEnv("DRY_RUN", false),
		MissionBatch:         intEnv("MISSION_BATCH", 10),
		EmailBatch:           intEnv("EMAIL_BATCH", 10),
		MaxAttempts:          3,
		Thresholds:           trigger.DefaultThresholds(),
		FromEmail:            getenv("FROM_EMAIL", "PayInbox <noreply@payinbox.xyz>"),
		FrontendURL:          getenv("FRONTEND_URL", "http://localhost:3000"),
		HealthPort:           intEnv("AGENT_HEALTH_PORT", 3002),
		LeaseTTL:             durationEnv("LEASE_TTL_MS", 90*time.Second),
	}
}

// GateLimits maps the configured caps into the pure gate package.
func (c *Config) GateLimits() gate.Limits {
	return gate.Limits{
		MaxRemindersPerDay:   c.MaxRemindersPerDay,
		MaxRemindersPerHour:  c.MaxRemindersPerHour,
		MaxReclaimsPerMinute: c.MaxReclaimsPerMinute,
		MaxRemindersPerXfer:  models.MaxRemindersPerTransfer,
		ReclaimEnabled:       c.ReclaimEnabled,
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func boolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v == "true"
}

// durationEnv reads a millisecond count.
func durationEnv(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	ms, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}
