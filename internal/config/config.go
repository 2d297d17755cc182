package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration loaded from environment variables.
// Most fields have sensible defaults; DATABASE_URL, JWT_SECRET and
// ADMIN_API_KEY are required.
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

	// Probe workers (one pool is shared across all check kinds)
	ProbeWorkers int

	// Rate limiting: maximum probes per second per kind
	ProbeRate int

	// Alert webhook delivery
	AlertTimeout time.Duration

	// Background worker cadence
	SchedulerInterval time.Duration
	SweepInterval     time.Duration
	ResultRetention   time.Duration

	// Auth
	JWTSecret    string
	AdminAPIKey  string
	AuthTokenTTL time.Duration
}

func Load() (*Config, error) {
	// Local development reads a .env file; in production the variables
	// come from the environment and the file is simply absent.
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	adminKey := os.Getenv("ADMIN_API_KEY")
	if adminKey == "" {
		return nil, fmt.Errorf("ADMIN_API_KEY is required")
	}

	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		ReadTimeout:     getDuration("READ_TIMEOUT", 5*time.Second),
		WriteTimeout:    getDuration("WRITE_TIMEOUT", 10*time.Second),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		DatabaseURL: dbURL,
		DBMaxConns:  int32(getInt("DB_MAX_CONNS", 25)),
		DBMinConns:  int32(getInt("DB_MIN_CONNS", 5)),

		ProbeWorkers: getInt("PROBE_WORKERS", 10),

		ProbeRate: getInt("PROBE_RATE_PER_KIND", 50),

		AlertTimeout: getDuration("ALERT_TIMEOUT", 10*time.Second),

		SchedulerInterval: getDuration("SCHEDULER_INTERVAL", 5*time.Second),
		SweepInterval:     getDuration("SWEEP_INTERVAL", time.Hour),
		ResultRetention:   getDuration("RESULT_RETENTION", 168*time.Hour),

		JWTSecret:    jwtSecret,
		AdminAPIKey:  adminKey,
		AuthTokenTTL: getDuration("AUTH_TOKEN_TTL", 24*time.Hour),
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
