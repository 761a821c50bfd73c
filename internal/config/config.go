package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Session backends.
const (
	SessionBackendRedis  = "redis"
	SessionBackendMemory = "memory"
)

// Config holds all application configuration loaded from environment variables.
// It is the single source of truth for runtime parameters.
type Config struct {
	Port string
	Env  string

	API     APIConfig
	Session SessionConfig
	Redis   RedisConfig
	DB      DatabaseConfig
	Export  ExportConfig
	Mail    MailConfig
	Worker  WorkerConfig
}

// APIConfig points at the external donation REST API.
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// SessionConfig controls the session store and its cookie.
type SessionConfig struct {
	Backend      string
	CookieName   string
	CookieSecure bool
	MaxTTL       time.Duration
	CSRFKey      []byte
}

// DatabaseConfig contains PostgreSQL connection parameters for the admin
// audit log. An empty Host disables auditing.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// Enabled reports whether an audit database is configured.
func (c DatabaseConfig) Enabled() bool { return c.Host != "" }

// RedisConfig contains Redis connection parameters.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// ExportConfig contains the S3 location CSV exports are archived to. An
// empty Bucket disables archiving.
type ExportConfig struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// MailConfig contains the Resend settings of donation receipts. An empty
// APIKey logs receipts instead of sending them.
type MailConfig struct {
	ResendAPIKey string
	From         string
}

// WorkerConfig contains interval configuration for background workers.
type WorkerConfig struct {
	SessionSweepInterval time.Duration
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it will be loaded first. It returns a populated
// Config or an error with a human-friendly message.
func Load() (*Config, error) {
	// Load .env if present; ignore error if file is missing so that production
	// environments relying solely on real environment variables keep working.
	_ = godotenv.Load()

	cfg := &Config{}

	// Server
	cfg.Port = getEnv("PORT", "3000")
	cfg.Env = getEnv("ENV", "development")

	var err error

	// Donation API
	cfg.API.BaseURL = strings.TrimSuffix(getEnv("API_URL", "http://localhost:5000"), "/")
	if cfg.API.Timeout, err = parseDurationEnv("API_TIMEOUT", "30s"); err != nil {
		return nil, fmt.Errorf("invalid API_TIMEOUT: %w", err)
	}

	// Session
	cfg.Session = SessionConfig{
		Backend:      strings.ToLower(getEnv("SESSION_BACKEND", SessionBackendRedis)),
		CookieName:   getEnv("SESSION_COOKIE", "gtd_session"),
		CookieSecure: getEnvBool("COOKIE_SECURE", cfg.Env == "production"),
		CSRFKey:      []byte(getEnv("CSRF_KEY", "")),
	}
	if cfg.Session.MaxTTL, err = parseDurationEnv("SESSION_MAX_TTL", "24h"); err != nil {
		return nil, fmt.Errorf("invalid SESSION_MAX_TTL: %w", err)
	}

	// Redis
	cfg.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", "redis"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}

	// Database (audit log)
	cfg.DB = DatabaseConfig{
		Host:     getEnv("DB_HOST", ""),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", ""),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", ""),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	// Export archive (S3)
	cfg.Export = ExportConfig{
		Bucket:          getEnv("EXPORT_BUCKET", ""),
		Region:          getEnv("EXPORT_REGION", "ap-south-1"),
		Endpoint:        getEnv("EXPORT_ENDPOINT", ""),
		AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
	}

	// Mail
	cfg.Mail = MailConfig{
		ResendAPIKey: getEnv("RESEND_API_KEY", ""),
		From:         getEnv("MAIL_FROM", "GTD Donate <donate@gtd.co.id>"),
	}

	// Workers (durations)
	if cfg.Worker.SessionSweepInterval, err = parseDurationEnv("SESSION_SWEEP_INTERVAL", "1m"); err != nil {
		return nil, fmt.Errorf("invalid SESSION_SWEEP_INTERVAL: %w", err)
	}

	if cfg.Session.Backend != SessionBackendRedis && cfg.Session.Backend != SessionBackendMemory {
		return nil, fmt.Errorf("SESSION_BACKEND must be %q or %q", SessionBackendRedis, SessionBackendMemory)
	}

	// gorilla/csrf needs a 32 byte authentication key. Development may leave
	// it empty and get a random one per process.
	switch {
	case len(cfg.Session.CSRFKey) == 0 && cfg.IsDevelopment():
	case len(cfg.Session.CSRFKey) != 32:
		return nil, errors.New("CSRF_KEY must be set to exactly 32 bytes")
	}

	// Audit DB is optional, but a half-configured one is a mistake.
	if cfg.DB.Enabled() && (cfg.DB.User == "" || cfg.DB.Name == "") {
		return nil, errors.New("database configuration incomplete: ensure DB_HOST, DB_USER, and DB_NAME are set")
	}

	return cfg, nil
}

// IsDevelopment reports whether the portal runs in development mode.
func (c *Config) IsDevelopment() bool { return c.Env == "development" }

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the value of an environment variable as an integer or a default if empty/invalid.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// getEnvBool returns the value of an environment variable as a bool or a default if empty/invalid.
func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// parseDurationEnv reads an environment variable and parses it as time.Duration.
// If the variable is empty, it falls back to the provided default value.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}
