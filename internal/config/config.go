package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/mamadbah2/salesboard/internal/calendar"
)

// Config represents the full application configuration surface.
type Config struct {
	Server      ServerConfig
	Backend     BackendConfig
	Cache       CacheConfig
	Redis       RedisConfig
	Preferences PreferencesConfig
	Calendar    CalendarConfig
	Reporting   ReportingConfig
	Sheets      SheetsConfig
	MongoDB     MongoDBConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port     string
	Env      string
	LogLevel string
}

// Development reports whether the app runs in development mode.
func (s ServerConfig) Development() bool {
	return s.Env == "development"
}

// BackendConfig points at the inventory REST backend.
type BackendConfig struct {
	BaseURL     string
	Timeout     time.Duration
	ReadRetries int
}

// CacheConfig selects the read cache.
type CacheConfig struct {
	Type string // memory or redis
	TTL  time.Duration
}

// RedisConfig is shared by the redis cache and the redis preference store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// PreferencesConfig selects where the view state is kept.
type PreferencesConfig struct {
	Store string // memory, mongo or redis
}

// CalendarConfig holds calendar conventions.
type CalendarConfig struct {
	WeekStart time.Weekday
	Timezone  string
}

// Location loads the configured timezone.
func (c CalendarConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// ReportingConfig holds export and scheduler settings.
type ReportingConfig struct {
	DiscountRate decimal.Decimal
	CronSchedule string
	OutputDir    string
}

// SheetsConfig contains configuration required to interact with Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// Enabled reports whether the sheets publisher is configured.
func (s SheetsConfig) Enabled() bool {
	return s.CredentialsPath != "" && s.SpreadsheetID != ""
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// Enabled reports whether a MongoDB connection is configured.
func (m MongoDBConfig) Enabled() bool {
	return m.URI != ""
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are fine when configuration comes from the
		// environment directly.
		_ = godotenv.Load()
	}

	timeout, err := time.ParseDuration(getenvWithDefault("BACKEND_TIMEOUT", "15s"))
	if err != nil {
		return nil, fmt.Errorf("BACKEND_TIMEOUT: %w", err)
	}
	retries, err := strconv.Atoi(getenvWithDefault("BACKEND_READ_RETRIES", "1"))
	if err != nil {
		return nil, fmt.Errorf("BACKEND_READ_RETRIES: %w", err)
	}
	ttl, err := time.ParseDuration(getenvWithDefault("CACHE_TTL", "60s"))
	if err != nil {
		return nil, fmt.Errorf("CACHE_TTL: %w", err)
	}
	redisDB, err := strconv.Atoi(getenvWithDefault("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("REDIS_DB: %w", err)
	}
	weekStart, err := calendar.ParseWeekday(getenvWithDefault("WEEK_START", "sunday"))
	if err != nil {
		return nil, fmt.Errorf("WEEK_START: %w", err)
	}
	rate, err := decimal.NewFromString(getenvWithDefault("DISCOUNT_RATE", "0.6"))
	if err != nil {
		return nil, fmt.Errorf("DISCOUNT_RATE: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:     getenvWithDefault("APP_PORT", "8080"),
			Env:      getenvWithDefault("APP_ENV", "production"),
			LogLevel: getenvWithDefault("LOG_LEVEL", "info"),
		},
		Backend: BackendConfig{
			BaseURL:     strings.TrimSuffix(os.Getenv("BACKEND_BASE_URL"), "/"),
			Timeout:     timeout,
			ReadRetries: retries,
		},
		Cache: CacheConfig{
			Type: strings.ToLower(getenvWithDefault("CACHE_TYPE", "memory")),
			TTL:  ttl,
		},
		Redis: RedisConfig{
			Addr:     getenvWithDefault("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Preferences: PreferencesConfig{
			Store: strings.ToLower(getenvWithDefault("PREFERENCES_STORE", "memory")),
		},
		Calendar: CalendarConfig{
			WeekStart: weekStart,
			Timezone:  getenvWithDefault("TIMEZONE", "UTC"),
		},
		Reporting: ReportingConfig{
			DiscountRate: rate,
			CronSchedule: getenvWithDefault("REPORT_CRON_SCHEDULE", "0 6 1 * *"),
			OutputDir:    os.Getenv("REPORT_OUTPUT_DIR"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "salesboard"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if c.Backend.BaseURL == "" {
		return errors.New("BACKEND_BASE_URL must be provided")
	}
	if c.Backend.Timeout <= 0 {
		return errors.New("BACKEND_TIMEOUT must be positive")
	}
	if c.Backend.ReadRetries < 0 {
		return errors.New("BACKEND_READ_RETRIES must not be negative")
	}

	switch c.Cache.Type {
	case "memory", "redis":
	default:
		return fmt.Errorf("CACHE_TYPE %q is not supported", c.Cache.Type)
	}
	if c.Cache.TTL <= 0 {
		return errors.New("CACHE_TTL must be positive")
	}

	switch c.Preferences.Store {
	case "memory", "redis":
	case "mongo":
		if !c.MongoDB.Enabled() {
			return errors.New("MONGODB_URI must be provided when PREFERENCES_STORE=mongo")
		}
	default:
		return fmt.Errorf("PREFERENCES_STORE %q is not supported", c.Preferences.Store)
	}

	if (c.Cache.Type == "redis" || c.Preferences.Store == "redis") && c.Redis.Addr == "" {
		return errors.New("REDIS_ADDR must be provided")
	}

	if _, err := c.Calendar.Location(); err != nil {
		return fmt.Errorf("TIMEZONE: %w", err)
	}

	if !c.Reporting.DiscountRate.IsPositive() || c.Reporting.DiscountRate.GreaterThan(decimal.NewFromInt(1)) {
		return errors.New("DISCOUNT_RATE must be in (0, 1]")
	}
	if c.Reporting.CronSchedule == "" {
		return errors.New("REPORT_CRON_SCHEDULE must be provided")
	}

	if (c.Sheets.CredentialsPath == "") != (c.Sheets.SpreadsheetID == "") {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_DATABASE_ID must be set together")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
