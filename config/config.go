package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	AWS      AWSConfig
	Calendar CalendarConfig
	Webhook  WebhookConfig
	Snapshot SnapshotConfig
	Report   ReportConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Driver   string // "postgres" or "memory"
	URL      string // if set, used as-is
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
	Migrate  bool
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds JWT signing and password reset settings.
type JWTConfig struct {
	Secret      string
	ExpireHours int
	ResetTTL    time.Duration
}

// AWSConfig holds AWS credentials and the flyer bucket.
type AWSConfig struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	FlyersBucket         string
	PresignExpireMinutes int
}

// CalendarConfig controls the public agenda feed.
type CalendarConfig struct {
	Name     string
	TimeZone string
	PastDays int
}

// WebhookConfig points at the automation workflow that delivers notifications.
type WebhookConfig struct {
	URL     string
	Secret  string
	Timeout time.Duration
}

// SnapshotConfig controls the periodic snapshot refresh. An empty schedule disables it.
type SnapshotConfig struct {
	RefreshSchedule string
}

// ReportConfig controls the paginated activity report.
type ReportConfig struct {
	PageCapacity int
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()      // .env
	_ = godotenv.Load("env") // env (no leading dot)

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 30),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173"),
		},
		Database: DatabaseConfig{
			Driver:   strings.ToLower(getEnv("STORE_DRIVER", "postgres")),
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "ciecnow"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 10),
			Migrate:  getEnvBool("DB_MIGRATE", true),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "change-me-in-production"),
			ExpireHours: getEnvInt("JWT_EXPIRE_HOURS", 24),
			ResetTTL:    time.Duration(getEnvInt("PASSWORD_RESET_TTL_MIN", 60)) * time.Minute,
		},
		AWS: AWSConfig{
			Region:               getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:          getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey:      getEnv("AWS_SECRET_ACCESS_KEY", ""),
			FlyersBucket:         getEnv("AWS_S3_FLYERS_BUCKET", ""),
			PresignExpireMinutes: getEnvInt("AWS_PRESIGN_EXPIRE_MINUTES", 15),
		},
		Calendar: CalendarConfig{
			Name:     getEnv("CALENDAR_NAME", "Agenda CIEC"),
			TimeZone: getEnv("CALENDAR_TZ", "America/Caracas"),
			PastDays: getEnvInt("CALENDAR_PAST_DAYS", 90),
		},
		Webhook: WebhookConfig{
			URL:     getEnv("AUTOMATION_WEBHOOK_URL", ""),
			Secret:  getEnv("AUTOMATION_WEBHOOK_SECRET", ""),
			Timeout: time.Duration(getEnvInt("AUTOMATION_TIMEOUT_SEC", 15)) * time.Second,
		},
		Snapshot: SnapshotConfig{
			RefreshSchedule: getEnv("SNAPSHOT_REFRESH_SCHEDULE", "@every 5m"),
		},
		Report: ReportConfig{
			PageCapacity: getEnvInt("REPORT_PAGE_CAPACITY", 12),
		},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("STORE_DRIVER must be postgres or memory, got %q", c.Database.Driver)
	}
	if _, err := time.LoadLocation(c.Calendar.TimeZone); err != nil {
		return fmt.Errorf("CALENDAR_TZ: %w", err)
	}
	if c.Report.PageCapacity < 1 {
		return fmt.Errorf("REPORT_PAGE_CAPACITY must be positive")
	}
	return nil
}

// Location returns the calendar time zone. Load has already validated it.
func (c CalendarConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
