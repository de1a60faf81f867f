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

const defaultJWTSecret = "change-me"

type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins []string
	LogLevel       string
	MetricsEnabled bool

	DatabaseURL   string
	DBHost        string
	DBUser        string
	DBPass        string
	DBName        string
	DBPort        string
	DBSSLMode     string
	DBForeignKeys bool

	RedisURL string

	MeiliSearchHost string
	MeiliMasterKey  string

	CloudinaryURL          string
	CloudinaryUploadFolder string

	JWTSecret          string
	SessionCookieName  string
	SessionTTL         time.Duration
	SessionRememberTTL time.Duration
	PasswordResetTTL   time.Duration
	BcryptCost         int

	LockoutMaxAttempts int
	LockoutDuration    time.Duration

	RateLimitPost    time.Duration
	RateLimitComment time.Duration

	LegacyUsersTable       string
	LegacyUsersBackupTable string

	SeedAdminEmail    string
	SeedAdminPassword string

	// Empty schedules disable the job.
	SearchReindexSchedule       string
	NotificationCleanupSchedule string
	NotificationRetention       time.Duration
	JobTimeout                  time.Duration
}

func (c *Config) IsProduction() bool { return c.AppEnv == "production" }

func (c *Config) IsDevelopment() bool { return c.AppEnv == "development" }

// DSN returns DATABASE_URL when set, otherwise builds a key/value DSN.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.DBHost, c.DBUser, c.DBPass, c.DBName, c.DBPort, c.DBSSLMode,
	)
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		LogLevel:       getEnv("LOG_LEVEL", "info"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPass:      os.Getenv("DB_PASS"),
		DBName:      getEnv("DB_NAME", "blog"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBSSLMode:   getEnv("DB_SSLMODE", "disable"),

		RedisURL: os.Getenv("REDIS_URL"),

		MeiliSearchHost: os.Getenv("MEILISEARCH_HOST"),
		MeiliMasterKey:  os.Getenv("MEILI_MASTER_KEY"),

		CloudinaryURL:          os.Getenv("CLOUDINARY_URL"),
		CloudinaryUploadFolder: getEnv("CLOUDINARY_UPLOAD_FOLDER", "blog"),

		JWTSecret:         getEnv("JWT_SECRET", defaultJWTSecret),
		SessionCookieName: getEnv("SESSION_COOKIE_NAME", "blog_session"),

		LegacyUsersTable:       getEnv("LEGACY_USERS_TABLE", "legacy_users"),
		LegacyUsersBackupTable: getEnv("LEGACY_USERS_BACKUP_TABLE", "legacy_users_backup"),

		SeedAdminEmail:    getEnv("SEED_ADMIN_EMAIL", "admin@blog.com"),
		SeedAdminPassword: getEnv("SEED_ADMIN_PASSWORD", "Admin123!"),

		SearchReindexSchedule:       getEnv("SEARCH_REINDEX_SCHEDULE", "0 3 * * *"),
		NotificationCleanupSchedule: getEnv("NOTIFICATION_CLEANUP_SCHEDULE", "30 * * * *"),
	}

	var err error
	durations := []struct {
		key      string
		fallback string
		dst      *time.Duration
	}{
		{"SESSION_TTL", "12h", &cfg.SessionTTL},
		{"SESSION_REMEMBER_TTL", "336h", &cfg.SessionRememberTTL},
		{"PASSWORD_RESET_TTL", "24h", &cfg.PasswordResetTTL},
		{"LOCKOUT_DURATION", "5m", &cfg.LockoutDuration},
		{"RATE_LIMIT_POST", "15s", &cfg.RateLimitPost},
		{"RATE_LIMIT_COMMENT", "5s", &cfg.RateLimitComment},
		{"NOTIFICATION_RETENTION", "720h", &cfg.NotificationRetention},
		{"JOB_TIMEOUT", "10m", &cfg.JobTimeout},
	}
	for _, d := range durations {
		*d.dst, err = time.ParseDuration(getEnv(d.key, d.fallback))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", d.key, err)
		}
	}

	if cfg.DBForeignKeys, err = strconv.ParseBool(getEnv("DB_FOREIGN_KEYS", "true")); err != nil {
		return nil, fmt.Errorf("invalid DB_FOREIGN_KEYS: %w", err)
	}
	if cfg.MetricsEnabled, err = strconv.ParseBool(getEnv("METRICS_ENABLED", "true")); err != nil {
		return nil, fmt.Errorf("invalid METRICS_ENABLED: %w", err)
	}
	if cfg.LockoutMaxAttempts, err = strconv.Atoi(getEnv("LOCKOUT_MAX_ATTEMPTS", "5")); err != nil {
		return nil, fmt.Errorf("invalid LOCKOUT_MAX_ATTEMPTS: %w", err)
	}
	if cfg.BcryptCost, err = strconv.Atoi(getEnv("BCRYPT_COST", "10")); err != nil {
		return nil, fmt.Errorf("invalid BCRYPT_COST: %w", err)
	}

	if cfg.IsProduction() && cfg.JWTSecret == defaultJWTSecret {
		return nil, errors.New("JWT_SECRET must be set in production")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
