package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 12*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 14*24*time.Hour, cfg.SessionRememberTTL)
	assert.Equal(t, 5*time.Minute, cfg.LockoutDuration)
	assert.Equal(t, 5, cfg.LockoutMaxAttempts)
	assert.True(t, cfg.DBForeignKeys)
	assert.Equal(t, "legacy_users", cfg.LegacyUsersTable)
	assert.Equal(t, "legacy_users_backup", cfg.LegacyUsersBackupTable)
	assert.Contains(t, cfg.DSN(), "host=")
	assert.Equal(t, "0 3 * * *", cfg.SearchReindexSchedule)
	assert.Equal(t, 30*24*time.Hour, cfg.NotificationRetention)
	assert.True(t, cfg.MetricsEnabled)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("DATABASE_URL", "postgres://u:p@db/blog")
	t.Setenv("DB_FOREIGN_KEYS", "false")
	t.Setenv("RATE_LIMIT_POST", "1m")
	t.Setenv("LEGACY_USERS_TABLE", "Users")
	t.Setenv("SEARCH_REINDEX_SCHEDULE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	assert.Equal(t, "postgres://u:p@db/blog", cfg.DSN())
	assert.False(t, cfg.DBForeignKeys)
	assert.Equal(t, time.Minute, cfg.RateLimitPost)
	assert.Equal(t, "Users", cfg.LegacyUsersTable)
	assert.Empty(t, cfg.SearchReindexSchedule)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("SESSION_TTL", "forever")
	_, err := Load()
	assert.ErrorContains(t, err, "SESSION_TTL")
}

func TestLoadRequiresSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", defaultJWTSecret)
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "a-real-secret")
	_, err = Load()
	assert.NoError(t, err)
}
