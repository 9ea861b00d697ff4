package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, int32(8080), cfg.HTTP.Port)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, DefaultDatabasePath, cfg.Database.Path)
	assert.Equal(t, AuthModeNone, cfg.Auth.Mode)
	assert.Equal(t, DefaultWeeklyTarget, cfg.App.WeeklyTargetDefault)
	assert.Equal(t, DefaultWarningHour, cfg.App.WarningHour)
	assert.Equal(t, "log", cfg.Mail.Driver)
	assert.Equal(t, time.Second, cfg.Mail.SendDelay)
	assert.Equal(t, "memory", cfg.Cache.Driver)
	assert.Equal(t, "0 18 * * *", cfg.Reminders.Schedule)
	assert.Equal(t, "0 8 * * 1", cfg.Reminders.WeeklySummarySchedule)
	assert.Empty(t, cfg.CORS.AllowedOrigins)
}

func TestNewConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("DATABASE_DRIVER", "Postgres")
	t.Setenv("WEEKLY_TARGET_DEFAULT", "6")
	t.Setenv("MAIL_SEND_DELAY", "250ms")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("APP_BASE_URL", "https://bible.example/")

	cfg := NewConfig()

	assert.Equal(t, int32(9999), cfg.HTTP.Port)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 6, cfg.App.WeeklyTargetDefault)
	assert.Equal(t, 250*time.Millisecond, cfg.Mail.SendDelay)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "https://bible.example", cfg.App.BaseURL)
}

func TestLoadDotEnv(t *testing.T) {
	t.Run("missing file is ignored", func(t *testing.T) {
		err := LoadDotEnv(filepath.Join(t.TempDir(), "absent.env"))
		assert.NoError(t, err)
	})

	t.Run("values become visible to viper", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "test.env")
		require.NoError(t, os.WriteFile(path, []byte("WARNING_HOUR=20\n"), 0o600))
		t.Cleanup(func() { os.Unsetenv("WARNING_HOUR") })

		require.NoError(t, LoadDotEnv(path))

		cfg := NewConfig()
		assert.Equal(t, 20, cfg.App.WarningHour)
	})
}
