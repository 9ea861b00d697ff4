package entrypoint

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biblehabit/tracker/internal/cache"
	"github.com/biblehabit/tracker/internal/config"
	"github.com/biblehabit/tracker/internal/logger"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.NewConfig()
	cfg.Database.Driver = config.DriverSQLite
	cfg.Database.Path = filepath.Join(t.TempDir(), "tracker.db")
	cfg.Database.LogLevel = "silent"
	cfg.Cache.Driver = cache.DriverMemory
	cfg.Mail.Driver = "log"
	return cfg
}

func TestCSRFSecret(t *testing.T) {
	hexSecret := strings.Repeat("ab", 32)

	tests := []struct {
		name       string
		configured string
		wantLen    int
		wantErr    bool
	}{
		{"hex", hexSecret, 32, false},
		{"raw string", strings.Repeat("x", 40), 32, false},
		{"generated", "", 32, false},
		{"too short", "short", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := csrfSecret(tt.configured)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, tt.wantLen)
		})
	}
}

func TestNewApp(t *testing.T) {
	cfg := testConfig(t)

	app, err := NewApp(cfg, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	require.NoError(t, app.DB.Ping())
	assert.Equal(t, 66, len(app.Books.ListBooks()))

	user, err := app.Auth.EnsureDefaultUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cfg.App.Timezone, user.Timezone)

	t.Run("no signing secret", func(t *testing.T) {
		signer := newSigner(cfg, logger.Nop())
		assert.Nil(t, signer)
	})

	t.Run("session secret fallback", func(t *testing.T) {
		withSecret := *cfg
		withSecret.Auth.SessionSecret = strings.Repeat("s", 32)
		assert.NotNil(t, newSigner(&withSecret, logger.Nop()))
	})
}

func TestNewSessionManager(t *testing.T) {
	app, err := NewApp(testConfig(t), logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	sm, err := newSessionManager(app)
	require.NoError(t, err)
	assert.NotNil(t, sm)
}
