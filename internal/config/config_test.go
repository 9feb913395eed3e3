package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "http://backend.local/")
	t.Setenv("APP_PORT", "")
	t.Setenv("CACHE_TYPE", "")
	t.Setenv("PREFERENCES_STORE", "")
	t.Setenv("WEEK_START", "")
	t.Setenv("TIMEZONE", "")
	t.Setenv("DISCOUNT_RATE", "")
	t.Setenv("MONGODB_URI", "")
	t.Setenv("GOOGLE_SHEETS_CREDENTIALS_PATH", "")
	t.Setenv("GOOGLE_SHEET_DATABASE_ID", "")

	cfg, err := Load("testdata/missing.env")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "http://backend.local", cfg.Backend.BaseURL)
	assert.Equal(t, 1, cfg.Backend.ReadRetries)
	assert.Equal(t, 60*time.Second, cfg.Cache.TTL)
	assert.Equal(t, "memory", cfg.Cache.Type)
	assert.Equal(t, time.Sunday, cfg.Calendar.WeekStart)
	assert.True(t, decimal.RequireFromString("0.6").Equal(cfg.Reporting.DiscountRate))
	assert.Equal(t, "0 6 1 * *", cfg.Reporting.CronSchedule)
	assert.False(t, cfg.MongoDB.Enabled())
	assert.False(t, cfg.Sheets.Enabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "http://backend.local")
	t.Setenv("WEEK_START", "monday")
	t.Setenv("CACHE_TTL", "5s")
	t.Setenv("DISCOUNT_RATE", "0.75")
	t.Setenv("APP_ENV", "development")

	cfg, err := Load("testdata/missing.env")
	require.NoError(t, err)
	assert.Equal(t, time.Monday, cfg.Calendar.WeekStart)
	assert.Equal(t, 5*time.Second, cfg.Cache.TTL)
	assert.True(t, decimal.RequireFromString("0.75").Equal(cfg.Reporting.DiscountRate))
	assert.True(t, cfg.Server.Development())
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]map[string]string{
		"missing backend": {"BACKEND_BASE_URL": ""},
		"bad week start":  {"WEEK_START": "someday"},
		"bad cache type":  {"CACHE_TYPE": "memcached"},
		"bad rate":        {"DISCOUNT_RATE": "1.5"},
		"mongo prefs":     {"PREFERENCES_STORE": "mongo", "MONGODB_URI": ""},
		"half sheets":     {"GOOGLE_SHEETS_CREDENTIALS_PATH": "creds.json", "GOOGLE_SHEET_DATABASE_ID": ""},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("BACKEND_BASE_URL", "http://backend.local")
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load("testdata/missing.env")
			assert.Error(t, err)
		})
	}
}
