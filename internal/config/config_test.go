package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCSRFKey = "0123456789abcdef0123456789abcdef"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CSRF_KEY", testCSRFKey)
	t.Setenv("API_URL", "http://api.local:5000/")
	t.Setenv("ENV", "")
	t.Setenv("DB_HOST", "")
	t.Setenv("SESSION_BACKEND", "")
	t.Setenv("COOKIE_SECURE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "http://api.local:5000", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, SessionBackendRedis, cfg.Session.Backend)
	assert.Equal(t, 24*time.Hour, cfg.Session.MaxTTL)
	assert.False(t, cfg.Session.CookieSecure)
	assert.False(t, cfg.DB.Enabled())
	assert.Equal(t, time.Minute, cfg.Worker.SessionSweepInterval)
}

func TestLoadDevelopmentAllowsEmptyCSRFKey(t *testing.T) {
	t.Setenv("CSRF_KEY", "")
	t.Setenv("ENV", "development")
	t.Setenv("DB_HOST", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.Session.CSRFKey)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadProductionSecureCookieByDefault(t *testing.T) {
	t.Setenv("CSRF_KEY", testCSRFKey)
	t.Setenv("ENV", "production")
	t.Setenv("COOKIE_SECURE", "")
	t.Setenv("DB_HOST", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Session.CookieSecure)
}

func TestLoadRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "short csrf key", env: map[string]string{"CSRF_KEY": "short"}},
		{name: "missing csrf key in production", env: map[string]string{"CSRF_KEY": "", "ENV": "production"}},
		{name: "unknown backend", env: map[string]string{"CSRF_KEY": testCSRFKey, "SESSION_BACKEND": "memcached"}},
		{name: "bad timeout", env: map[string]string{"CSRF_KEY": testCSRFKey, "API_TIMEOUT": "soon"}},
		{name: "negative ttl", env: map[string]string{"CSRF_KEY": testCSRFKey, "SESSION_MAX_TTL": "-1h"}},
		{name: "half configured db", env: map[string]string{"CSRF_KEY": testCSRFKey, "DB_HOST": "db", "DB_USER": "", "DB_NAME": ""}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("SESSION_BACKEND", "")
			t.Setenv("API_TIMEOUT", "")
			t.Setenv("SESSION_MAX_TTL", "")
			t.Setenv("DB_HOST", "")
			t.Setenv("ENV", "")
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
