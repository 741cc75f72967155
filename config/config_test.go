package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	t.Setenv("ADMIN_PASSWORD", "pw")
	t.Setenv("APP_ENV", "")
	t.Setenv("GOOGLE_APPS_SCRIPT_URL", "")
	t.Setenv("HOST", "")
	t.Setenv("PORT", "")

	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:3000", cfg.Addr)
	assert.Equal(t, "http://localhost:3000", cfg.Url())
	assert.Equal(t, "pw", cfg.AdminPassword)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 10*time.Second, cfg.SinkTimeout)
	assert.Equal(t, "", cfg.SinkURL)
	assert.True(t, cfg.Dev)
}

func TestParseEnvironment(t *testing.T) {
	t.Setenv("ADMIN_PASSWORD", "pw")
	t.Setenv("APP_ENV", "production")
	t.Setenv("GOOGLE_APPS_SCRIPT_URL", "https://script.example/exec")
	t.Setenv("HOST", "")
	t.Setenv("PORT", "8080")

	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.False(t, cfg.Dev)
	assert.Equal(t, "https://script.example/exec", cfg.SinkURL)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr)
}

func TestParseFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("ADMIN_PASSWORD", "from-env")
	t.Setenv("APP_ENV", "production")

	cfg, err := Parse([]string{
		"-host", "127.0.0.1",
		"-port", "9000",
		"-admin-password", "from-flag",
		"-dev",
		"-token-ttl", "1h",
		"-questions", "catalog.yaml",
	})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.Equal(t, "from-flag", cfg.AdminPassword)
	assert.True(t, cfg.Dev)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.Equal(t, "catalog.yaml", cfg.QuestionsFile)
}

func TestParseRequiresPassword(t *testing.T) {
	t.Setenv("ADMIN_PASSWORD", "")

	_, err := Parse(nil)
	assert.EqualError(t, err, "missing parameter -admin-password")

	_, err = Parse([]string{"-no-such-flag"})
	assert.Error(t, err)
}
