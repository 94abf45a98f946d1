package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 10*time.Second, cfg.Notifications.Timeout)
	assert.Empty(t, cfg.Notifications.ThreadWebhookURL)
	assert.Equal(t, "anthropic", cfg.Assistant.Provider)
	assert.Contains(t, cfg.CORS.ExtraHeaders, "HX-Request")
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("NOTIFY_THREAD_WEBHOOK_URL", " https://hooks.example.com/new-question ")
	t.Setenv("NOTIFY_TIMEOUT", "3s")
	t.Setenv("ASSISTANT_PROVIDER", "OpenAI")
	t.Setenv("REPORTS_SIGNED_URL_TTL", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://hooks.example.com/new-question", cfg.Notifications.ThreadWebhookURL)
	assert.Equal(t, 3*time.Second, cfg.Notifications.Timeout)
	assert.Equal(t, "openai", cfg.Assistant.Provider)
	assert.Equal(t, time.Hour, cfg.Reports.SignedURLTTL)
}

func TestSplitAndTrim(t *testing.T) {
	assert.Nil(t, splitAndTrim(""))
	assert.Equal(t, []string{"a", "b"}, splitAndTrim(" a, ,b "))
}
