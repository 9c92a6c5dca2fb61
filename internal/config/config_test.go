package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/assistant")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("TWILIO_ACCOUNT_SID", "AC123")
	t.Setenv("TWILIO_AUTH_TOKEN", "token")
	t.Setenv("TWILIO_WHATSAPP_FROM", "+14155238886")
	t.Setenv("STOREFRONT_BASE_URL", "https://store.example/api")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, 10*time.Minute, cfg.SessionTTL())
	assert.Equal(t, 10, cfg.SessionHistoryLimit)
	assert.Equal(t, 30*time.Minute, cfg.HandoffPause())
	assert.Equal(t, 20*time.Second, cfg.CollaboratorTimeout())
	assert.Equal(t, 90*24*time.Hour, cfg.TurnRetention())
	assert.Equal(t, "gpt-4o-mini", cfg.ChatModel)
	assert.Equal(t, []string{"موظف", "دعم فني", "مساعدة"}, cfg.HandoffTriggers)
}

func TestLoadFailsWithoutRequired(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DATABASE_URL", "x")
	os.Unsetenv("DATABASE_URL")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadCustomTriggers(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("HANDOFF_TRIGGERS", "موظف,إنسان")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"موظف", "إنسان"}, cfg.HandoffTriggers)
}

func TestValidateRejectsNonPositiveKnobs(t *testing.T) {
	setRequiredEnv(t)

	tests := []struct {
		name  string
		mod   func(*Config)
		field string
	}{
		{"zero ttl", func(c *Config) { c.SessionTTLSeconds = 0 }, "SESSION_TTL_SECONDS"},
		{"zero history", func(c *Config) { c.SessionHistoryLimit = 0 }, "SESSION_HISTORY_LIMIT"},
		{"zero pause", func(c *Config) { c.HandoffPauseSeconds = -5 }, "HANDOFF_PAUSE_SECONDS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			require.NoError(t, err)

			tt.mod(cfg)
			err = cfg.Validate(false)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestValidateProductionRequiresStrongOpsToken(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	cfg.OpsAPIToken = "short"
	assert.Error(t, cfg.Validate(true))

	cfg.OpsAPIToken = "change-me"
	assert.Error(t, cfg.Validate(true))

	cfg.OpsAPIToken = "a-sufficiently-long-random-ops-token-1234"
	assert.NoError(t, cfg.Validate(true))
}

func TestValidateDevelopmentSkipsSecretChecks(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	cfg.OpsAPIToken = "dev"
	assert.NoError(t, cfg.Validate(false))
}
