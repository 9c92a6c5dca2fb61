package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

var knownWeakSecrets = []string{
	"change-me", "dev-secret-change-me", "secret", "admin", "password",
}

type Config struct {
	Port        int    `env:"PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	RedisURL    string `env:"REDIS_URL,required"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	WebhookSignatureSecret string `env:"WEBHOOK_SIGNATURE_SECRET"`
	OpsAPIToken            string `env:"OPS_API_TOKEN"`

	OpenAIAPIKey    string `env:"OPENAI_API_KEY,required"`
	OpenAIBaseURL   string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	ChatModel       string `env:"CHAT_MODEL" envDefault:"gpt-4o-mini"`
	TranscribeModel string `env:"TRANSCRIBE_MODEL" envDefault:"whisper-1"`
	SpeechModel     string `env:"SPEECH_MODEL" envDefault:"tts-1"`
	SpeechVoice     string `env:"SPEECH_VOICE" envDefault:"alloy"`

	TwilioAccountSID   string `env:"TWILIO_ACCOUNT_SID,required"`
	TwilioAuthToken    string `env:"TWILIO_AUTH_TOKEN,required"`
	TwilioWhatsAppFrom string `env:"TWILIO_WHATSAPP_FROM,required"`
	SupportPhone       string `env:"SUPPORT_PHONE"`

	StorefrontBaseURL string `env:"STOREFRONT_BASE_URL,required"`
	StorefrontToken   string `env:"STOREFRONT_TOKEN"`

	SocialAPIBaseURL string `env:"SOCIAL_API_BASE_URL"`
	SocialAPIToken   string `env:"SOCIAL_API_TOKEN"`

	StorageUploadURL string `env:"STORAGE_UPLOAD_URL"`
	StoragePublicURL string `env:"STORAGE_PUBLIC_URL"`
	StorageToken     string `env:"STORAGE_TOKEN"`

	// Conversation coordination knobs. The upstream bot variants disagreed on
	// the session TTL, so it stays configurable rather than hard-coded.
	SessionTTLSeconds          int      `env:"SESSION_TTL_SECONDS" envDefault:"600"`
	SessionHistoryLimit        int      `env:"SESSION_HISTORY_LIMIT" envDefault:"10"`
	HandoffPauseSeconds        int      `env:"HANDOFF_PAUSE_SECONDS" envDefault:"1800"`
	HandoffTriggers            []string `env:"HANDOFF_TRIGGERS" envSeparator:"," envDefault:"موظف,دعم فني,مساعدة"`
	CollaboratorTimeoutSeconds int      `env:"COLLABORATOR_TIMEOUT_SECONDS" envDefault:"20"`
	TurnRetentionDays          int      `env:"TURN_RETENTION_DAYS" envDefault:"90"`
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLSeconds) * time.Second
}

func (c *Config) HandoffPause() time.Duration {
	return time.Duration(c.HandoffPauseSeconds) * time.Second
}

func (c *Config) CollaboratorTimeout() time.Duration {
	return time.Duration(c.CollaboratorTimeoutSeconds) * time.Second
}

func (c *Config) TurnRetention() time.Duration {
	return time.Duration(c.TurnRetentionDays) * 24 * time.Hour
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) Validate(isProduction bool) error {
	if c.SessionTTLSeconds <= 0 {
		return fmt.Errorf("SESSION_TTL_SECONDS must be positive")
	}
	if c.SessionHistoryLimit <= 0 {
		return fmt.Errorf("SESSION_HISTORY_LIMIT must be positive")
	}
	if c.HandoffPauseSeconds <= 0 {
		return fmt.Errorf("HANDOFF_PAUSE_SECONDS must be positive")
	}

	if isProduction {
		if err := validateSecret("OPS_API_TOKEN", c.OpsAPIToken); err != nil {
			return err
		}

		if c.WebhookSignatureSecret == "" {
			log.Warn().Msg("WEBHOOK_SIGNATURE_SECRET is empty in production: webhook signature verification disabled")
		}
		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
		if c.StorageUploadURL == "" {
			log.Warn().Msg("STORAGE_UPLOAD_URL is empty: voice replies will fall back to text only")
		}
	}

	return nil
}

func validateSecret(name, value string) error {
	if len(value) < 32 {
		return fmt.Errorf("%s must be at least 32 characters in production (generate with: openssl rand -base64 32)", name)
	}
	for _, weak := range knownWeakSecrets {
		if value == weak {
			return fmt.Errorf("%s is a known weak default; set a strong secret in production", name)
		}
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
