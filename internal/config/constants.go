package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Background job intervals
const CleanupJobInterval = 5 * time.Minute

// TurnTimeout bounds one webhook turn end to end, across every collaborator
// call. The transport is acked before processing starts, so expiry only cuts
// the turn short, it never surfaces to the gateway.
const TurnTimeout = 90 * time.Second

// Webhook flood control per sender
const (
	WebhookFloodLimitPerMin = 20
	DefaultRateLimitPerMin  = 60
)

// MaxMediaDownloadBytes caps voice-note downloads (WhatsApp voice notes are
// well under this; anything larger is not something we should transcribe).
const MaxMediaDownloadBytes = 16 << 20
