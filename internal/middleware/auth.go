package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/sahlastore/assistant-server-go/internal/audit"
	"github.com/sahlastore/assistant-server-go/internal/util"
)

// AuthMiddleware guards the ops API with a static bearer token.
type AuthMiddleware struct {
	token string
}

func NewAuthMiddleware(token string) *AuthMiddleware {
	return &AuthMiddleware{token: token}
}

func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.token == "" {
			log.Warn().Msg("ops API auth bypassed: OPS_API_TOKEN is not configured")
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		provided, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || !util.ConstantTimeEqual(provided, m.token) {
			audit.LogFromRequest(r, audit.Event{Type: audit.EventAuthFailure})
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Invalid or missing token",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
