package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/sahlastore/assistant-server-go/internal/audit"
	"github.com/sahlastore/assistant-server-go/internal/config"
	"github.com/sahlastore/assistant-server-go/internal/service"
	"github.com/sahlastore/assistant-server-go/internal/util"
)

// WebhookHandler receives gateway message events. The gateway retries on
// anything but 2xx, so every decodable request is acked with 200 immediately
// and the turn itself runs in the background.
type WebhookHandler struct {
	router *service.Router
	guard  *service.FloodGuard
}

func NewWebhookHandler(router *service.Router, guard *service.FloodGuard) *WebhookHandler {
	return &WebhookHandler{router: router, guard: guard}
}

func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	// A malformed payload still gets a 200: the gateway retries on anything
	// else, and a payload that never decodes would retry forever.
	var event GatewayEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		log.Warn().Err(err).Msg("webhook: undecodable payload")
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	inbound, ok := event.ToInboundEvent()
	if !ok {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	if !h.guard.Allow(inbound.From) {
		audit.LogFromRequest(r, audit.Event{
			Type:     audit.EventFloodDrop,
			Customer: util.MaskPhone(inbound.From),
		})
		writeJSON(w, http.StatusOK, map[string]string{"status": "received"})
		return
	}

	// Ack first; the turn runs detached from the request context with its
	// own deadline.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), config.TurnTimeout)
		defer cancel()
		h.router.HandleTurn(ctx, inbound)
	}()

	writeJSON(w, http.StatusOK, map[string]string{"status": "received"})
}
