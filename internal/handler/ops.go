package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sahlastore/assistant-server-go/internal/audit"
	apperrors "github.com/sahlastore/assistant-server-go/internal/errors"
	"github.com/sahlastore/assistant-server-go/internal/service"
	"github.com/sahlastore/assistant-server-go/internal/sse"
)

// OpsHandler serves the support-agent API: per-customer conversation history,
// aggregate stats, and handoff pause control.
type OpsHandler struct {
	turns    *service.TurnLogService
	gate     *service.HandoffGate
	sessions *service.SessionStore
	broker   *sse.Broker
}

func NewOpsHandler(turns *service.TurnLogService, gate *service.HandoffGate, sessions *service.SessionStore, broker *sse.Broker) *OpsHandler {
	return &OpsHandler{turns: turns, gate: gate, sessions: sessions, broker: broker}
}

func (h *OpsHandler) ListTurns(w http.ResponseWriter, r *http.Request) {
	customer := chi.URLParam(r, "customer")
	if customer == "" {
		writeError(w, apperrors.MissingRequired("customer"))
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}

	result, err := h.turns.RecentByCustomer(r.Context(), customer, limit, offset)
	if err != nil {
		writeError(w, apperrors.Database(err))
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *OpsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	customer := chi.URLParam(r, "customer")
	if customer == "" {
		writeError(w, apperrors.MissingRequired("customer"))
		return
	}

	stats, err := h.turns.StatsByCustomer(r.Context(), customer)
	if err != nil {
		writeError(w, apperrors.Database(err))
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

type handoffState struct {
	Customer    string     `json:"customer"`
	Paused      bool       `json:"paused"`
	PausedUntil *time.Time `json:"pausedUntil,omitempty"`
}

func (h *OpsHandler) GetHandoff(w http.ResponseWriter, r *http.Request) {
	customer := chi.URLParam(r, "customer")
	if customer == "" {
		writeError(w, apperrors.MissingRequired("customer"))
		return
	}

	state := handoffState{Customer: customer}
	if deadline, ok := h.gate.PausedUntil(customer); ok {
		state.Paused = true
		state.PausedUntil = &deadline
	}

	writeJSON(w, http.StatusOK, state)
}

// Resume lifts an active handoff pause so the assistant picks the customer
// back up before the pause would expire on its own.
func (h *OpsHandler) Resume(w http.ResponseWriter, r *http.Request) {
	customer := chi.URLParam(r, "customer")
	if customer == "" {
		writeError(w, apperrors.MissingRequired("customer"))
		return
	}

	h.gate.Resume(customer)
	audit.LogFromRequest(r, audit.Event{
		Type:     audit.EventHandoffResume,
		Customer: customer,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"customer": customer,
		"paused":   false,
	})
}

func (h *OpsHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"activeSessions":   h.sessions.Len(),
		"dashboardClients": h.broker.ClientCount(sse.TopicTurns) + h.broker.ClientCount(sse.TopicHandoffs),
	})
}
