package model

import (
	"encoding/json"
	"time"
)

type TurnRole string

const (
	RoleCustomer  TurnRole = "customer"
	RoleAssistant TurnRole = "assistant"
)

// Turn is one utterance in a conversation history, newest last.
type Turn struct {
	Role    TurnRole  `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// Session is the per-customer conversational state. Owned exclusively by the
// session store; process memory is authoritative, the snapshot table is only
// a restart cache.
type Session struct {
	From       string            `json:"from"`
	History    []Turn            `json:"history"`
	Context    map[string]string `json:"context"`
	CreatedAt  time.Time         `json:"createdAt"`
	LastSeenAt time.Time         `json:"lastSeenAt"`
}

// Context keys set by intent handlers and read on later turns.
const (
	ContextLastOrderID = "lastOrderId"
)

// SessionSnapshot is the flat row shape flushed to Postgres after each turn.
type SessionSnapshot struct {
	From       string          `db:"customer" json:"from"`
	History    json.RawMessage `db:"history" json:"history"`
	Context    json.RawMessage `db:"context" json:"context"`
	CreatedAt  time.Time       `db:"created_at" json:"createdAt"`
	LastSeenAt time.Time       `db:"last_seen_at" json:"lastSeenAt"`
}

// ToSnapshot serializes the session for the restart cache.
func (s *Session) ToSnapshot() (SessionSnapshot, error) {
	history, err := json.Marshal(s.History)
	if err != nil {
		return SessionSnapshot{}, err
	}
	context, err := json.Marshal(s.Context)
	if err != nil {
		return SessionSnapshot{}, err
	}
	return SessionSnapshot{
		From:       s.From,
		History:    history,
		Context:    context,
		CreatedAt:  s.CreatedAt,
		LastSeenAt: s.LastSeenAt,
	}, nil
}

// ToSession rebuilds in-memory state from a snapshot row.
func (s *SessionSnapshot) ToSession() (*Session, error) {
	sess := &Session{
		From:       s.From,
		Context:    make(map[string]string),
		CreatedAt:  s.CreatedAt,
		LastSeenAt: s.LastSeenAt,
	}
	if len(s.History) > 0 {
		if err := json.Unmarshal(s.History, &sess.History); err != nil {
			return nil, err
		}
	}
	if len(s.Context) > 0 {
		if err := json.Unmarshal(s.Context, &sess.Context); err != nil {
			return nil, err
		}
	}
	return sess, nil
}
