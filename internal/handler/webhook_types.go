package handler

import (
	"github.com/sahlastore/assistant-server-go/internal/model"
)

// GatewayEvent is the envelope the WhatsApp gateway posts for each message.
// Only a fraction of the gateway's fields matter here; the rest are ignored
// on decode.
type GatewayEvent struct {
	Event   string         `json:"event"`
	Message GatewayMessage `json:"message"`
}

type GatewayMessage struct {
	ID       string `json:"id"`
	From     string `json:"from"`
	Pushname string `json:"pushname"`
	Type     string `json:"type"`
	Body     string `json:"body"`
	MediaURL string `json:"mediaUrl"`
	FromMe   bool   `json:"fromMe"`
	Status   string `json:"status"`
}

// ToInboundEvent maps the gateway payload onto the internal event shape.
// Echoes of our own outbound messages and pure status callbacks return
// ok=false and are acked without processing.
func (e *GatewayEvent) ToInboundEvent() (model.InboundEvent, bool) {
	msg := e.Message

	if msg.FromMe || msg.Status != "" || msg.From == "" {
		return model.InboundEvent{}, false
	}

	var kind model.EventKind
	switch msg.Type {
	case "chat", "text", "":
		kind = model.EventText
	case "image":
		kind = model.EventImage
	case "voice", "ptt", "audio":
		kind = model.EventVoice
	default:
		return model.InboundEvent{}, false
	}

	return model.InboundEvent{
		ID:       msg.ID,
		From:     msg.From,
		Name:     msg.Pushname,
		Kind:     kind,
		Body:     msg.Body,
		MediaURL: msg.MediaURL,
	}, true
}
