package messaging

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	apperrors "github.com/sahlastore/assistant-server-go/internal/errors"
)

// TwilioMessenger delivers WhatsApp messages through the Twilio API.
type TwilioMessenger struct {
	client *twilio.RestClient
	from   string // e.g. "whatsapp:+14155238886"
}

func NewTwilioMessenger(accountSID, authToken, from string) (*TwilioMessenger, error) {
	if accountSID == "" || authToken == "" || from == "" {
		return nil, fmt.Errorf("missing twilio credentials")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	return &TwilioMessenger{
		client: client,
		from:   from,
	}, nil
}

func whatsappAddr(number string) string {
	if strings.HasPrefix(number, "whatsapp:") {
		return number
	}
	return "whatsapp:" + number
}

func (m *TwilioMessenger) Send(ctx context.Context, to, text string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(whatsappAddr(m.from))
	params.SetTo(whatsappAddr(to))
	params.SetBody(text)

	resp, err := m.client.Api.CreateMessage(params)
	if err != nil {
		return apperrors.CollaboratorUnavailable("messaging", err)
	}

	sid := ""
	if resp.Sid != nil {
		sid = *resp.Sid
	}
	log.Debug().Str("sid", sid).Msg("whatsapp message sent")
	return nil
}

// SendTyping is a no-op on Twilio's WhatsApp channel: the API has no typing
// indicator. Kept on the interface so gateways that support it can implement
// it.
func (m *TwilioMessenger) SendTyping(ctx context.Context, to string) error {
	return nil
}

// SendActionPrompt sends text with a persistent call-to-action attached
// (e.g. a tel: link the customer can tap to reach support).
func (m *TwilioMessenger) SendActionPrompt(ctx context.Context, to, text, action string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(whatsappAddr(m.from))
	params.SetTo(whatsappAddr(to))
	params.SetBody(text)
	if action != "" {
		params.SetPersistentAction([]string{action})
	}

	if _, err := m.client.Api.CreateMessage(params); err != nil {
		return apperrors.CollaboratorUnavailable("messaging", err)
	}
	return nil
}
