package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sahlastore/assistant-server-go/internal/audit"
	"github.com/sahlastore/assistant-server-go/internal/model"
	"github.com/sahlastore/assistant-server-go/internal/sse"
	"github.com/sahlastore/assistant-server-go/internal/util"
)

// Collaborator contracts the router depends on. Each call is a single
// attempt with the collaborator's own timeout; failures degrade to fixed
// replies, never to customer-visible errors.
type (
	Messenger interface {
		Send(ctx context.Context, to, text string) error
		SendTyping(ctx context.Context, to string) error
		SendActionPrompt(ctx context.Context, to, text, action string) error
	}
	Classifier interface {
		Classify(ctx context.Context, text string) (string, error)
	}
	Responder interface {
		Converse(ctx context.Context, text string, history []model.Turn) (string, error)
	}
	SpeechSynthesizer interface {
		Synthesize(ctx context.Context, text string) ([]byte, error)
	}
	Catalog interface {
		FindProduct(ctx context.Context, query string) ([]model.Product, error)
		GetOrder(ctx context.Context, id string) (*model.OrderStatus, error)
	}
	SocialLookup interface {
		GetPostDetails(ctx context.Context, url string) (*model.SocialPost, error)
	}
	AudioUploader interface {
		Upload(ctx context.Context, data []byte, name string) (string, error)
	}
	EventPublisher interface {
		Publish(ctx context.Context, topic string, event sse.Event) error
	}
)

// RouterDeps carries the injected collaborators.
type RouterDeps struct {
	Sessions   *SessionStore
	Gate       *HandoffGate
	Normalizer *Normalizer
	Messenger  Messenger
	Classifier Classifier
	Responder  Responder
	Speech     SpeechSynthesizer
	Catalog    Catalog
	Social     SocialLookup
	Uploader   AudioUploader
	Turns      *TurnLogService
	Publisher  EventPublisher
}

// RouterOptions carries the routing knobs.
type RouterOptions struct {
	HandoffTriggers []string
	HandoffPause    time.Duration
	SupportPhone    string
}

// Router coordinates one turn: normalization, handoff gating, deterministic
// fast paths, classification, strategy dispatch and reply emission. It holds
// no state of its own; everything persistent lives in the injected stores.
type Router struct {
	deps RouterDeps
	opts RouterOptions
}

func NewRouter(deps RouterDeps, opts RouterOptions) *Router {
	if opts.HandoffPause <= 0 {
		opts.HandoffPause = 30 * time.Minute
	}
	return &Router{deps: deps, opts: opts}
}

// HandleTurn processes one inbound event end to end. It never returns an
// error: the transport was acked before this runs, and every failure mode
// ends in some reply to the customer.
func (r *Router) HandleTurn(ctx context.Context, ev model.InboundEvent) {
	defer func() {
		if p := recover(); p != nil {
			log.Error().Any("panic", p).Str("customer", util.MaskPhone(ev.From)).Msg("turn processing panicked")
			if ev.From != "" {
				if err := r.deps.Messenger.Send(ctx, ev.From, msgApology); err != nil {
					log.Error().Err(err).Msg("failed to send apology reply")
				}
			}
		}
	}()

	input, err := r.deps.Normalizer.Normalize(ctx, ev)
	if err != nil {
		// Transport already acked; malformed events are dropped silently.
		log.Warn().Err(err).Str("customer", util.MaskPhone(ev.From)).Msg("dropping inbound event")
		return
	}

	from := input.From
	r.deps.Sessions.Lock(from)
	defer r.deps.Sessions.Unlock(from)

	// Paused customers get the fixed wait reply and nothing else reaches
	// classification or lookups.
	if r.deps.Gate.IsPaused(from) {
		if err := r.deps.Messenger.Send(ctx, from, msgWaitForAgent); err != nil {
			log.Error().Err(err).Str("customer", util.MaskPhone(from)).Msg("failed to send wait reply")
		}
		return
	}

	// An order number outranks a trigger word in the same message: the
	// customer gets the status they asked for instead of an escalation.
	if input.OrderID == "" && r.matchesHandoffTrigger(input.Utterance) {
		r.escalate(ctx, input)
		return
	}

	_ = r.deps.Messenger.SendTyping(ctx, from)

	reply, intent := r.respond(ctx, input)
	final := r.deliver(ctx, input, reply)

	if input.Utterance != "" {
		r.deps.Sessions.Touch(ctx, from, model.Turn{Role: model.RoleCustomer, Content: input.Utterance, At: time.Now()})
	}
	r.deps.Sessions.Touch(ctx, from, model.Turn{Role: model.RoleAssistant, Content: final, At: time.Now()})
	r.deps.Sessions.SaveSnapshot(ctx, from)

	r.logTurn(input, intent, final)
}

// respond picks the reply text for a normalized input, in the fixed priority
// order: order-number fast path, voice-acquisition fallback, social link,
// then model-based classification.
func (r *Router) respond(ctx context.Context, input model.NormalizedInput) (string, model.Intent) {
	if input.OrderID != "" {
		return r.orderStatus(ctx, input, input.OrderID), model.IntentOrderQuery
	}

	if input.MediaKind == model.MediaVoice && input.Utterance == "" {
		return msgVoiceTrouble, model.IntentGeneral
	}

	if input.MediaKind == model.MediaLink {
		return r.socialPost(ctx, input), model.IntentSocialLink
	}

	intent := r.classify(ctx, input.Utterance)

	switch intent {
	case model.IntentOrderQuery:
		return r.orderQuery(ctx, input), intent
	case model.IntentProductQuery:
		return r.productQuery(ctx, input), intent
	case model.IntentComplaint:
		log.Info().Str("customer", util.MaskPhone(input.From)).Msg("complaint received")
		return msgComplaintAck, intent
	case model.IntentSocialLink:
		return r.socialPost(ctx, input), intent
	default:
		return r.generalReply(ctx, input), model.IntentGeneral
	}
}

func (r *Router) classify(ctx context.Context, utterance string) model.Intent {
	label, err := r.deps.Classifier.Classify(ctx, utterance)
	if err != nil {
		log.Warn().Err(err).Msg("classification failed, defaulting to general")
		return model.IntentGeneral
	}

	intent, known := model.ParseIntent(label)
	if !known {
		log.Warn().Str("label", label).Msg("unrecognized intent label, defaulting to general")
	}
	return intent
}

func (r *Router) matchesHandoffTrigger(utterance string) bool {
	for _, trigger := range r.opts.HandoffTriggers {
		if trigger != "" && strings.Contains(utterance, trigger) {
			return true
		}
	}
	return false
}

// escalate pauses the customer and acknowledges with a call-support
// affordance. Re-triggering while paused never reaches here (the gate
// short-circuits first), and Pause itself replaces rather than stacks.
func (r *Router) escalate(ctx context.Context, input model.NormalizedInput) {
	r.deps.Gate.Pause(input.From, r.opts.HandoffPause)

	action := ""
	if r.opts.SupportPhone != "" {
		action = "tel:" + r.opts.SupportPhone
	}
	if err := r.deps.Messenger.SendActionPrompt(ctx, input.From, msgHandoffAck, action); err != nil {
		log.Error().Err(err).Str("customer", util.MaskPhone(input.From)).Msg("failed to send handoff ack")
	}

	r.publishEvent(sse.TopicHandoffs, "handoff", map[string]any{
		"customer": input.From,
		"name":     input.Name,
		"pausedAt": time.Now(),
	})

	audit.Log(ctx, audit.Event{
		Type:     audit.EventHandoffEscalate,
		Customer: util.MaskPhone(input.From),
	})

	r.logTurn(input, model.IntentHandoff, msgHandoffAck)
}

func (r *Router) orderStatus(ctx context.Context, input model.NormalizedInput, id string) string {
	order, err := r.deps.Catalog.GetOrder(ctx, id)
	if err != nil || order == nil {
		log.Warn().Err(err).Str("orderId", id).Msg("order lookup failed")
		return msgOrderLookupFailed
	}

	r.deps.Sessions.SetContext(ctx, input.From, model.ContextLastOrderID, id)
	return fmt.Sprintf(msgOrderStatusFmt, id, order.Status)
}

// orderQuery handles a classified order intent whose utterance carried no
// numeric token. A previously-resolved order in the session context is
// reused; otherwise the customer is asked for the number, with no
// collaborator call.
func (r *Router) orderQuery(ctx context.Context, input model.NormalizedInput) string {
	if id := ExtractOrderID(input.Utterance); id != "" {
		return r.orderStatus(ctx, input, id)
	}
	if sess := r.deps.Sessions.Get(ctx, input.From); sess != nil {
		if id := sess.Context[model.ContextLastOrderID]; id != "" {
			return r.orderStatus(ctx, input, id)
		}
	}
	return msgAskOrderNumber
}

func (r *Router) productQuery(ctx context.Context, input model.NormalizedInput) string {
	products, err := r.deps.Catalog.FindProduct(ctx, input.Utterance)
	if err != nil {
		log.Warn().Err(err).Msg("product search failed")
		return msgProductLookupFailed
	}

	if len(products) == 0 {
		// Suggest alternatives instead of a bare "not found".
		prompt := "العميل يبحث عن منتج غير متوفر لدينا: " + input.Utterance +
			"\nاقترح عليه بدائل قريبة بأسلوب ودود وباختصار."
		suggestion, err := r.deps.Responder.Converse(ctx, prompt, nil)
		if err != nil {
			log.Warn().Err(err).Msg("alternatives suggestion failed")
			return msgProductNotFound
		}
		return suggestion
	}

	var b strings.Builder
	b.WriteString("وجدنا لك:\n")
	for i, p := range products {
		if i >= 3 {
			break
		}
		fmt.Fprintf(&b, "• %s — %.2f %s\n%s\n", p.Name, p.Price, p.Currency, p.URL)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (r *Router) socialPost(ctx context.Context, input model.NormalizedInput) string {
	post, err := r.deps.Social.GetPostDetails(ctx, input.LinkURL)
	if err != nil || post == nil {
		log.Warn().Err(err).Str("url", input.LinkURL).Msg("social post lookup failed")
		return msgSocialLookupFailed
	}
	return post.Caption + "\n" + post.Permalink
}

func (r *Router) generalReply(ctx context.Context, input model.NormalizedInput) string {
	var history []model.Turn
	if sess := r.deps.Sessions.Get(ctx, input.From); sess != nil {
		history = sess.History
	}

	reply, err := r.deps.Responder.Converse(ctx, input.Utterance, history)
	if err != nil {
		log.Warn().Err(err).Msg("conversational reply failed")
		return msgGeneralFallback
	}
	return reply
}

// deliver emits the reply. Voice turns additionally get a synthesized audio
// version uploaded to object storage, with the shareable link prepended; any
// failure there falls back to the plain text reply.
func (r *Router) deliver(ctx context.Context, input model.NormalizedInput, reply string) string {
	final := reply

	if input.MediaKind == model.MediaVoice && r.deps.Speech != nil && r.deps.Uploader != nil {
		if audio, err := r.deps.Speech.Synthesize(ctx, reply); err != nil {
			log.Warn().Err(err).Msg("speech synthesis failed, sending text only")
		} else {
			name := fmt.Sprintf("reply-%s.mp3", uuid.NewString())
			if audioURL, err := r.deps.Uploader.Upload(ctx, audio, name); err != nil {
				log.Warn().Err(err).Msg("audio upload failed, sending text only")
			} else {
				final = audioURL + "\n\n" + reply
			}
		}
	}

	if err := r.deps.Messenger.Send(ctx, input.From, final); err != nil {
		log.Error().Err(err).Str("customer", util.MaskPhone(input.From)).Msg("failed to deliver reply")
	}
	return final
}

// logTurn appends the turn to the CRM log and the dashboard feed.
// Fire-and-forget: failures are captured in the operational log, never
// retried within the turn.
func (r *Router) logTurn(input model.NormalizedInput, intent model.Intent, reply string) {
	if r.deps.Turns != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if _, err := r.deps.Turns.Append(ctx, model.CreateTurnLogParams{
				Customer:  input.From,
				Utterance: input.Utterance,
				MediaKind: input.MediaKind,
				Intent:    intent,
				Reply:     reply,
			}); err != nil {
				log.Error().Err(err).Str("customer", util.MaskPhone(input.From)).Msg("failed to append turn log")
			}
		}()
	}

	r.publishEvent(sse.TopicTurns, "turn", map[string]any{
		"customer":  input.From,
		"utterance": input.Utterance,
		"mediaKind": input.MediaKind,
		"intent":    intent,
		"reply":     reply,
		"at":        time.Now(),
	})
}

func (r *Router) publishEvent(topic, eventType string, payload map[string]any) {
	if r.deps.Publisher == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.deps.Publisher.Publish(ctx, topic, sse.Event{Type: eventType, Data: data}); err != nil {
		log.Warn().Err(err).Str("topic", topic).Msg("failed to publish dashboard event")
	}
}
