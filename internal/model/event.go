package model

// EventKind discriminates inbound gateway payloads. Decoded once at the
// webhook boundary; everything downstream switches on this, never on raw
// payload fields.
type EventKind string

const (
	EventText  EventKind = "text"
	EventImage EventKind = "image"
	EventVoice EventKind = "voice"
)

// InboundEvent is one delivered customer message, already stripped of
// gateway framing.
type InboundEvent struct {
	ID       string
	From     string
	Name     string
	Kind     EventKind
	Body     string
	MediaURL string
}

// MediaKind tags the normalized utterance so the reply path can pick a
// matching delivery mode (e.g. voice in, voice out).
type MediaKind string

const (
	MediaText        MediaKind = "text"
	MediaImage       MediaKind = "image"
	MediaVoice       MediaKind = "voice"
	MediaLink        MediaKind = "link"
	MediaGeneralLink MediaKind = "general_link"
)

// SocialPlatform names the platforms whose links get the dedicated
// post-lookup treatment.
type SocialPlatform string

const (
	PlatformInstagram SocialPlatform = "instagram"
	PlatformFacebook  SocialPlatform = "facebook"
)

// NormalizedInput is the single shape every inbound event is reduced to
// before routing.
type NormalizedInput struct {
	From      string
	Name      string
	Utterance string
	MediaKind MediaKind

	// OrderID is set when the body carried a word-bounded 3-6 digit token.
	// A non-empty value short-circuits classification entirely.
	OrderID string

	// Platform and LinkURL are set for MediaLink inputs.
	Platform SocialPlatform
	LinkURL  string
}
