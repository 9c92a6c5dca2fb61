package model

import "strings"

// Intent is the closed routing enumeration. Every normalized utterance maps
// to exactly one intent per turn.
type Intent string

const (
	IntentOrderQuery   Intent = "order_query"
	IntentProductQuery Intent = "product_query"
	IntentComplaint    Intent = "complaint"
	IntentSocialLink   Intent = "social_link"
	IntentGeneral      Intent = "general"

	// IntentHandoff is recorded in the turn log when a handoff trigger fires;
	// it never comes out of the classifier.
	IntentHandoff Intent = "handoff"
)

var knownIntents = map[Intent]bool{
	IntentOrderQuery:   true,
	IntentProductQuery: true,
	IntentComplaint:    true,
	IntentSocialLink:   true,
	IntentGeneral:      true,
}

// ParseIntent maps a classifier label to an Intent. Unrecognized labels
// degrade to general; an ambiguous classification must never surface as an
// error on the customer-visible path.
func ParseIntent(label string) (Intent, bool) {
	intent := Intent(strings.ToLower(strings.TrimSpace(label)))
	if knownIntents[intent] {
		return intent, true
	}
	return IntentGeneral, false
}
