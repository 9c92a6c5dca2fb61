package model

import "time"

// TurnLog is one completed turn appended to the CRM log. Written after reply
// emission, fire-and-forget; a failed append never fails the turn.
type TurnLog struct {
	ID        string    `db:"id" json:"id"`
	Customer  string    `db:"customer" json:"customer"`
	Utterance string    `db:"utterance" json:"utterance"`
	MediaKind MediaKind `db:"media_kind" json:"mediaKind"`
	Intent    Intent    `db:"intent" json:"intent"`
	Reply     string    `db:"reply" json:"reply"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type CreateTurnLogParams struct {
	Customer  string
	Utterance string
	MediaKind MediaKind
	Intent    Intent
	Reply     string
}
