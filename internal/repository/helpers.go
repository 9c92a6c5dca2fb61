package repository

import (
	"database/sql"
	"errors"
)

// HandleNotFound maps sql.ErrNoRows to (nil, nil). Lookups here treat a
// missing row as an ordinary answer: an absent snapshot is just a customer
// with no cached session, not a failure.
//
//	var snapshot model.SessionSnapshot
//	err := r.db.GetContext(ctx, &snapshot, query, customer)
//	return HandleNotFound(&snapshot, err)
func HandleNotFound[T any](result *T, err error) (*T, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}
