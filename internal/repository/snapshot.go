package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sahlastore/assistant-server-go/internal/model"
)

// SnapshotRepository persists session snapshots as a process-restart cache.
// Not authoritative: the in-memory store never waits on it, and a stale or
// missing row is treated the same as an absent session.
type SnapshotRepository interface {
	Upsert(ctx context.Context, snapshot model.SessionSnapshot) error
	FindByCustomer(ctx context.Context, customer string) (*model.SessionSnapshot, error)
	Delete(ctx context.Context, customer string) error
	DeleteIdleBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type snapshotRepo struct {
	db *sqlx.DB
}

func NewSnapshotRepository(db *sqlx.DB) SnapshotRepository {
	return &snapshotRepo{db: db}
}

func (r *snapshotRepo) Upsert(ctx context.Context, snapshot model.SessionSnapshot) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO conversation_snapshots (customer, history, context, created_at, last_seen_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (customer) DO UPDATE SET
			history = EXCLUDED.history,
			context = EXCLUDED.context,
			last_seen_at = EXCLUDED.last_seen_at
	`, snapshot.From, snapshot.History, snapshot.Context, snapshot.CreatedAt, snapshot.LastSeenAt)
	return err
}

func (r *snapshotRepo) FindByCustomer(ctx context.Context, customer string) (*model.SessionSnapshot, error) {
	var snapshot model.SessionSnapshot
	err := r.db.GetContext(ctx, &snapshot, `
		SELECT * FROM conversation_snapshots WHERE customer = $1
	`, customer)
	return HandleNotFound(&snapshot, err)
}

func (r *snapshotRepo) Delete(ctx context.Context, customer string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM conversation_snapshots WHERE customer = $1
	`, customer)
	return err
}

func (r *snapshotRepo) DeleteIdleBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM conversation_snapshots WHERE last_seen_at < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
