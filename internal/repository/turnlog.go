package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sahlastore/assistant-server-go/internal/model"
)

type TurnLogRepository interface {
	Create(ctx context.Context, params model.CreateTurnLogParams) (*model.TurnLog, error)
	FindByCustomer(ctx context.Context, customer string, limit, offset int) ([]model.TurnLog, error)
	CountByCustomer(ctx context.Context, customer string) (int, error)
	CountByCustomerSince(ctx context.Context, customer string, since time.Time) (int, error)
	CountByCustomerAndIntent(ctx context.Context, customer string, intent model.Intent) (int, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type turnLogRepo struct {
	db *sqlx.DB
}

func NewTurnLogRepository(db *sqlx.DB) TurnLogRepository {
	return &turnLogRepo{db: db}
}

func (r *turnLogRepo) Create(ctx context.Context, params model.CreateTurnLogParams) (*model.TurnLog, error) {
	var turn model.TurnLog
	err := r.db.GetContext(ctx, &turn, `
		INSERT INTO turn_logs (id, customer, utterance, media_kind, intent, reply)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING *
	`, uuid.NewString(), params.Customer, params.Utterance, params.MediaKind, params.Intent, params.Reply)
	if err != nil {
		return nil, err
	}
	return &turn, nil
}

func (r *turnLogRepo) FindByCustomer(ctx context.Context, customer string, limit, offset int) ([]model.TurnLog, error) {
	var turns []model.TurnLog
	err := r.db.SelectContext(ctx, &turns, `
		SELECT * FROM turn_logs
		WHERE customer = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, customer, limit, offset)
	return turns, err
}

func (r *turnLogRepo) CountByCustomer(ctx context.Context, customer string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM turn_logs WHERE customer = $1
	`, customer)
	return count, err
}

func (r *turnLogRepo) CountByCustomerSince(ctx context.Context, customer string, since time.Time) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM turn_logs WHERE customer = $1 AND created_at >= $2
	`, customer, since)
	return count, err
}

func (r *turnLogRepo) CountByCustomerAndIntent(ctx context.Context, customer string, intent model.Intent) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM turn_logs WHERE customer = $1 AND intent = $2
	`, customer, intent)
	return count, err
}

func (r *turnLogRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM turn_logs WHERE created_at < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
