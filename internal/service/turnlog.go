package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sahlastore/assistant-server-go/internal/model"
	"github.com/sahlastore/assistant-server-go/internal/repository"
)

// TurnLogService is the CRM append-log collaborator, backed by Postgres.
type TurnLogService struct {
	repo repository.TurnLogRepository
}

func NewTurnLogService(repo repository.TurnLogRepository) *TurnLogService {
	return &TurnLogService{repo: repo}
}

func (s *TurnLogService) Append(ctx context.Context, params model.CreateTurnLogParams) (*model.TurnLog, error) {
	turn, err := s.repo.Create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("append turn log: %w", err)
	}

	log.Debug().
		Str("turnId", turn.ID).
		Str("intent", string(turn.Intent)).
		Msg("turn logged")

	return turn, nil
}

type TurnHistoryResult struct {
	Turns   []model.TurnLog `json:"turns"`
	Total   int             `json:"total"`
	HasMore bool            `json:"hasMore"`
}

func (s *TurnLogService) RecentByCustomer(ctx context.Context, customer string, limit, offset int) (*TurnHistoryResult, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	turns, err := s.repo.FindByCustomer(ctx, customer, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("find turns: %w", err)
	}
	total, err := s.repo.CountByCustomer(ctx, customer)
	if err != nil {
		return nil, fmt.Errorf("count turns: %w", err)
	}

	return &TurnHistoryResult{
		Turns:   turns,
		Total:   total,
		HasMore: offset+len(turns) < total,
	}, nil
}

// CustomerStats summarizes one customer's interaction volume for the ops API.
type CustomerStats struct {
	Customer   string `json:"customer"`
	Total      int    `json:"total"`
	Today      int    `json:"today"`
	Complaints int    `json:"complaints"`
	Handoffs   int    `json:"handoffs"`
}

func (s *TurnLogService) StatsByCustomer(ctx context.Context, customer string) (*CustomerStats, error) {
	stats := &CustomerStats{Customer: customer}

	now := time.Now()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	total, err := s.repo.CountByCustomer(ctx, customer)
	if err != nil {
		return nil, fmt.Errorf("count turns: %w", err)
	}
	stats.Total = total

	today, err := s.repo.CountByCustomerSince(ctx, customer, todayStart)
	if err != nil {
		return nil, fmt.Errorf("count turns today: %w", err)
	}
	stats.Today = today

	complaints, err := s.repo.CountByCustomerAndIntent(ctx, customer, model.IntentComplaint)
	if err != nil {
		return nil, fmt.Errorf("count complaints: %w", err)
	}
	stats.Complaints = complaints

	handoffs, err := s.repo.CountByCustomerAndIntent(ctx, customer, model.IntentHandoff)
	if err != nil {
		return nil, fmt.Errorf("count handoffs: %w", err)
	}
	stats.Handoffs = handoffs

	return stats, nil
}
