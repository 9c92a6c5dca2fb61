package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sahlastore/assistant-server-go/internal/model"
	"github.com/sahlastore/assistant-server-go/internal/service"
)

type mockSnapshotRepo struct {
	deleteIdleCalls int
	deleted         int64
}

func (m *mockSnapshotRepo) Upsert(ctx context.Context, snapshot model.SessionSnapshot) error {
	return nil
}

func (m *mockSnapshotRepo) FindByCustomer(ctx context.Context, customer string) (*model.SessionSnapshot, error) {
	return nil, nil
}

func (m *mockSnapshotRepo) Delete(ctx context.Context, customer string) error {
	return nil
}

func (m *mockSnapshotRepo) DeleteIdleBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	m.deleteIdleCalls++
	return m.deleted, nil
}

type mockTurnRepo struct {
	deleteOlderCalls int
	deleted          int64
}

func (m *mockTurnRepo) Create(ctx context.Context, params model.CreateTurnLogParams) (*model.TurnLog, error) {
	return nil, nil
}

func (m *mockTurnRepo) FindByCustomer(ctx context.Context, customer string, limit, offset int) ([]model.TurnLog, error) {
	return nil, nil
}

func (m *mockTurnRepo) CountByCustomer(ctx context.Context, customer string) (int, error) {
	return 0, nil
}

func (m *mockTurnRepo) CountByCustomerSince(ctx context.Context, customer string, since time.Time) (int, error) {
	return 0, nil
}

func (m *mockTurnRepo) CountByCustomerAndIntent(ctx context.Context, customer string, intent model.Intent) (int, error) {
	return 0, nil
}

func (m *mockTurnRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	m.deleteOlderCalls++
	return m.deleted, nil
}

func TestCleanupSweepPrunesStoresAndTables(t *testing.T) {
	sessions := service.NewSessionStore(10*time.Millisecond, 10, nil)
	gate := service.NewHandoffGate()
	snapshots := &mockSnapshotRepo{deleted: 3}
	turns := &mockTurnRepo{deleted: 7}

	sessions.Touch(context.Background(), "idle", model.Turn{Role: model.RoleCustomer, Content: "x", At: time.Now()})
	gate.Pause("idle", 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	job := NewCleanupJob(sessions, gate, snapshots, turns, 10*time.Minute, 90*24*time.Hour)
	job.sweep(context.Background())

	assert.Equal(t, 0, sessions.Len())
	assert.False(t, gate.IsPaused("idle"))
	assert.Equal(t, 1, snapshots.deleteIdleCalls)
	assert.Equal(t, 1, turns.deleteOlderCalls)
}

func TestCleanupJobStartStop(t *testing.T) {
	sessions := service.NewSessionStore(time.Hour, 10, nil)
	gate := service.NewHandoffGate()

	job := NewCleanupJob(sessions, gate, nil, nil, time.Hour, time.Hour)
	job.Start()
	job.Stop()
}
