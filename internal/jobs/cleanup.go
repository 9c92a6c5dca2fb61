package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sahlastore/assistant-server-go/internal/config"
	"github.com/sahlastore/assistant-server-go/internal/repository"
	"github.com/sahlastore/assistant-server-go/internal/service"
)

// CleanupJob periodically sweeps expired in-memory state and prunes the
// database tables. Lazy expiry keeps the stores correct without it; the job
// only bounds memory and disk between accesses.
type CleanupJob struct {
	sessions   *service.SessionStore
	gate       *service.HandoffGate
	snapshots  repository.SnapshotRepository
	turns      repository.TurnLogRepository
	sessionTTL time.Duration
	retention  time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

func NewCleanupJob(
	sessions *service.SessionStore,
	gate *service.HandoffGate,
	snapshots repository.SnapshotRepository,
	turns repository.TurnLogRepository,
	sessionTTL, retention time.Duration,
) *CleanupJob {
	return &CleanupJob{
		sessions:   sessions,
		gate:       gate,
		snapshots:  snapshots,
		turns:      turns,
		sessionTTL: sessionTTL,
		retention:  retention,
		done:       make(chan struct{}),
	}
}

func (j *CleanupJob) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	j.cancel = cancel

	go j.run(ctx)

	log.Info().
		Dur("interval", config.CleanupJobInterval).
		Msg("cleanup job started")
}

func (j *CleanupJob) Stop() {
	if j.cancel != nil {
		j.cancel()
		<-j.done
	}
	log.Info().Msg("cleanup job stopped")
}

func (j *CleanupJob) run(ctx context.Context) {
	defer close(j.done)

	ticker := time.NewTicker(config.CleanupJobInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

func (j *CleanupJob) sweep(ctx context.Context) {
	expiredSessions := j.sessions.Sweep()
	expiredPauses := j.gate.Sweep()

	sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var staleSnapshots, prunedTurns int64
	if j.snapshots != nil && j.sessionTTL > 0 {
		n, err := j.snapshots.DeleteIdleBefore(sweepCtx, time.Now().Add(-j.sessionTTL))
		if err != nil {
			log.Error().Err(err).Msg("cleanup: failed to prune session snapshots")
		} else {
			staleSnapshots = n
		}
	}

	if j.turns != nil && j.retention > 0 {
		n, err := j.turns.DeleteOlderThan(sweepCtx, time.Now().Add(-j.retention))
		if err != nil {
			log.Error().Err(err).Msg("cleanup: failed to prune turn logs")
		} else {
			prunedTurns = n
		}
	}

	if expiredSessions > 0 || expiredPauses > 0 || staleSnapshots > 0 || prunedTurns > 0 {
		log.Info().
			Int("expiredSessions", expiredSessions).
			Int("expiredPauses", expiredPauses).
			Int64("staleSnapshots", staleSnapshots).
			Int64("prunedTurns", prunedTurns).
			Msg("cleanup sweep completed")
	}
}
