package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sahlastore/assistant-server-go/internal/model"
	"github.com/sahlastore/assistant-server-go/internal/repository"
)

// SessionStore owns the per-customer conversational state. Expiry is lazy:
// an entry past its TTL is removed on the access that finds it, not by a
// timer. The optional snapshot repository is only a restart cache; the store
// never blocks a turn on it.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*model.Session
	locks    map[string]*sync.Mutex

	ttl          time.Duration
	historyLimit int
	snapshots    repository.SnapshotRepository
}

func NewSessionStore(ttl time.Duration, historyLimit int, snapshots repository.SnapshotRepository) *SessionStore {
	if historyLimit <= 0 {
		historyLimit = 10
	}
	return &SessionStore{
		sessions:     make(map[string]*model.Session),
		locks:        make(map[string]*sync.Mutex),
		ttl:          ttl,
		historyLimit: historyLimit,
		snapshots:    snapshots,
	}
}

// Lock serializes turn processing for one customer. Turns for different
// customers proceed concurrently; a later-arriving turn for the same customer
// waits until the earlier one has written its history.
func (s *SessionStore) Lock(from string) {
	s.mu.Lock()
	m, ok := s.locks[from]
	if !ok {
		m = &sync.Mutex{}
		s.locks[from] = m
	}
	s.mu.Unlock()
	m.Lock()
}

func (s *SessionStore) Unlock(from string) {
	s.mu.RLock()
	m, ok := s.locks[from]
	s.mu.RUnlock()
	if ok {
		m.Unlock()
	}
}

func (s *SessionStore) expired(sess *model.Session, now time.Time) bool {
	return s.ttl > 0 && now.Sub(sess.LastSeenAt) > s.ttl
}

// Get returns a copy of the session if present and not expired. An expired
// entry is removed and reported absent.
func (s *SessionStore) Get(ctx context.Context, from string) *model.Session {
	now := time.Now()

	s.mu.Lock()
	sess, ok := s.sessions[from]
	if ok && s.expired(sess, now) {
		delete(s.sessions, from)
		ok = false
	}
	s.mu.Unlock()

	if !ok {
		sess = s.loadSnapshot(ctx, from, now)
		if sess == nil {
			return nil
		}
	}

	return copySession(sess)
}

// Touch creates the session if absent, appends the turn, trims history to the
// configured bound (oldest dropped first) and refreshes lastSeenAt.
func (s *SessionStore) Touch(ctx context.Context, from string, turn model.Turn) model.Session {
	now := time.Now()

	s.mu.Lock()
	sess, ok := s.sessions[from]
	if ok && s.expired(sess, now) {
		delete(s.sessions, from)
		ok = false
	}
	s.mu.Unlock()

	if !ok {
		if sess = s.loadSnapshot(ctx, from, now); sess == nil {
			sess = &model.Session{
				From:      from,
				Context:   make(map[string]string),
				CreatedAt: now,
			}
		}
	}

	s.mu.Lock()
	if existing, found := s.sessions[from]; found && !s.expired(existing, now) {
		sess = existing
	} else {
		s.sessions[from] = sess
	}
	sess.History = append(sess.History, turn)
	if over := len(sess.History) - s.historyLimit; over > 0 {
		sess.History = append(sess.History[:0], sess.History[over:]...)
	}
	sess.LastSeenAt = now
	updated := *copySession(sess)
	s.mu.Unlock()

	return updated
}

// SetContext merges a value into the session context, creating the session
// if absent.
func (s *SessionStore) SetContext(ctx context.Context, from, key, value string) {
	now := time.Now()

	s.mu.Lock()
	sess, ok := s.sessions[from]
	if !ok || s.expired(sess, now) {
		sess = &model.Session{
			From:       from,
			Context:    make(map[string]string),
			CreatedAt:  now,
			LastSeenAt: now,
		}
		s.sessions[from] = sess
	}
	sess.Context[key] = value
	s.mu.Unlock()
}

// Clear removes the session outright (used after a completed transactional
// flow). The snapshot row goes with it, best-effort.
func (s *SessionStore) Clear(ctx context.Context, from string) {
	s.mu.Lock()
	delete(s.sessions, from)
	s.mu.Unlock()

	if s.snapshots != nil {
		if err := s.snapshots.Delete(ctx, from); err != nil {
			log.Warn().Err(err).Str("customer", from).Msg("failed to delete session snapshot")
		}
	}
}

// SaveSnapshot flushes the current session to the restart cache. Failures are
// logged and swallowed; memory stays authoritative.
func (s *SessionStore) SaveSnapshot(ctx context.Context, from string) {
	if s.snapshots == nil {
		return
	}

	s.mu.RLock()
	sess, ok := s.sessions[from]
	var snapshot model.SessionSnapshot
	var err error
	if ok {
		snapshot, err = sess.ToSnapshot()
	}
	s.mu.RUnlock()

	if !ok {
		return
	}
	if err != nil {
		log.Warn().Err(err).Str("customer", from).Msg("failed to serialize session snapshot")
		return
	}

	if err := s.snapshots.Upsert(ctx, snapshot); err != nil {
		log.Warn().Err(err).Str("customer", from).Msg("failed to save session snapshot")
	}
}

// loadSnapshot tries the restart cache for a customer missing from memory.
// A snapshot older than the TTL counts as absent.
func (s *SessionStore) loadSnapshot(ctx context.Context, from string, now time.Time) *model.Session {
	if s.snapshots == nil {
		return nil
	}

	row, err := s.snapshots.FindByCustomer(ctx, from)
	if err != nil {
		log.Warn().Err(err).Str("customer", from).Msg("failed to load session snapshot")
		return nil
	}
	if row == nil {
		return nil
	}

	sess, err := row.ToSession()
	if err != nil {
		log.Warn().Err(err).Str("customer", from).Msg("failed to decode session snapshot")
		return nil
	}
	if s.expired(sess, now) {
		return nil
	}

	s.mu.Lock()
	if existing, ok := s.sessions[from]; ok {
		sess = existing
	} else {
		s.sessions[from] = sess
	}
	s.mu.Unlock()

	return sess
}

// Sweep drops expired sessions and idle per-customer locks. Lazy expiry on
// access is the correctness mechanism; this only bounds memory between
// accesses.
func (s *SessionStore) Sweep() int {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for from, sess := range s.sessions {
		if s.expired(sess, now) {
			delete(s.sessions, from)
			removed++
		}
	}

	for from, m := range s.locks {
		if _, live := s.sessions[from]; live {
			continue
		}
		if m.TryLock() {
			delete(s.locks, from)
			m.Unlock()
		}
	}

	return removed
}

// Len reports the number of live (possibly expired-but-unswept) sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func copySession(sess *model.Session) *model.Session {
	cp := *sess
	cp.History = append([]model.Turn(nil), sess.History...)
	cp.Context = make(map[string]string, len(sess.Context))
	for k, v := range sess.Context {
		cp.Context[k] = v
	}
	return &cp
}
