package service

import (
	"sync"
	"time"
)

const (
	floodGuardMaxEntries      = 10000
	floodGuardCleanupInterval = time.Minute
	floodGuardEntryTTL        = 5 * time.Minute
)

type floodEntry struct {
	timestamps []time.Time
	lastAccess time.Time
}

// FloodGuard throttles inbound webhook events per sender with a sliding
// window. Over-limit events are acked to the gateway and dropped; the
// customer is never shown an error for flooding.
type FloodGuard struct {
	mu          sync.Mutex
	store       map[string]*floodEntry
	limit       int
	window      time.Duration
	lastCleanup time.Time
}

func NewFloodGuard(limit int, window time.Duration) *FloodGuard {
	return &FloodGuard{
		store:       make(map[string]*floodEntry),
		limit:       limit,
		window:      window,
		lastCleanup: time.Now(),
	}
}

func (g *FloodGuard) cleanup() {
	now := time.Now()
	if now.Sub(g.lastCleanup) < floodGuardCleanupInterval {
		return
	}
	g.lastCleanup = now

	for sender, entry := range g.store {
		if now.Sub(entry.lastAccess) > floodGuardEntryTTL {
			delete(g.store, sender)
		}
	}

	if len(g.store) > floodGuardMaxEntries {
		drop := len(g.store) / 5
		for sender := range g.store {
			delete(g.store, sender)
			drop--
			if drop <= 0 {
				break
			}
		}
	}
}

// Allow records one event for the sender and reports whether it is within
// the limit.
func (g *FloodGuard) Allow(sender string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.cleanup()

	now := time.Now()
	windowStart := now.Add(-g.window)

	entry, exists := g.store[sender]
	if !exists {
		entry = &floodEntry{}
		g.store[sender] = entry
	}
	entry.lastAccess = now

	filtered := entry.timestamps[:0]
	for _, ts := range entry.timestamps {
		if ts.After(windowStart) {
			filtered = append(filtered, ts)
		}
	}
	entry.timestamps = filtered

	if len(entry.timestamps) >= g.limit {
		return false
	}

	entry.timestamps = append(entry.timestamps, now)
	return true
}
