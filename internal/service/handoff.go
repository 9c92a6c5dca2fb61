package service

import (
	"sync"
	"time"
)

// HandoffGate tracks customers temporarily escalated to a human agent. While
// a customer is paused every inbound turn gets the fixed wait reply and never
// reaches routing. Expiry is lazy: IsPaused compares against the recorded
// deadline instead of keeping a timer per pause, so re-pausing replaces the
// deadline with no cancellation bookkeeping.
type HandoffGate struct {
	mu     sync.Mutex
	pauses map[string]time.Time // customer -> pause expiry
}

func NewHandoffGate() *HandoffGate {
	return &HandoffGate{
		pauses: make(map[string]time.Time),
	}
}

func (g *HandoffGate) IsPaused(from string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	deadline, ok := g.pauses[from]
	if !ok {
		return false
	}
	if time.Now().After(deadline) {
		delete(g.pauses, from)
		return false
	}
	return true
}

// Pause marks the customer paused for the given duration. Pausing an
// already-paused customer resets the clock; there is never more than one
// active pause per customer.
func (g *HandoffGate) Pause(from string, duration time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pauses[from] = time.Now().Add(duration)
}

// Resume lifts the pause. Idempotent.
func (g *HandoffGate) Resume(from string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.pauses, from)
}

// PausedUntil reports the active pause deadline, if any.
func (g *HandoffGate) PausedUntil(from string) (time.Time, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	deadline, ok := g.pauses[from]
	if !ok || time.Now().After(deadline) {
		return time.Time{}, false
	}
	return deadline, true
}

// Sweep removes expired pauses between accesses.
func (g *HandoffGate) Sweep() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	removed := 0
	for from, deadline := range g.pauses {
		if now.After(deadline) {
			delete(g.pauses, from)
			removed++
		}
	}
	return removed
}
