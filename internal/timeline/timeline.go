// Package timeline holds the bounded, arrival-ordered record of alert-derived
// display entries, and the reconciler that applies decoded alerts to it.
package timeline

import (
	"sync"

	"github.com/visionguard/visionguard-monitor/internal/models"
)

const DefaultCap = 10

// Timeline is the capped, newest-first entry log. Insertion order reflects
// arrival order, not event-time order; no reordering is ever performed.
// Mutations happen only through the Reconciler.
type Timeline struct {
	mu      sync.RWMutex
	cap     int
	entries []models.TimelineEntry // index 0 is newest
}

// New creates a timeline capped at max entries. max <= 0 uses DefaultCap.
func New(max int) *Timeline {
	if max <= 0 {
		max = DefaultCap
	}
	return &Timeline{cap: max}
}

// prepend inserts at the head and truncates from the tail.
func (t *Timeline) prepend(e models.TimelineEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries = append([]models.TimelineEntry{e}, t.entries...)
	if len(t.entries) > t.cap {
		t.entries = t.entries[:t.cap]
	}
}

// Entries returns a copy of the current entries, newest first.
func (t *Timeline) Entries() []models.TimelineEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]models.TimelineEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of visible entries.
func (t *Timeline) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Cap returns the maximum number of visible entries.
func (t *Timeline) Cap() int {
	return t.cap
}
