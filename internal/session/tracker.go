// Package session tracks each user's pending multi-result listing so a later
// "select" follow-up can resume the search from the rendered message.
package session

import (
	"sync"
	"time"

	"github.com/devhub-tools/wikibot/internal/models"
)

// Source names which corpus produced a pending listing.
type Source string

const (
	SourceWiki Source = "wiki"
	SourceRSA  Source = "rsa"
)

// Pending is one user's unresolved multi-result listing. Results holds the
// full structured result list and is authoritative; Lines keeps the rendered
// rows of the current window as a compatibility fallback for re-extraction.
type Pending struct {
	Lines      []string
	Results    []models.ScoredResult
	Source     Source
	Query      string
	Field      string
	BaseURL    string
	Page       int
	MessageRef string
	Seq        uint64
}

type slot struct {
	pending Pending
	ts      time.Time
}

type orderEntry struct {
	user string
	ts   time.Time
}

// Tracker is a bounded per-user pending-selection store. Entries expire
// after ttl and the oldest entries are evicted once capacity is exceeded, so
// abandoned selections cannot accumulate for the process lifetime.
type Tracker struct {
	mu       sync.Mutex
	items    map[string]slot
	order    []orderEntry
	capacity int
	ttl      time.Duration
	seq      uint64
}

// NewTracker creates a tracker with the provided capacity and ttl.
func NewTracker(capacity int, ttl time.Duration) *Tracker {
	if capacity <= 0 {
		capacity = 1
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Tracker{
		items:    make(map[string]slot, capacity),
		order:    make([]orderEntry, 0, capacity),
		capacity: capacity,
		ttl:      ttl,
	}
}

// Put records a pending selection for the user, silently discarding any
// prior unresolved one, and returns the sequence number assigned to it. A
// new search always wins over an older pending listing.
func (t *Tracker) Put(userID string, p Pending) uint64 {
	now := time.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	t.seq++
	p.Seq = t.seq
	t.items[userID] = slot{pending: p, ts: now}
	t.order = append(t.order, orderEntry{user: userID, ts: now})
	t.compact(now)

	return p.Seq
}

// Get returns the user's pending selection when one exists and has not
// expired.
func (t *Tracker) Get(userID string) (Pending, bool) {
	now := time.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.items[userID]
	if !ok || now.Sub(s.ts) > t.ttl {
		return Pending{}, false
	}
	return s.pending, true
}

// Clear removes the user's pending selection, but only when seq still
// identifies the stored one. A completion racing with a newer search must
// not wipe the newer state.
func (t *Tracker) Clear(userID string, seq uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.items[userID]
	if !ok || s.pending.Seq != seq {
		return false
	}
	delete(t.items, userID)
	return true
}

func (t *Tracker) compact(now time.Time) {
	cutoff := now.Add(-t.ttl)

	for len(t.order) > 0 && (len(t.items) > t.capacity || t.order[0].ts.Before(cutoff)) {
		oldest := t.order[0]
		t.order = t.order[1:]

		if s, ok := t.items[oldest.user]; ok {
			if s.ts.Equal(oldest.ts) {
				delete(t.items, oldest.user)
			}
		}
	}
}
