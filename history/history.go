// Package history implements the bounded ring of recent public messages
// replayed to new joiners, per spec.md §3/§4.6.
package history

import (
	"sync"

	"chatd/theme"
)

// Depth is the fixed history window. spec.md §9 leaves the exact value
// an open question for the implementer to pin as a compile-time
// constant; 20 matches the reference ssh-chat's default.
const Depth = 20

// Ring is a fixed-capacity, thread-safe ring buffer of history-eligible
// MessageEvents (Public and Emote only, per invariant 3).
type Ring struct {
	mu     sync.Mutex
	buf    [Depth]theme.MessageEvent
	start  int // index of the oldest entry
	length int
}

// New returns an empty history ring.
func New() *Ring {
	return &Ring{}
}

// Append adds ev to the ring, evicting the oldest entry once full. It
// silently ignores events that aren't history-eligible so callers can
// pass every fanned-out event through without a separate filter.
func (r *Ring) Append(ev theme.MessageEvent) {
	if !ev.IsHistoryEligible() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.length < Depth {
		idx := (r.start + r.length) % Depth
		r.buf[idx] = ev
		r.length++
		return
	}
	r.buf[r.start] = ev
	r.start = (r.start + 1) % Depth
}

// Snapshot returns the ring's contents in chronological (oldest-first)
// order, suitable for replaying to a newly joined session.
func (r *Ring) Snapshot() []theme.MessageEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]theme.MessageEvent, r.length)
	for i := 0; i < r.length; i++ {
		out[i] = r.buf[(r.start+i)%Depth]
	}
	return out
}

// Len reports how many entries the ring currently holds (<= Depth).
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.length
}
