package mixer

import (
	"github.com/banshee-data/femtoscopy/internal/femto/track"
)

// Entry is one buffered representative: the id of the event it was drawn
// from and the track itself. The event is not retained.
type Entry struct {
	EventID uint64
	Track   *track.Track
}

// ring is a fixed-capacity FIFO of entries. push is the only mutation; when
// full it overwrites the oldest entry.
type ring struct {
	entries  []Entry
	capacity int
	head     int // next write position
	size     int // current number of entries stored
}

func newRing(capacity int) *ring {
	return &ring{
		entries:  make([]Entry, capacity),
		capacity: capacity,
	}
}

// push stores e, evicting the oldest entry when at capacity. The evicted
// entry is returned with ok=true.
func (r *ring) push(e Entry) (evicted Entry, ok bool) {
	if r.size == r.capacity {
		evicted, ok = r.entries[r.head], true
	}
	r.entries[r.head] = e
	r.head = (r.head + 1) % r.capacity
	if r.size < r.capacity {
		r.size++
	}
	return evicted, ok
}

func (r *ring) len() int {
	return r.size
}

func (r *ring) full() bool {
	return r.size == r.capacity
}

// all returns the stored entries from oldest to newest.
func (r *ring) all() []Entry {
	if r.size == 0 {
		return nil
	}
	out := make([]Entry, r.size)
	for i := 0; i < r.size; i++ {
		idx := (r.head - r.size + i + r.capacity) % r.capacity
		out[i] = r.entries[idx]
	}
	return out
}
