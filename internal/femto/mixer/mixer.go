package mixer

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/banshee-data/femtoscopy/internal/femto/pair"
	"github.com/banshee-data/femtoscopy/internal/femto/track"
	"github.com/banshee-data/femtoscopy/internal/monitoring"
)

// ErrInvalidBufferSize is returned by New when the buffer size is not positive.
var ErrInvalidBufferSize = errors.New("mixing buffer size must be positive")

// BinnedPairs maps a bin key to the pairs classified into it, in the order
// they were built.
type BinnedPairs[BK comparable] map[BK][]*pair.Pair

// Len returns the total number of pairs over all bins.
func (b BinnedPairs[BK]) Len() int {
	n := 0
	for _, ps := range b {
		n += len(ps)
	}
	return n
}

// BufferState describes how far a similarity key's buffer has filled.
type BufferState int

const (
	BufferEmpty   BufferState = iota // no entries
	BufferFilling                    // 0 < size < capacity
	BufferFull                       // size == capacity; sticky
)

func (s BufferState) String() string {
	switch s {
	case BufferEmpty:
		return "empty"
	case BufferFilling:
		return "filling"
	case BufferFull:
		return "full"
	default:
		return fmt.Sprintf("BufferState(%d)", int(s))
	}
}

// ConstantEventKey maps every event to the zero key, so all events share one
// mixing buffer.
func ConstantEventKey[EK comparable](*track.Event) EK {
	var zero EK
	return zero
}

// ConstantPairKey maps every pair to the zero key, so all pairs land in one bin.
func ConstantPairKey[BK comparable](*track.Event, *pair.Pair) BK {
	var zero BK
	return zero
}

// AcceptAll never rejects a pair.
var AcceptAll pair.Rejector = pair.RejectFunc(func(*pair.Pair) bool { return false })

// Config holds the Mixer parameters. Nil functions fall back to
// ConstantEventKey, ConstantPairKey and AcceptAll; a nil Rand is seeded from
// the clock.
type Config[EK, BK comparable] struct {
	// BufferSize is the number of representatives kept per similarity key.
	BufferSize int
	// WaitForFullBuffer makes GetSimilarPairs return nothing until the
	// key's buffer has reached BufferSize.
	WaitForFullBuffer bool

	// EventKey classifies an event for mixing; only events with equal keys
	// are mixed.
	EventKey func(*track.Event) EK
	// PairKey assigns a pair built while processing the event to a bin.
	PairKey func(*track.Event, *pair.Pair) BK
	// Reject drops pairs before binning.
	Reject pair.Rejector

	// Rand picks the buffered representative of each event.
	Rand *rand.Rand
}

// Counters accumulate over the life of a Mixer.
type Counters struct {
	SignalPairs     int
	BackgroundPairs int
	Rejected        int
	Evicted         int
}

// Mixer builds same-event and mixed-event pairs. It keeps, per similarity
// key, a FIFO of one randomly drawn track from each recent event.
//
// A Mixer is not safe for concurrent use.
type Mixer[EK, BK comparable] struct {
	bufferSize int
	wait       bool
	eventKey   func(*track.Event) EK
	pairKey    func(*track.Event, *pair.Pair) BK
	reject     pair.Rejector
	rng        *rand.Rand

	buffers  map[EK]*ring
	counters Counters
}

// New validates cfg and returns a Mixer.
func New[EK, BK comparable](cfg Config[EK, BK]) (*Mixer[EK, BK], error) {
	if cfg.BufferSize < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBufferSize, cfg.BufferSize)
	}

	m := &Mixer[EK, BK]{
		bufferSize: cfg.BufferSize,
		wait:       cfg.WaitForFullBuffer,
		eventKey:   cfg.EventKey,
		pairKey:    cfg.PairKey,
		reject:     cfg.Reject,
		rng:        cfg.Rand,
		buffers:    make(map[EK]*ring),
	}
	if m.eventKey == nil {
		monitoring.Logf("mixer: no event key function set, all events share a single mixing buffer")
		m.eventKey = ConstantEventKey[EK]
	}
	if m.pairKey == nil {
		monitoring.Logf("mixer: no pair key function set, all pairs share a single bin")
		m.pairKey = ConstantPairKey[BK]
	}
	if m.reject == nil {
		m.reject = AcceptAll
	}
	if m.rng == nil {
		m.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return m, nil
}

// AddEvent returns the binned same-event pairs of ev and stores one randomly
// chosen track of ev in the buffer for ev's similarity key.
//
// Successive pairs alternate which of their two tracks comes first, so an
// ordering bias in the input does not reach order-sensitive bin or cut
// functions.
func (m *Mixer[EK, BK]) AddEvent(ev *track.Event) BinnedPairs[BK] {
	tracks := ev.Tracks()
	n := len(tracks)

	pairs := make([]*pair.Pair, 0, n*(n-1)/2)
	swap := false
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, m.newPair(tracks[i], tracks[j], swap))
			swap = !swap
		}
	}

	m.store(ev)

	out, kept := m.bin(ev, pairs)
	m.counters.SignalPairs += kept
	return out
}

// GetSimilarPairs returns the binned pairs of ev's tracks with every buffered
// representative under ev's similarity key that did not come from ev
// itself. An unknown key, or a key whose buffer is not yet full while
// WaitForFullBuffer is set, yields an empty result.
func (m *Mixer[EK, BK]) GetSimilarPairs(ev *track.Event) BinnedPairs[BK] {
	buf, ok := m.buffers[m.eventKey(ev)]
	if !ok {
		return BinnedPairs[BK]{}
	}
	if m.wait && !buf.full() {
		return BinnedPairs[BK]{}
	}

	tracks := ev.Tracks()
	entries := buf.all()
	pairs := make([]*pair.Pair, 0, len(tracks)*len(entries))
	swap := false
	for _, e := range entries {
		if e.EventID == ev.ID() {
			continue
		}
		for _, t := range tracks {
			pairs = append(pairs, m.newPair(t, e.Track, swap))
			swap = !swap
		}
	}

	out, kept := m.bin(ev, pairs)
	m.counters.BackgroundPairs += kept
	return out
}

func (m *Mixer[EK, BK]) newPair(a, b *track.Track, swap bool) *pair.Pair {
	if swap {
		return pair.New(b, a)
	}
	return pair.New(a, b)
}

// store pushes a random representative of ev into its key's buffer.
func (m *Mixer[EK, BK]) store(ev *track.Event) {
	tracks := ev.Tracks()
	if len(tracks) == 0 {
		monitoring.Debugf("mixer: %v has no tracks, nothing buffered", ev)
		return
	}
	key := m.eventKey(ev)
	buf, ok := m.buffers[key]
	if !ok {
		buf = newRing(m.bufferSize)
		m.buffers[key] = buf
	}
	t := tracks[m.rng.Intn(len(tracks))]
	if evicted, ok := buf.push(Entry{EventID: ev.ID(), Track: t}); ok {
		m.counters.Evicted++
		monitoring.Debugf("mixer: key %v evicted track %d of event %d", key, evicted.Track.ID(), evicted.EventID)
	}
}

func (m *Mixer[EK, BK]) bin(ev *track.Event, pairs []*pair.Pair) (BinnedPairs[BK], int) {
	out := make(BinnedPairs[BK])
	kept := 0
	for _, p := range pairs {
		if m.reject.Reject(p) {
			m.counters.Rejected++
			continue
		}
		key := m.pairKey(ev, p)
		out[key] = append(out[key], p)
		kept++
	}
	return out, kept
}

// State reports the fill state of the buffer for key.
func (m *Mixer[EK, BK]) State(key EK) BufferState {
	buf, ok := m.buffers[key]
	switch {
	case !ok || buf.len() == 0:
		return BufferEmpty
	case buf.full():
		return BufferFull
	default:
		return BufferFilling
	}
}

// Len returns the number of buffered entries for key.
func (m *Mixer[EK, BK]) Len(key EK) int {
	if buf, ok := m.buffers[key]; ok {
		return buf.len()
	}
	return 0
}

// Buffered returns the entries for key from oldest to newest.
func (m *Mixer[EK, BK]) Buffered(key EK) []Entry {
	if buf, ok := m.buffers[key]; ok {
		return buf.all()
	}
	return nil
}

// Keys returns the similarity keys seen so far, in no particular order.
func (m *Mixer[EK, BK]) Keys() []EK {
	keys := make([]EK, 0, len(m.buffers))
	for k := range m.buffers {
		keys = append(keys, k)
	}
	return keys
}

// BufferSize returns the configured per-key capacity.
func (m *Mixer[EK, BK]) BufferSize() int {
	return m.bufferSize
}

// Counters returns the accumulated pair and buffer counters.
func (m *Mixer[EK, BK]) Counters() Counters {
	return m.counters
}
