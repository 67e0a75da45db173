package mixer

import (
	"math/rand"
	"testing"

	"github.com/banshee-data/femtoscopy/internal/femto/pair"
	"github.com/banshee-data/femtoscopy/internal/femto/track"
	"github.com/banshee-data/femtoscopy/internal/monitoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	monitoring.SetLogger(nil)
}

var nextTrackID = 0

// makeEvent builds an event with n tracks spread in azimuth.
func makeEvent(seq uint32, centrality, n int) *track.Event {
	ev := track.NewEvent(track.EventParams{Run: 1, Seq: seq, Centrality: centrality, ReactionPlane: 30})
	for i := 0; i < n; i++ {
		nextTrackID++
		phi := float64(i) * 360 / float64(n+1)
		px, py, pz, e := track.FromPolar(600+float64(10*i), 45, phi, 938.272)
		ev.AddTrack(track.NewTrack(track.TrackParams{ID: nextTrackID, Charge: 1, Px: px, Py: py, Pz: pz, E: e, Sector: int(phi / 60)}))
	}
	return ev
}

func byCentrality(ev *track.Event) int { return ev.Centrality() }

func newIntMixer(t *testing.T, size int, wait bool) *Mixer[int, int] {
	t.Helper()
	m, err := New(Config[int, int]{
		BufferSize:        size,
		WaitForFullBuffer: wait,
		EventKey:          byCentrality,
		Rand:              rand.New(rand.NewSource(1)),
	})
	require.NoError(t, err)
	return m
}

func allPairs(b BinnedPairs[int]) []*pair.Pair {
	var out []*pair.Pair
	for _, ps := range b {
		out = append(out, ps...)
	}
	return out
}

func TestNewRejectsNonPositiveBufferSize(t *testing.T) {
	for _, size := range []int{0, -3} {
		_, err := New(Config[int, int]{BufferSize: size})
		assert.ErrorIs(t, err, ErrInvalidBufferSize)
	}
}

func TestDefaultsCollapseIntoSingleBucket(t *testing.T) {
	m, err := New(Config[string, string]{BufferSize: 2, Rand: rand.New(rand.NewSource(3))})
	require.NoError(t, err)

	signal := m.AddEvent(makeEvent(1, 1, 3))
	require.Len(t, signal, 1)
	assert.Len(t, signal[""], 3)

	// Different centralities still share the constant key.
	m.AddEvent(makeEvent(2, 4, 3))
	assert.Equal(t, []string{""}, m.Keys())
	assert.Equal(t, 2, m.Len(""))
}

func TestTwoTrackEventGivesOneDegeneratePair(t *testing.T) {
	m := newIntMixer(t, 5, false)

	ev := track.NewEvent(track.EventParams{Run: 1, Seq: 1, Centrality: 1})
	ev.AddTrack(track.NewTrack(track.TrackParams{ID: 1, Px: 100, Py: 0, Pz: 500, E: 600}))
	ev.AddTrack(track.NewTrack(track.TrackParams{ID: 2, Px: -100, Py: 0, Pz: 500, E: 600}))

	signal := m.AddEvent(ev)
	pairs := allPairs(signal)
	require.Len(t, pairs, 1)
	assert.Zero(t, pairs[0].Kt())
	assert.True(t, pairs[0].Degenerate())
	assert.Equal(t, 1, signal.Len())
}

func TestSignalPairsAreUniqueAndAlternate(t *testing.T) {
	m := newIntMixer(t, 5, false)
	ev := makeEvent(1, 1, 5)
	tr := ev.Tracks()

	pairs := m.AddEvent(ev)[0]
	require.Len(t, pairs, 10)

	seen := make(map[[2]int]bool)
	for k, p := range pairs {
		a, b := p.First().ID(), p.Second().ID()
		require.NotEqual(t, a, b)
		if a > b {
			a, b = b, a
		}
		key := [2]int{a, b}
		assert.False(t, seen[key], "pair %v built twice", key)
		seen[key] = true

		// Even pairs keep input order, odd pairs are swapped.
		if k%2 == 0 {
			assert.Less(t, indexOf(tr, p.First()), indexOf(tr, p.Second()), "pair %d", k)
		} else {
			assert.Greater(t, indexOf(tr, p.First()), indexOf(tr, p.Second()), "pair %d", k)
		}
	}
}

func indexOf(ts []*track.Track, t *track.Track) int {
	for i, x := range ts {
		if x == t {
			return i
		}
	}
	return -1
}

func TestBufferEvictionKeepsMostRecent(t *testing.T) {
	m := newIntMixer(t, 3, false)

	events := make([]*track.Event, 5)
	for i := range events {
		events[i] = makeEvent(uint32(i+1), 2, 4)
		m.AddEvent(events[i])
	}

	entries := m.Buffered(2)
	require.Len(t, entries, 3)
	for i, e := range entries {
		ev := events[i+2]
		assert.Equal(t, ev.ID(), e.EventID)
		assert.GreaterOrEqual(t, indexOf(ev.Tracks(), e.Track), 0, "buffered track must come from its event")
	}
	assert.Equal(t, BufferFull, m.State(2))
	assert.Equal(t, 2, m.Counters().Evicted)
}

func TestBufferCapacityInvariant(t *testing.T) {
	const capacity = 4
	m := newIntMixer(t, capacity, false)
	rng := rand.New(rand.NewSource(11))

	for i := 0; i < 200; i++ {
		m.AddEvent(makeEvent(uint32(i+1), 1+rng.Intn(3), 1+rng.Intn(4)))
		for _, k := range m.Keys() {
			require.LessOrEqual(t, m.Len(k), capacity, "key %d after event %d", k, i)
		}
	}
}

func TestBufferStateTransitions(t *testing.T) {
	m := newIntMixer(t, 2, false)

	assert.Equal(t, BufferEmpty, m.State(1))
	m.AddEvent(makeEvent(1, 1, 2))
	assert.Equal(t, BufferFilling, m.State(1))
	m.AddEvent(makeEvent(2, 1, 2))
	assert.Equal(t, BufferFull, m.State(1))
	m.AddEvent(makeEvent(3, 1, 2))
	assert.Equal(t, BufferFull, m.State(1))

	assert.Equal(t, "empty", BufferEmpty.String())
	assert.Equal(t, "filling", BufferFilling.String())
	assert.Equal(t, "full", BufferFull.String())
}

func TestEmptyEventIsNotBuffered(t *testing.T) {
	m := newIntMixer(t, 2, false)

	signal := m.AddEvent(makeEvent(1, 1, 0))
	assert.Empty(t, signal)
	assert.Equal(t, BufferEmpty, m.State(1))
	assert.Empty(t, m.GetSimilarPairs(makeEvent(2, 1, 3)))
}

func TestWaitForFullBufferGating(t *testing.T) {
	m := newIntMixer(t, 5, true)

	for i := 1; i <= 3; i++ {
		ev := makeEvent(uint32(i), 1, 3)
		m.AddEvent(ev)
		bg := m.GetSimilarPairs(ev)
		assert.Empty(t, bg, "event %d", i)
		assert.NotNil(t, bg)
	}

	m.AddEvent(makeEvent(4, 1, 3))
	ev := makeEvent(5, 1, 3)
	m.AddEvent(ev)
	bg := m.GetSimilarPairs(ev)
	// 4 foreign entries times 3 tracks.
	assert.Equal(t, 12, bg.Len())
}

func TestNoSelfMixing(t *testing.T) {
	m := newIntMixer(t, 10, false)

	first := makeEvent(1, 1, 4)
	m.AddEvent(first)
	assert.Empty(t, m.GetSimilarPairs(first), "only the event's own entry is buffered")

	for i := 2; i <= 12; i++ {
		ev := makeEvent(uint32(i), 1, 4)
		m.AddEvent(ev)
		own := make(map[*track.Track]bool)
		for _, tr := range ev.Tracks() {
			own[tr] = true
		}
		bg := allPairs(m.GetSimilarPairs(ev))
		assert.NotEmpty(t, bg)
		for _, p := range bg {
			assert.False(t, own[p.First()] && own[p.Second()], "event %d mixed with itself", i)
			assert.True(t, own[p.First()] || own[p.Second()], "background pair must involve the event")
		}
	}
}

func TestUnknownKeyReturnsEmpty(t *testing.T) {
	m := newIntMixer(t, 3, false)
	m.AddEvent(makeEvent(1, 1, 3))

	bg := m.GetSimilarPairs(makeEvent(2, 4, 3))
	assert.NotNil(t, bg)
	assert.Empty(t, bg)
	assert.Nil(t, m.Buffered(4))
	assert.Zero(t, m.Len(4))
}

func TestRejectAndBinning(t *testing.T) {
	ktSplit := func(_ *track.Event, p *pair.Pair) string {
		if p.Kt() > 800 {
			return "high"
		}
		return "low"
	}
	rejectAll := pair.RejectFunc(func(*pair.Pair) bool { return true })

	m, err := New(Config[int, string]{BufferSize: 3, EventKey: byCentrality, PairKey: ktSplit, Reject: rejectAll, Rand: rand.New(rand.NewSource(5))})
	require.NoError(t, err)
	assert.Empty(t, m.AddEvent(makeEvent(1, 1, 4)))
	assert.Equal(t, 6, m.Counters().Rejected)
	assert.Zero(t, m.Counters().SignalPairs)

	m, err = New(Config[int, string]{BufferSize: 3, EventKey: byCentrality, PairKey: ktSplit, Rand: rand.New(rand.NewSource(5))})
	require.NoError(t, err)
	signal := m.AddEvent(makeEvent(2, 1, 4))
	assert.Equal(t, 6, signal.Len())
	for key, ps := range signal {
		for _, p := range ps {
			assert.Equal(t, key, ktSplit(nil, p))
			// Classification is a pure function of the pair.
			assert.Equal(t, ktSplit(nil, p), ktSplit(nil, p))
		}
	}
	assert.Equal(t, 6, m.Counters().SignalPairs)
}

func TestPairKeySeesProcessedEvent(t *testing.T) {
	var seen []uint64
	m, err := New(Config[int, int]{
		BufferSize: 3,
		PairKey: func(ev *track.Event, _ *pair.Pair) int {
			seen = append(seen, ev.ID())
			return ev.Centrality()
		},
		Rand: rand.New(rand.NewSource(5)),
	})
	require.NoError(t, err)

	m.AddEvent(makeEvent(1, 3, 2))
	ev := makeEvent(2, 3, 2)
	m.AddEvent(ev)
	bg := m.GetSimilarPairs(ev)
	assert.Len(t, bg[3], 2)
	assert.Equal(t, ev.ID(), seen[len(seen)-1])
}

func TestSeededSelectionIsReproducible(t *testing.T) {
	run := func() []int {
		m := newIntMixer(t, 10, false)
		for i := 1; i <= 10; i++ {
			m.AddEvent(makeEvent(uint32(i), 1, 6))
		}
		var idx []int
		for _, e := range m.Buffered(1) {
			idx = append(idx, e.Track.ID()%6)
		}
		return idx
	}
	nextTrackID = 0
	first := run()
	nextTrackID = 0
	second := run()
	assert.Equal(t, first, second)
}
