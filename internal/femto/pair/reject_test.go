package pair

import (
	"errors"
	"math"
	"testing"

	"github.com/banshee-data/femtoscopy/internal/femto/track"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pairWithDistances builds a same-sector pair whose layer l has wire
// distance distances[l].
func pairWithDistances(distances ...int) *Pair {
	first := map[int][]int{}
	second := map[int][]int{}
	for l, d := range distances {
		first[l] = []int{100}
		second[l] = []int{100 + d}
	}
	return New(newTrack(1, 300, 20, 400, 1200, first), newTrack(2, 310, -20, 420, 1210, second))
}

func TestRejectorConstructorsCheckFraction(t *testing.T) {
	t.Parallel()

	constructors := map[string]func(int, float64) (Rejector, error){
		"uniform":  func(c int, f float64) (Rejector, error) { return NewRejector("uniform", c, f) },
		"oneunder": func(c int, f float64) (Rejector, error) { return NewRejector("oneunder", c, f) },
		"weighted": func(c int, f float64) (Rejector, error) { return NewRejector("weighted", c, f) },
	}

	tests := []struct {
		name     string
		fraction float64
		wantErr  bool
	}{
		{"below zero", -0.01, true},
		{"above one", 1.01, true},
		{"NaN", math.NaN(), true},
		{"zero", 0, false},
		{"one", 1, false},
		{"interior", 0.5, false},
	}

	for mode, build := range constructors {
		for _, tt := range tests {
			t.Run(mode+"/"+tt.name, func(t *testing.T) {
				r, err := build(2, tt.fraction)
				if tt.wantErr {
					require.Error(t, err)
					assert.True(t, errors.Is(err, ErrFractionOutOfRange))
					assert.Nil(t, r)
					return
				}
				require.NoError(t, err)
				assert.NotNil(t, r)
			})
		}
	}
}

func TestTypedConstructorsCheckFraction(t *testing.T) {
	t.Parallel()

	_, err := NewUniform(2, -0.1)
	assert.ErrorIs(t, err, ErrFractionOutOfRange)
	_, err = NewOneUnder(2, 1.1)
	assert.ErrorIs(t, err, ErrFractionOutOfRange)
	_, err = NewWeighted(2, 2)
	assert.ErrorIs(t, err, ErrFractionOutOfRange)

	_, err = NewUniform(-1, 0.5)
	assert.ErrorIs(t, err, ErrNegativeCutoff)

	u, err := NewUniform(3, 0.25)
	require.NoError(t, err)
	assert.Equal(t, 3, u.Cutoff())
	assert.Equal(t, 0.25, u.Fraction())
}

func TestNewRejectorModes(t *testing.T) {
	t.Parallel()

	r, err := NewRejector("Uniform", 2, 0.5)
	require.NoError(t, err)
	assert.IsType(t, &Uniform{}, r)

	r, err = NewRejector("ONEUNDER", 2, 0.5)
	require.NoError(t, err)
	assert.IsType(t, &OneUnder{}, r)

	r, err = NewRejector("weighted", 2, 0.5)
	require.NoError(t, err)
	assert.IsType(t, &Weighted{}, r)

	_, err = NewRejector("strict", 2, 0.5)
	assert.Error(t, err)
}

func TestOneUnderRejectsSharedWires(t *testing.T) {
	t.Parallel()

	r, err := NewOneUnder(2, 0.5)
	require.NoError(t, err)

	// One shared wire among otherwise distant layers.
	shared := pairWithDistances(0, 5, 5, 5, 5, 5)
	assert.True(t, r.Reject(shared))

	// Every layer at or beyond the cutoff.
	apart := pairWithDistances(2, 3, 2, 4, 7, 2)
	assert.False(t, r.Reject(apart))

	// One under the cutoff is not enough on its own.
	justUnder := pairWithDistances(1, 5, 5, 5, 5, 5)
	assert.False(t, r.Reject(justUnder))
}

func TestUniformFraction(t *testing.T) {
	t.Parallel()

	r, err := NewUniform(2, 0.5)
	require.NoError(t, err)

	// 3 of 6 close: exactly at the limit, kept.
	assert.False(t, r.Reject(pairWithDistances(1, 1, 1, 5, 5, 5)))
	// 4 of 6 close: rejected.
	assert.True(t, r.Reject(pairWithDistances(1, 1, 1, 1, 5, 5)))
	// Shared wires alone do not trip Uniform below the fraction.
	assert.False(t, r.Reject(pairWithDistances(0, 5, 5, 5, 5, 5)))
}

func TestWeightedRatioMayExceedOne(t *testing.T) {
	t.Parallel()

	w, err := NewWeighted(4, 1)
	require.NoError(t, err)

	p := pairWithDistances(0, 0, 0, 0, 0, 0)
	score, ok := w.Score(p)
	require.True(t, ok)
	assert.InDelta(t, 4, score, 1e-12)
	assert.True(t, w.Reject(p))

	// (4-3)+(4-2) over 4 layers = 0.75.
	p = pairWithDistances(3, 2, 6, 9)
	score, ok = w.Score(p)
	require.True(t, ok)
	assert.InDelta(t, 0.75, score, 1e-12)
	assert.False(t, w.Reject(p))
}

func TestPoliciesIgnoreOtherSectorsAndEmptyLayers(t *testing.T) {
	t.Parallel()

	wires := map[int][]int{0: {10}, 1: {20}, 2: {30}}
	a := track.NewTrack(track.TrackParams{ID: 1, Px: 300, Pz: 400, E: 1200, Sector: 1, Wires: toLayers(wires)})
	b := track.NewTrack(track.TrackParams{ID: 2, Px: 310, Pz: 420, E: 1210, Sector: 2, Wires: toLayers(wires)})
	crossSector := New(a, b)
	noOverlap := New(newTrack(1, 300, 0, 400, 1200, map[int][]int{0: {1}}), newTrack(2, 310, 0, 420, 1210, map[int][]int{1: {1}}))

	for _, mode := range []string{"uniform", "oneunder", "weighted"} {
		r, err := NewRejector(mode, 2, 0)
		require.NoError(t, err)
		assert.False(t, r.Reject(crossSector), mode)
		assert.False(t, r.Reject(noOverlap), mode)
	}
}

func TestRejectDegenerateAndAny(t *testing.T) {
	t.Parallel()

	degenerate := New(newTrack(1, 100, 0, 500, 600, nil), newTrack(2, -100, 0, 500, 600, nil))
	regular := pairWithDistances(5, 5)

	assert.True(t, RejectDegenerate.Reject(degenerate))
	assert.False(t, RejectDegenerate.Reject(regular))

	oneUnder, err := NewOneUnder(2, 0.5)
	require.NoError(t, err)
	combined := Any(oneUnder, nil, RejectDegenerate)
	assert.True(t, combined.Reject(degenerate))
	assert.True(t, combined.Reject(pairWithDistances(0, 5)))
	assert.False(t, combined.Reject(regular))
	assert.False(t, Any().Reject(regular))
}

func toLayers(m map[int][]int) [track.NumLayers][]int {
	var out [track.NumLayers][]int
	for l, w := range m {
		out[l] = w
	}
	return out
}
