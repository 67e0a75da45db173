package grouping

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/femtoscopy/internal/config"
	"github.com/banshee-data/femtoscopy/internal/femto/pair"
	"github.com/banshee-data/femtoscopy/internal/femto/track"
)

// Overflow is the bin index for values outside every interval.
const Overflow = -1

var errBadEdges = errors.New("bin edges need at least two strictly increasing values")

// Edges are the boundaries of consecutive half-open intervals
// [e[i], e[i+1]).
type Edges []float64

// NewEdges validates and copies edges.
func NewEdges(edges []float64) (Edges, error) {
	if len(edges) < 2 || !sort.Float64sAreSorted(edges) {
		return nil, errBadEdges
	}
	for i := 1; i < len(edges); i++ {
		if edges[i] == edges[i-1] {
			return nil, errBadEdges
		}
	}
	return append(Edges(nil), edges...), nil
}

// Bin returns the interval index holding v, or Overflow.
func (e Edges) Bin(v float64) int {
	if len(e) < 2 || math.IsNaN(v) {
		return Overflow
	}
	return floats.Within(e, v)
}

// Len is the number of intervals.
func (e Edges) Len() int {
	if len(e) < 2 {
		return 0
	}
	return len(e) - 1
}

// EventKey is the mixing similarity class of an event.
type EventKey struct {
	Centrality       int
	Plate            int
	ReactionPlaneBin int
}

func (k EventKey) String() string {
	return fmt.Sprintf("c%d/p%d/rp%d", k.Centrality, k.Plate, k.ReactionPlaneBin)
}

// PairKey is the histogram bin of a pair.
type PairKey struct {
	Kt         int
	Rapidity   int
	Azimuth    int
	Plate      int
	Centrality int
}

func (k PairKey) String() string {
	return fmt.Sprintf("kt%d/y%d/phi%d/p%d/c%d", k.Kt, k.Rapidity, k.Azimuth, k.Plate, k.Centrality)
}

// Grouper classifies events and pairs on fixed edges. Its EventKey and
// PairKey methods match the mixer function signatures.
type Grouper struct {
	kt            Edges
	rapidity      Edges
	azimuth       Edges
	reactionPlane Edges
}

// New builds a Grouper from explicit edges.
func New(kt, rapidity, azimuth, reactionPlane []float64) (*Grouper, error) {
	var g Grouper
	var err error
	if g.kt, err = NewEdges(kt); err != nil {
		return nil, fmt.Errorf("kt: %w", err)
	}
	if g.rapidity, err = NewEdges(rapidity); err != nil {
		return nil, fmt.Errorf("rapidity: %w", err)
	}
	if g.azimuth, err = NewEdges(azimuth); err != nil {
		return nil, fmt.Errorf("azimuth: %w", err)
	}
	if g.reactionPlane, err = NewEdges(reactionPlane); err != nil {
		return nil, fmt.Errorf("reaction plane: %w", err)
	}
	return &g, nil
}

// FromConfig builds a Grouper from the configured edges.
func FromConfig(cfg *config.FemtoConfig) (*Grouper, error) {
	return New(cfg.GetKtEdges(), cfg.GetRapidityEdges(), cfg.GetAzimuthEdges(), cfg.GetReactionPlaneEdges())
}

// EventKey classifies ev by centrality, target plate and reaction-plane
// bin. Events without a reaction plane get ReactionPlaneBin Overflow.
func (g *Grouper) EventKey(ev *track.Event) EventKey {
	rp := Overflow
	if ev.HasReactionPlane() {
		rp = g.reactionPlane.Bin(ev.ReactionPlane())
	}
	return EventKey{Centrality: ev.Centrality(), Plate: ev.Plate(), ReactionPlaneBin: rp}
}

// PairKey classifies p, built while processing ev.
func (g *Grouper) PairKey(ev *track.Event, p *pair.Pair) PairKey {
	az := Overflow
	if ev.HasReactionPlane() {
		az = g.azimuth.Bin(RelativeAzimuth(p.Azimuth(), ev.ReactionPlane()))
	}
	return PairKey{
		Kt:         g.kt.Bin(p.Kt()),
		Rapidity:   g.rapidity.Bin(p.Rapidity()),
		Azimuth:    az,
		Plate:      ev.Plate(),
		Centrality: ev.Centrality(),
	}
}

// Edges returns the kt, rapidity, azimuth and reaction-plane edges.
func (g *Grouper) Edges() (kt, rapidity, azimuth, reactionPlane Edges) {
	return g.kt, g.rapidity, g.azimuth, g.reactionPlane
}

// RelativeAzimuth folds the angle between a pair azimuth and the reaction
// plane into [0,180) degrees.
func RelativeAzimuth(azimuth, reactionPlane float64) float64 {
	d := math.Mod(azimuth-reactionPlane, 180)
	if d < 0 {
		d += 180
	}
	if d >= 180 {
		d = 0
	}
	return d
}
