package selection

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/femtoscopy/internal/config"
	"github.com/banshee-data/femtoscopy/internal/femto/track"
)

// Verdict is the outcome of running an event through an EventSelector.
type Verdict int

const (
	Accepted Verdict = iota
	RejectedCentrality
	RejectedVertex
	RejectedNoTracks
)

func (v Verdict) String() string {
	switch v {
	case Accepted:
		return "accepted"
	case RejectedCentrality:
		return "centrality"
	case RejectedVertex:
		return "vertex"
	case RejectedNoTracks:
		return "no tracks"
	default:
		return fmt.Sprintf("Verdict(%d)", int(v))
	}
}

// Window is a closed interval [Min, Max].
type Window struct {
	Min, Max float64
}

// Contains reports whether v lies inside w.
func (w Window) Contains(v float64) bool {
	return v >= w.Min && v <= w.Max
}

// VertexCut accepts events whose vertex lies within MaxRadius of the beam
// axis and inside one of the target plates.
type VertexCut struct {
	MaxRadius float64
	// PlateEdges are the z boundaries of the plates; plate i spans
	// [PlateEdges[i], PlateEdges[i+1]).
	PlateEdges []float64
}

// Plate returns the plate index containing z, or track.NoPlate.
func (c VertexCut) Plate(z float64) int {
	if len(c.PlateEdges) < 2 || math.IsNaN(z) {
		return track.NoPlate
	}
	if i := floats.Within(c.PlateEdges, z); i >= 0 {
		return i
	}
	return track.NoPlate
}

// Select assigns the plate to ev and returns true when the vertex passes.
// A rejected event is left untouched.
func (c VertexCut) Select(ev *track.Event) bool {
	x, y, z := ev.Vertex()
	if math.Hypot(x, y) > c.MaxRadius {
		return false
	}
	plate := c.Plate(z)
	if plate == track.NoPlate {
		return false
	}
	ev.AssignPlate(plate)
	return true
}

// CentralityCut accepts events in any of the allowed centrality classes.
type CentralityCut struct {
	allowed map[int]bool
}

// NewCentralityCut returns a cut accepting the given classes.
func NewCentralityCut(classes ...int) CentralityCut {
	allowed := make(map[int]bool, len(classes))
	for _, c := range classes {
		allowed[c] = true
	}
	return CentralityCut{allowed: allowed}
}

func (c CentralityCut) Select(ev *track.Event) bool {
	return c.allowed[ev.Centrality()]
}

// SubsystemCut holds the momentum and beta gates of one subsystem.
type SubsystemCut struct {
	Momentum Window
	Beta     Window
}

// TrackCut accepts tracks of the wanted charge whose total momentum and
// beta fall inside their subsystem's windows. Charge 0 accepts any charge.
type TrackCut struct {
	Charge int
	RPC    SubsystemCut
	TOF    SubsystemCut
}

func (c TrackCut) Select(t *track.Track) bool {
	if c.Charge != 0 && t.Charge() != c.Charge {
		return false
	}
	var sc SubsystemCut
	switch t.System() {
	case track.SubsystemRPC:
		sc = c.RPC
	case track.SubsystemTOF:
		sc = c.TOF
	default:
		return false
	}
	return sc.Momentum.Contains(t.P()) && sc.Beta.Contains(t.Beta())
}

// EventSelector applies the centrality and vertex cuts, then filters the
// event's tracks. Events left without tracks are rejected.
type EventSelector struct {
	Centrality CentralityCut
	Vertex     VertexCut
	Track      TrackCut
}

// FromConfig builds an EventSelector from the configured cuts.
func FromConfig(cfg *config.FemtoConfig) *EventSelector {
	s := &EventSelector{
		Centrality: NewCentralityCut(cfg.GetAllowedCentralities()...),
		Vertex: VertexCut{
			MaxRadius:  cfg.GetVertexMaxRadius(),
			PlateEdges: cfg.GetPlateEdges(),
		},
		Track: TrackCut{Charge: cfg.GetTrackCharge()},
	}
	s.Track.RPC.Momentum.Min, s.Track.RPC.Momentum.Max = cfg.GetRPCMomentumWindow()
	s.Track.RPC.Beta.Min, s.Track.RPC.Beta.Max = cfg.GetRPCBetaWindow()
	s.Track.TOF.Momentum.Min, s.Track.TOF.Momentum.Max = cfg.GetTOFMomentumWindow()
	s.Track.TOF.Beta.Min, s.Track.TOF.Beta.Max = cfg.GetTOFBetaWindow()
	return s
}

// Select runs ev through the cuts. On acceptance ev carries its plate and
// only the tracks passing the track cut.
func (s *EventSelector) Select(ev *track.Event) Verdict {
	if !s.Centrality.Select(ev) {
		return RejectedCentrality
	}
	if !s.Vertex.Select(ev) {
		return RejectedVertex
	}
	ev.FilterTracks(s.Track.Select)
	if ev.Len() == 0 {
		return RejectedNoTracks
	}
	return Accepted
}
