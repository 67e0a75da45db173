package track

import (
	"fmt"
	"math"
	"strings"

	"go-hep.org/x/hep/fmom"
)

// Drift chamber geometry: 4 planes of 6 layers each.
const (
	NumPlanes      = 4
	LayersPerPlane = 6
	NumLayers      = NumPlanes * LayersPerPlane
	NumSectors     = 6
)

// Subsystem identifies the time-of-flight wall that matched the track.
type Subsystem int

const (
	SubsystemRPC Subsystem = iota // inner, small polar angles
	SubsystemTOF                  // outer, large polar angles
)

// String returns the lower-case subsystem name.
func (s Subsystem) String() string {
	switch s {
	case SubsystemRPC:
		return "rpc"
	case SubsystemTOF:
		return "tof"
	default:
		return fmt.Sprintf("subsystem(%d)", int(s))
	}
}

// ParseSubsystem maps "rpc"/"tof" (any case) or "0"/"1" to a Subsystem.
func ParseSubsystem(s string) (Subsystem, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rpc", "0":
		return SubsystemRPC, nil
	case "tof", "1":
		return SubsystemTOF, nil
	}
	return 0, fmt.Errorf("unknown subsystem %q", s)
}

// TrackParams carries the raw fields used to construct a Track.
type TrackParams struct {
	ID     int
	System Subsystem
	Charge int

	// Four-momentum in MeV
	Px, Py, Pz, E float64

	Sector int
	Beta   float64

	// Wires lists the fired wire numbers per drift-chamber layer.
	Wires [NumLayers][]int
	// Cells lists the matched META cell identifiers.
	Cells []int

	// Truth is the generated particle, simulation only.
	Truth *Track
}

// Track is one reconstructed particle.
type Track struct {
	id     int
	system Subsystem
	charge int
	p4     fmom.PxPyPzE

	rapidity float64
	pt       float64
	theta    float64 // degrees
	phi      float64 // degrees, [0,360)

	sector int
	beta   float64
	wires  [NumLayers][]int
	cells  []int
	truth  *Track
}

// NewTrack builds a Track and derives its rapidity, pt and angles. Wire and
// cell slices are copied so later changes to params do not leak in.
func NewTrack(p TrackParams) *Track {
	t := &Track{
		id:     p.ID,
		system: p.System,
		charge: p.Charge,
		p4:     fmom.NewPxPyPzE(p.Px, p.Py, p.Pz, p.E),
		sector: p.Sector,
		beta:   p.Beta,
		truth:  p.Truth,
	}
	for l := range p.Wires {
		if len(p.Wires[l]) > 0 {
			t.wires[l] = append([]int(nil), p.Wires[l]...)
		}
	}
	if len(p.Cells) > 0 {
		t.cells = append([]int(nil), p.Cells...)
	}

	t.pt = t.p4.Pt()
	if p.E > math.Abs(p.Pz) {
		t.rapidity = t.p4.Rapidity()
	}
	t.theta = math.Atan2(t.pt, p.Pz) * 180 / math.Pi
	if t.pt > 0 {
		t.phi = normalizeDegrees(t.p4.Phi() * 180 / math.Pi)
	}
	return t
}

// FromPolar converts a momentum magnitude, polar and azimuthal angle (degrees)
// and mass into cartesian momentum and energy.
func FromPolar(p, thetaDeg, phiDeg, mass float64) (px, py, pz, e float64) {
	th := thetaDeg * math.Pi / 180
	ph := phiDeg * math.Pi / 180
	px = p * math.Sin(th) * math.Cos(ph)
	py = p * math.Sin(th) * math.Sin(ph)
	pz = p * math.Cos(th)
	e = math.Sqrt(p*p + mass*mass)
	return px, py, pz, e
}

func normalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

func (t *Track) ID() int           { return t.id }
func (t *Track) System() Subsystem { return t.system }
func (t *Track) Charge() int       { return t.charge }
func (t *Track) Px() float64       { return t.p4.Px() }
func (t *Track) Py() float64       { return t.p4.Py() }
func (t *Track) Pz() float64       { return t.p4.Pz() }
func (t *Track) E() float64        { return t.p4.E() }
func (t *Track) Pt() float64       { return t.pt }
func (t *Track) Rapidity() float64 { return t.rapidity }
func (t *Track) Theta() float64    { return t.theta }
func (t *Track) Phi() float64      { return t.phi }
func (t *Track) Sector() int       { return t.sector }
func (t *Track) Beta() float64     { return t.beta }
func (t *Track) Truth() *Track     { return t.truth }
func (t *Track) HasTruth() bool    { return t.truth != nil }

// Momentum4 returns a copy of the four-momentum.
func (t *Track) Momentum4() fmom.PxPyPzE {
	return t.p4
}

// P returns the momentum magnitude.
func (t *Track) P() float64 {
	return math.Sqrt(t.pt*t.pt + t.p4.Pz()*t.p4.Pz())
}

// Wires returns the fired wires in the given layer. The slice must not be
// modified. Out-of-range layers return nil.
func (t *Track) Wires(layer int) []int {
	if layer < 0 || layer >= NumLayers {
		return nil
	}
	return t.wires[layer]
}

// FiredLayers counts the layers with at least one fired wire.
func (t *Track) FiredLayers() int {
	n := 0
	for l := range t.wires {
		if len(t.wires[l]) > 0 {
			n++
		}
	}
	return n
}

// Cells returns the matched META cells. The slice must not be modified.
func (t *Track) Cells() []int {
	return t.cells
}

func (t *Track) String() string {
	return fmt.Sprintf("track %d (%s, sector %d, p=%.1f y=%.3f)", t.id, t.system, t.sector, t.P(), t.rapidity)
}
