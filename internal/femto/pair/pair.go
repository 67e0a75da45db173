package pair

import (
	"fmt"

	"github.com/banshee-data/femtoscopy/internal/femto/track"
)

// Kinematics holds the pair-frame kinematics. Angles are in degrees.
type Kinematics struct {
	LCMS

	// Rapidity is the mean rapidity of the two tracks.
	Rapidity float64
	// Azimuth is the circular mean of the two track azimuths, [0,360).
	Azimuth float64
	// OpeningAngle is the angle between the two momenta.
	OpeningAngle float64
	// DeltaPhi is phi(first)-phi(second) wrapped into (-180,180].
	DeltaPhi float64
	// DeltaTheta is theta(first)-theta(second).
	DeltaTheta float64
	// Degenerate is true when Kt < KtEpsilon; QOut and QSide were then
	// projected on the lab x/y axes.
	Degenerate bool
}

// Pair is an immutable two-track record. All values are computed once in
// New from the two tracks.
type Pair struct {
	first, second *track.Track
	kin           Kinematics
	quality       Quality
}

// New builds a Pair. Kinematics other than DeltaPhi and DeltaTheta do not
// depend on the argument order.
func New(first, second *track.Track) *Pair {
	l, degenerate := lcms(first, second)
	return &Pair{
		first:  first,
		second: second,
		kin: Kinematics{
			LCMS:         l,
			Rapidity:     0.5 * (first.Rapidity() + second.Rapidity()),
			Azimuth:      meanAzimuth(first.Phi(), second.Phi()),
			OpeningAngle: openingAngle(first, second),
			DeltaPhi:     wrapDelta(first.Phi() - second.Phi()),
			DeltaTheta:   first.Theta() - second.Theta(),
			Degenerate:   degenerate,
		},
		quality: computeQuality(first, second),
	}
}

func (p *Pair) First() *track.Track     { return p.first }
func (p *Pair) Second() *track.Track    { return p.second }
func (p *Pair) Kinematics() Kinematics  { return p.kin }
func (p *Pair) Quality() Quality        { return p.quality }
func (p *Pair) QInv() float64           { return p.kin.QInv }
func (p *Pair) QOut() float64           { return p.kin.QOut }
func (p *Pair) QSide() float64          { return p.kin.QSide }
func (p *Pair) QLong() float64          { return p.kin.QLong }
func (p *Pair) Kt() float64             { return p.kin.Kt }
func (p *Pair) Rapidity() float64       { return p.kin.Rapidity }
func (p *Pair) Azimuth() float64        { return p.kin.Azimuth }
func (p *Pair) OpeningAngle() float64   { return p.kin.OpeningAngle }
func (p *Pair) Degenerate() bool        { return p.kin.Degenerate }
func (p *Pair) SameSector() bool        { return p.quality.SameSector }
func (p *Pair) SplittingLevel() float64 { return p.quality.SplittingLevel }

// Truth builds the pair of the tracks' generated particles. ok is false when
// either track carries no truth association.
func (p *Pair) Truth() (truth *Pair, ok bool) {
	if !p.first.HasTruth() || !p.second.HasTruth() {
		return nil, false
	}
	return New(p.first.Truth(), p.second.Truth()), true
}

func (p *Pair) String() string {
	return fmt.Sprintf("pair(%d,%d) qinv=%.2f kt=%.2f sl=%.2f", p.first.ID(), p.second.ID(), p.kin.QInv, p.kin.Kt, p.quality.SplittingLevel)
}
