package pair

import (
	"errors"
	"math"

	"github.com/banshee-data/femtoscopy/internal/femto/track"
)

// Numerical stability constants, not user-tunable.
const (
	// KtEpsilon is the pair transverse momentum (MeV/c) below which the
	// out/side axes are undefined.
	KtEpsilon = 1e-6
	// MtEpsilon is the transverse mass (MeV) below which no longitudinal
	// boost is applied.
	MtEpsilon = 1e-9
)

// ErrDegenerateKt is returned by ComputeLCMS when the pair transverse
// momentum is below KtEpsilon.
var ErrDegenerateKt = errors.New("pair transverse momentum below KtEpsilon: out/side axes undefined")

// LCMS holds the relative momentum components in the longitudinally
// co-moving system.
type LCMS struct {
	QInv  float64
	QOut  float64
	QSide float64
	QLong float64
	Kt    float64
}

// ComputeLCMS returns the pair's LCMS relative momenta. When Kt is below
// KtEpsilon the out/side projection uses the lab x/y axes and the result is
// returned together with ErrDegenerateKt; QInv, QLong and Kt stay valid.
func ComputeLCMS(a, b *track.Track) (LCMS, error) {
	l, degenerate := lcms(a, b)
	if degenerate {
		return l, ErrDegenerateKt
	}
	return l, nil
}

func lcms(a, b *track.Track) (LCMS, bool) {
	px := a.Px() + b.Px()
	py := a.Py() + b.Py()
	pz := a.Pz() + b.Pz()
	e := a.E() + b.E()

	kt := math.Sqrt(px*px + py*py)

	// Longitudinal boost into the frame where the pair has no Pz.
	beta, gamma := 0.0, 1.0
	if mt2 := e*e - pz*pz; mt2 > MtEpsilon*MtEpsilon {
		mt := math.Sqrt(mt2)
		beta = pz / e
		gamma = e / mt
	}
	pz1 := gamma * (a.Pz() - beta*a.E())
	e1 := gamma * (a.E() - beta*a.Pz())
	pz2 := gamma * (b.Pz() - beta*b.E())
	e2 := gamma * (b.E() - beta*b.Pz())

	// Rotate the transverse plane so "out" lies along the pair Kt.
	cos, sin := 1.0, 0.0
	degenerate := kt < KtEpsilon
	if !degenerate {
		cos = px / kt
		sin = py / kt
	}
	out1 := a.Px()*cos + a.Py()*sin
	side1 := -a.Px()*sin + a.Py()*cos
	out2 := b.Px()*cos + b.Py()*sin
	side2 := -b.Px()*sin + b.Py()*cos

	qOut := math.Abs(out1 - out2)
	qSide := math.Abs(side1 - side2)
	qLong := math.Abs(pz1 - pz2)
	dE := e1 - e2

	return LCMS{
		QInv:  math.Sqrt(math.Abs(qOut*qOut + qSide*qSide + qLong*qLong - dE*dE)),
		QOut:  qOut,
		QSide: qSide,
		QLong: qLong,
		Kt:    kt,
	}, degenerate
}

// openingAngle returns the angle between the two 3-momenta in degrees.
func openingAngle(a, b *track.Track) float64 {
	pa, pb := a.P(), b.P()
	if pa == 0 || pb == 0 {
		return 0
	}
	cos := (a.Px()*b.Px() + a.Py()*b.Py() + a.Pz()*b.Pz()) / (pa * pb)
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * 180 / math.Pi
}

// meanAzimuth returns the circular mean of two azimuths in degrees, [0,360).
func meanAzimuth(phi1, phi2 float64) float64 {
	r1 := phi1 * math.Pi / 180
	r2 := phi2 * math.Pi / 180
	deg := math.Atan2(math.Sin(r1)+math.Sin(r2), math.Cos(r1)+math.Cos(r2)) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg -= 360
	}
	return deg
}

// wrapDelta maps an angle difference in degrees into (-180,180].
func wrapDelta(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg > 180 {
		deg -= 360
	} else if deg <= -180 {
		deg += 360
	}
	return deg
}
