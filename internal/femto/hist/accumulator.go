package hist

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"go-hep.org/x/hep/hbook"

	"github.com/banshee-data/femtoscopy/internal/femto/pair"
)

// Kind selects one relative-momentum projection.
type Kind int

const (
	QInv Kind = iota
	QOut
	QSide
	QLong
	numKinds
)

// Kinds lists every projection in histogram order.
var Kinds = []Kind{QInv, QOut, QSide, QLong}

func (k Kind) String() string {
	switch k {
	case QInv:
		return "qinv"
	case QOut:
		return "qout"
	case QSide:
		return "qside"
	case QLong:
		return "qlong"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

func (k Kind) value(p *pair.Pair) float64 {
	switch k {
	case QInv:
		return p.QInv()
	case QOut:
		return p.QOut()
	case QSide:
		return p.QSide()
	default:
		return p.QLong()
	}
}

var errBadBinning = errors.New("histogram needs a positive bin count and upper edge")

// Point is one correlation-function value with its statistical error.
type Point struct {
	X, Y, Err float64
}

// Set is the signal and background histograms of one pair bin.
type Set struct {
	signal     [numKinds]*hbook.H1D
	background [numKinds]*hbook.H1D

	SignalPairs     int
	BackgroundPairs int
}

func newSet(n int, upper float64) *Set {
	s := &Set{}
	for _, k := range Kinds {
		s.signal[k] = hbook.NewH1D(n, 0, upper)
		s.background[k] = hbook.NewH1D(n, 0, upper)
	}
	return s
}

// Signal returns the same-event histogram of kind k.
func (s *Set) Signal(k Kind) *hbook.H1D { return s.signal[k] }

// Background returns the mixed-event histogram of kind k.
func (s *Set) Background(k Kind) *hbook.H1D { return s.background[k] }

// Accumulator keeps one Set per pair bin, created on first fill.
// It is not safe for concurrent use.
type Accumulator[BK comparable] struct {
	nbins int
	upper float64
	sets  map[BK]*Set
}

// New returns an Accumulator whose histograms have nbins bins over [0,upper).
func New[BK comparable](nbins int, upper float64) (*Accumulator[BK], error) {
	if nbins < 1 || !(upper > 0) {
		return nil, fmt.Errorf("%w: bins=%d upper=%g", errBadBinning, nbins, upper)
	}
	return &Accumulator[BK]{nbins: nbins, upper: upper, sets: make(map[BK]*Set)}, nil
}

func (a *Accumulator[BK]) set(key BK) *Set {
	s, ok := a.sets[key]
	if !ok {
		s = newSet(a.nbins, a.upper)
		a.sets[key] = s
	}
	return s
}

// FillSignal adds same-event pairs.
func (a *Accumulator[BK]) FillSignal(binned map[BK][]*pair.Pair) {
	for key, ps := range binned {
		s := a.set(key)
		for _, p := range ps {
			for _, k := range Kinds {
				s.signal[k].Fill(k.value(p), 1)
			}
		}
		s.SignalPairs += len(ps)
	}
}

// FillBackground adds mixed-event pairs.
func (a *Accumulator[BK]) FillBackground(binned map[BK][]*pair.Pair) {
	for key, ps := range binned {
		s := a.set(key)
		for _, p := range ps {
			for _, k := range Kinds {
				s.background[k].Fill(k.value(p), 1)
			}
		}
		s.BackgroundPairs += len(ps)
	}
}

// Binning returns the bin count and upper edge shared by every histogram.
func (a *Accumulator[BK]) Binning() (int, float64) {
	return a.nbins, a.upper
}

// Set returns the histograms of key, or nil if key was never filled.
func (a *Accumulator[BK]) Set(key BK) *Set {
	return a.sets[key]
}

// Bins returns the filled keys sorted by their string form.
func (a *Accumulator[BK]) Bins() []BK {
	keys := make([]BK, 0, len(a.sets))
	for k := range a.sets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return fmt.Sprint(keys[i]) < fmt.Sprint(keys[j])
	})
	return keys
}

// Correlation returns the correlation function S/B of key for kind k, each
// histogram normalized to its in-range sum of weights. Bins with an empty
// signal or background are skipped. It returns nil when either side is
// empty altogether.
func (a *Accumulator[BK]) Correlation(key BK, k Kind) []Point {
	s, ok := a.sets[key]
	if !ok {
		return nil
	}
	return Ratio(s.signal[k], s.background[k])
}

// Ratio computes the normalized ratio of two histograms with identical
// binning.
func Ratio(num, den *hbook.H1D) []Point {
	nsum, dsum := inRange(num), inRange(den)
	if nsum == 0 || dsum == 0 {
		return nil
	}
	nb, db := num.Binning.Bins, den.Binning.Bins
	out := make([]Point, 0, len(nb))
	for i := range nb {
		sw, bw := nb[i].SumW(), db[i].SumW()
		if sw <= 0 || bw <= 0 {
			continue
		}
		c := (sw / nsum) / (bw / dsum)
		out = append(out, Point{
			X:   nb[i].XMid(),
			Y:   c,
			Err: c * math.Sqrt(1/sw+1/bw),
		})
	}
	return out
}

func inRange(h *hbook.H1D) float64 {
	sum := 0.0
	for _, b := range h.Binning.Bins {
		sum += b.SumW()
	}
	return sum
}
