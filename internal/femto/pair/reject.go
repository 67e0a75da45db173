package pair

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrFractionOutOfRange is returned when a rejection fraction is outside [0,1].
	ErrFractionOutOfRange = errors.New("rejection fraction must be within [0,1]")
	// ErrNegativeCutoff is returned when a wire cutoff is negative.
	ErrNegativeCutoff = errors.New("wire cutoff must be non-negative")
)

// Rejector decides whether a pair is a probable merged or split track.
type Rejector interface {
	Reject(p *Pair) bool
}

// RejectFunc adapts a function to the Rejector interface.
type RejectFunc func(p *Pair) bool

// Reject calls f(p).
func (f RejectFunc) Reject(p *Pair) bool { return f(p) }

// RejectDegenerate rejects pairs whose Kt is below KtEpsilon.
var RejectDegenerate = RejectFunc(func(p *Pair) bool { return p.Degenerate() })

// Any rejects a pair when at least one of the rejectors does. Nil entries
// are skipped.
func Any(rs ...Rejector) Rejector {
	return RejectFunc(func(p *Pair) bool {
		for _, r := range rs {
			if r != nil && r.Reject(p) {
				return true
			}
		}
		return false
	})
}

// closeness holds the parameters shared by the wire-proximity policies.
// Pairs in different sectors are never rejected.
type closeness struct {
	cutoff   int
	fraction float64
}

func newCloseness(cutoff int, fraction float64) (closeness, error) {
	if cutoff < 0 {
		return closeness{}, fmt.Errorf("%w: %d", ErrNegativeCutoff, cutoff)
	}
	if math.IsNaN(fraction) || fraction < 0 || fraction > 1 {
		return closeness{}, fmt.Errorf("%w: %v", ErrFractionOutOfRange, fraction)
	}
	return closeness{cutoff: cutoff, fraction: fraction}, nil
}

func (c closeness) Cutoff() int       { return c.cutoff }
func (c closeness) Fraction() float64 { return c.fraction }

// closeFraction returns the share of valid layers closer than the cutoff
// and the number of valid layers.
func (c closeness) closeFraction(q Quality) (float64, int) {
	distances := q.Distances()
	if len(distances) == 0 {
		return 0, 0
	}
	n := 0
	for _, d := range distances {
		if d < c.cutoff {
			n++
		}
	}
	return float64(n) / float64(len(distances)), len(distances)
}

// Uniform rejects a same-sector pair when the fraction of layers with a
// wire distance below the cutoff exceeds the fraction limit.
type Uniform struct{ closeness }

// NewUniform returns a Uniform policy.
func NewUniform(cutoff int, fraction float64) (*Uniform, error) {
	c, err := newCloseness(cutoff, fraction)
	if err != nil {
		return nil, err
	}
	return &Uniform{c}, nil
}

// Reject implements Rejector.
func (u *Uniform) Reject(p *Pair) bool {
	if !p.SameSector() {
		return false
	}
	frac, valid := u.closeFraction(p.Quality())
	return valid > 0 && frac > u.fraction
}

// OneUnder behaves like Uniform and also rejects as soon as any layer's
// distance is more than one wire below the cutoff.
type OneUnder struct{ closeness }

// NewOneUnder returns a OneUnder policy.
func NewOneUnder(cutoff int, fraction float64) (*OneUnder, error) {
	c, err := newCloseness(cutoff, fraction)
	if err != nil {
		return nil, err
	}
	return &OneUnder{c}, nil
}

// Reject implements Rejector.
func (o *OneUnder) Reject(p *Pair) bool {
	if !p.SameSector() {
		return false
	}
	q := p.Quality()
	for _, d := range q.Distances() {
		if o.cutoff-d > 1 {
			return true
		}
	}
	frac, valid := o.closeFraction(q)
	return valid > 0 && frac > o.fraction
}

// Weighted rejects a same-sector pair when the summed shortfall
// (cutoff - distance) over close layers, divided by the number of valid
// layers, exceeds the fraction limit. The ratio is not capped and may
// exceed 1.
type Weighted struct{ closeness }

// NewWeighted returns a Weighted policy.
func NewWeighted(cutoff int, fraction float64) (*Weighted, error) {
	c, err := newCloseness(cutoff, fraction)
	if err != nil {
		return nil, err
	}
	return &Weighted{c}, nil
}

// Score returns the weighted closeness ratio for the pair and whether any
// layer was fired by both tracks.
func (w *Weighted) Score(p *Pair) (float64, bool) {
	distances := p.Quality().Distances()
	if len(distances) == 0 {
		return 0, false
	}
	sum := 0
	for _, d := range distances {
		if d < w.cutoff {
			sum += w.cutoff - d
		}
	}
	return float64(sum) / float64(len(distances)), true
}

// Reject implements Rejector.
func (w *Weighted) Reject(p *Pair) bool {
	if !p.SameSector() {
		return false
	}
	score, ok := w.Score(p)
	return ok && score > w.fraction
}

// NewRejector builds a policy by name: "uniform", "oneunder" or "weighted".
func NewRejector(mode string, cutoff int, fraction float64) (Rejector, error) {
	var (
		r   Rejector
		err error
	)
	switch strings.ToLower(mode) {
	case "uniform":
		r, err = NewUniform(cutoff, fraction)
	case "oneunder":
		r, err = NewOneUnder(cutoff, fraction)
	case "weighted":
		r, err = NewWeighted(cutoff, fraction)
	default:
		return nil, fmt.Errorf("unknown rejection mode %q", mode)
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}
