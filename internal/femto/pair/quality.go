package pair

import (
	"github.com/banshee-data/femtoscopy/internal/femto/track"
)

// Quality holds the merge/split metrics of a pair. The metrics are only
// physically meaningful when SameSector is true.
type Quality struct {
	// SharedWires counts layers in which both tracks fired the same wire.
	SharedWires int
	// BothLayers counts layers in which both tracks fired.
	BothLayers int
	// SharedCells counts META cells matched to both tracks.
	SharedCells int
	// SplittingLevel is in [-0.5, 1]: negative when the tracks mostly share
	// hits, 1 when every hit belongs to only one of them.
	SplittingLevel float64
	// FiredFirst and FiredSecond count the layers each track fired in.
	FiredFirst, FiredSecond int

	// SameSector is true when both tracks are in the same detector sector.
	SameSector bool

	distance [track.NumLayers]int
	valid    [track.NumLayers]bool
}

// WireDistance returns the smallest |w1-w2| over the wires of both tracks
// in the layer. ok is false when either track did not fire in the layer.
func (q Quality) WireDistance(layer int) (dist int, ok bool) {
	if layer < 0 || layer >= track.NumLayers || !q.valid[layer] {
		return 0, false
	}
	return q.distance[layer], true
}

// MinWireDistance returns the smallest wire distance over all layers. ok is
// false when no layer was fired by both tracks.
func (q Quality) MinWireDistance() (dist int, ok bool) {
	for l := 0; l < track.NumLayers; l++ {
		if !q.valid[l] {
			continue
		}
		if !ok || q.distance[l] < dist {
			dist = q.distance[l]
			ok = true
		}
	}
	return dist, ok
}

// Distances returns the defined wire distances in layer order.
func (q Quality) Distances() []int {
	out := make([]int, 0, q.BothLayers)
	for l := 0; l < track.NumLayers; l++ {
		if q.valid[l] {
			out = append(out, q.distance[l])
		}
	}
	return out
}

// computeQuality compares the fired wires of a and b layer by layer.
//
// Splitting level numerator per layer: +1 when only one track fired, -1
// when both fired and share a wire, +2 when both fired on distinct wires.
// The denominator is the total number of fired layers of both tracks.
func computeQuality(a, b *track.Track) Quality {
	q := Quality{SameSector: a.Sector() == b.Sector()}

	numerator := 0
	for l := 0; l < track.NumLayers; l++ {
		wa, wb := a.Wires(l), b.Wires(l)
		switch {
		case len(wa) > 0 && len(wb) > 0:
			q.BothLayers++
			q.FiredFirst++
			q.FiredSecond++
			dist, shared := closestWires(wa, wb)
			q.distance[l] = dist
			q.valid[l] = true
			if shared {
				q.SharedWires++
				numerator--
			} else {
				numerator += 2
			}
		case len(wa) > 0:
			q.FiredFirst++
			numerator++
		case len(wb) > 0:
			q.FiredSecond++
			numerator++
		}
	}

	if fired := q.FiredFirst + q.FiredSecond; fired > 0 {
		q.SplittingLevel = float64(numerator) / float64(fired)
	}
	q.SharedCells = sharedCount(a.Cells(), b.Cells())
	return q
}

func closestWires(wa, wb []int) (dist int, shared bool) {
	dist = -1
	for _, x := range wa {
		for _, y := range wb {
			d := x - y
			if d < 0 {
				d = -d
			}
			if dist < 0 || d < dist {
				dist = d
			}
		}
	}
	return dist, dist == 0
}

func sharedCount(ca, cb []int) int {
	if len(ca) == 0 || len(cb) == 0 {
		return 0
	}
	in := make(map[int]struct{}, len(cb))
	for _, c := range cb {
		in[c] = struct{}{}
	}
	n := 0
	seen := make(map[int]struct{}, len(ca))
	for _, c := range ca {
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		if _, ok := in[c]; ok {
			n++
		}
	}
	return n
}
