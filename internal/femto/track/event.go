package track

import (
	"fmt"
	"math"
)

const (
	// NoPlate marks an event whose vertex has not been assigned a target plate.
	NoPlate = -1
	// NoReactionPlane marks an event without a reconstructed reaction plane.
	NoReactionPlane = -1.0
	// CentralityOverflow is the centrality class for events outside all classes.
	CentralityOverflow = 0
)

// MakeEventID packs the run number and the in-run sequence number into a
// single identifier.
func MakeEventID(run, seq uint32) uint64 {
	return uint64(run)<<32 | uint64(seq)
}

// EventParams carries the metadata used to construct an Event.
type EventParams struct {
	Run, Seq      uint32
	Centrality    int
	ReactionPlane float64 // degrees, or NoReactionPlane
	Vx, Vy, Vz    float64
}

// Event is one accepted collision with its tracks.
type Event struct {
	id            uint64
	run, seq      uint32
	centrality    int
	plate         int
	reactionPlane float64
	vx, vy, vz    float64
	tracks        []*Track
}

// NewEvent builds an empty event. A reaction-plane angle outside [0,360) is
// treated as unavailable; valid angles are folded into [0,180).
func NewEvent(p EventParams) *Event {
	rp := p.ReactionPlane
	if rp < 0 || rp >= 360 || math.IsNaN(rp) {
		rp = NoReactionPlane
	} else {
		rp = math.Mod(rp, 180)
	}
	return &Event{
		id:            MakeEventID(p.Run, p.Seq),
		run:           p.Run,
		seq:           p.Seq,
		centrality:    p.Centrality,
		plate:         NoPlate,
		reactionPlane: rp,
		vx:            p.Vx,
		vy:            p.Vy,
		vz:            p.Vz,
	}
}

func (e *Event) ID() uint64                { return e.id }
func (e *Event) Run() uint32               { return e.run }
func (e *Event) Seq() uint32               { return e.seq }
func (e *Event) Centrality() int           { return e.centrality }
func (e *Event) Plate() int                { return e.plate }
func (e *Event) ReactionPlane() float64    { return e.reactionPlane }
func (e *Event) HasReactionPlane() bool    { return e.reactionPlane != NoReactionPlane }
func (e *Event) Vertex() (x, y, z float64) { return e.vx, e.vy, e.vz }
func (e *Event) Len() int                  { return len(e.tracks) }

// AddTrack appends a track. The event owns the track from here on.
func (e *Event) AddTrack(t *Track) {
	e.tracks = append(e.tracks, t)
}

// Tracks returns the tracks in insertion order. The slice must not be modified.
func (e *Event) Tracks() []*Track {
	return e.tracks
}

// AssignPlate records the target plate selected by the vertex cut.
func (e *Event) AssignPlate(plate int) {
	e.plate = plate
}

// FilterTracks keeps only the tracks for which keep returns true and reports
// how many were removed.
func (e *Event) FilterTracks(keep func(*Track) bool) int {
	kept := e.tracks[:0]
	for _, t := range e.tracks {
		if keep(t) {
			kept = append(kept, t)
		}
	}
	removed := len(e.tracks) - len(kept)
	for i := len(kept); i < len(e.tracks); i++ {
		e.tracks[i] = nil
	}
	e.tracks = kept
	return removed
}

func (e *Event) String() string {
	return fmt.Sprintf("event %d/%d (cent %d, plate %d, %d tracks)", e.run, e.seq, e.centrality, e.plate, len(e.tracks))
}
