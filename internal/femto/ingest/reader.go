package ingest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/banshee-data/femtoscopy/internal/femto/track"
)

// maxLineBytes bounds a single event record.
const maxLineBytes = 16 << 20

// ParticleRecord is the generated particle attached to a simulated track.
type ParticleRecord struct {
	P     float64 `json:"p"`     // MeV/c
	Theta float64 `json:"theta"` // degrees
	Phi   float64 `json:"phi"`   // degrees
	Mass  float64 `json:"mass"`  // MeV/c^2
}

// TrackRecord is one reconstructed track as written by the producer.
type TrackRecord struct {
	ID     int     `json:"id"`
	P      float64 `json:"p"`
	Theta  float64 `json:"theta"`
	Phi    float64 `json:"phi"`
	Mass   float64 `json:"mass"`
	Charge int     `json:"charge"`
	System string  `json:"system"`
	Sector int     `json:"sector"`
	Beta   float64 `json:"beta"`
	// Layers maps a drift-chamber layer index to its fired wires.
	Layers map[int][]int   `json:"layers,omitempty"`
	Cells  []int           `json:"cells,omitempty"`
	Truth  *ParticleRecord `json:"truth,omitempty"`
}

// EventRecord is one line of the stream.
type EventRecord struct {
	Run           uint32        `json:"run"`
	Seq           uint32        `json:"seq"`
	Centrality    int           `json:"centrality"`
	ReactionPlane *float64      `json:"reaction_plane,omitempty"` // degrees, absent when not reconstructed
	Vertex        [3]float64    `json:"vertex"`                   // mm
	Tracks        []TrackRecord `json:"tracks"`
}

// Reader yields events from a JSON-lines stream. Blank lines are skipped.
type Reader struct {
	sc   *bufio.Scanner
	line int
}

// NewReader wraps r.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &Reader{sc: sc}
}

// Next decodes the next event. It returns io.EOF once the stream is
// exhausted; any other error names the offending line.
func (r *Reader) Next() (*track.Event, error) {
	for r.sc.Scan() {
		r.line++
		b := bytes.TrimSpace(r.sc.Bytes())
		if len(b) == 0 {
			continue
		}
		var rec EventRecord
		if err := json.Unmarshal(b, &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", r.line, err)
		}
		ev, err := rec.Event()
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", r.line, err)
		}
		return ev, nil
	}
	if err := r.sc.Err(); err != nil {
		return nil, fmt.Errorf("line %d: %w", r.line+1, err)
	}
	return nil, io.EOF
}

// Line returns the number of lines consumed so far.
func (r *Reader) Line() int {
	return r.line
}

// Event converts the record into a track.Event.
func (rec EventRecord) Event() (*track.Event, error) {
	rp := track.NoReactionPlane
	if rec.ReactionPlane != nil {
		rp = *rec.ReactionPlane
	}
	ev := track.NewEvent(track.EventParams{
		Run:           rec.Run,
		Seq:           rec.Seq,
		Centrality:    rec.Centrality,
		ReactionPlane: rp,
		Vx:            rec.Vertex[0],
		Vy:            rec.Vertex[1],
		Vz:            rec.Vertex[2],
	})
	for i, tr := range rec.Tracks {
		t, err := tr.Track()
		if err != nil {
			return nil, fmt.Errorf("track %d: %w", i, err)
		}
		ev.AddTrack(t)
	}
	return ev, nil
}

var errBadMomentum = errors.New("momentum and mass must be non-negative")

// Track converts the record into a track.Track.
func (rec TrackRecord) Track() (*track.Track, error) {
	sys, err := track.ParseSubsystem(rec.System)
	if err != nil {
		return nil, err
	}
	if rec.P < 0 || rec.Mass < 0 {
		return nil, errBadMomentum
	}
	p := track.TrackParams{
		ID:     rec.ID,
		System: sys,
		Charge: rec.Charge,
		Sector: rec.Sector,
		Beta:   rec.Beta,
		Cells:  rec.Cells,
	}
	p.Px, p.Py, p.Pz, p.E = track.FromPolar(rec.P, rec.Theta, rec.Phi, rec.Mass)
	for layer, wires := range rec.Layers {
		if layer < 0 || layer >= track.NumLayers {
			return nil, fmt.Errorf("layer %d out of range [0,%d)", layer, track.NumLayers)
		}
		p.Wires[layer] = wires
	}
	if rec.Truth != nil {
		if rec.Truth.P < 0 || rec.Truth.Mass < 0 {
			return nil, fmt.Errorf("truth: %w", errBadMomentum)
		}
		tp := track.TrackParams{ID: rec.ID, System: sys, Charge: rec.Charge, Sector: rec.Sector}
		tp.Px, tp.Py, tp.Pz, tp.E = track.FromPolar(rec.Truth.P, rec.Truth.Theta, rec.Truth.Phi, rec.Truth.Mass)
		p.Truth = track.NewTrack(tp)
	}
	return track.NewTrack(p), nil
}
