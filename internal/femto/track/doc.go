// Package track holds the Track and Event records produced from detector
// data.
//
// Responsibilities: canonical particle kinematics, per-layer drift-chamber
// wire hits, matched META cells, and the event metadata (centrality,
// target plate, reaction plane, vertex) used for mixing.
// Key types: Track, Event.
//
// Tracks are immutable after construction and may be shared freely between
// events, pairs and the mixing buffer.
package track
