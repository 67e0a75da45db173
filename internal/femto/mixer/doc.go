// Package mixer owns the event-mixing buffer and the pair combinatorics.
//
// Responsibilities: same-event (signal) pair generation, a bounded FIFO of
// representative tracks per event similarity key, mixed-event (background)
// pair generation, and binning of pairs through caller-supplied functions.
// Key types: Mixer, Config, BinnedPairs.
//
// Per key the buffer moves Empty -> Filling -> Full and stays Full; AddEvent
// is the only transition.
//
// Dependency rule: mixer depends on track and pair, never on grouping or
// on anything that accumulates results.
package mixer
