// Package femto is the root of the two-particle correlation (femtoscopy)
// analysis packages.
//
// Data flow, leaf first:
//
//	ingest    raw event stream  -> track.Event / track.Track
//	selection vertex, centrality and track admission cuts
//	pair      pair kinematics (LCMS) and merge/split quality
//	grouping  event similarity keys and pair bin keys
//	mixer     same-event (signal) and mixed-event (background) pairs
//	hist      per-bin histogram accumulation
//	report    plots of the correlation functions
//	analysis  the driving loop tying the above together
//
// Dependency rule: lower layers never import higher ones; only analysis
// and cmd/ touch storage.
package femto
