// Package analysis is the driving loop of a correlation analysis: it runs
// each event through the admission cuts, feeds accepted events to the
// mixer and accumulates the binned signal and background pairs.
//
// Key types: Analysis, Stats, EventSource.
//
// Dependency rule: analysis may import every femto package and db; nothing
// in femto imports analysis.
package analysis
