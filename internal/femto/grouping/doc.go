// Package grouping turns events and pairs into comparable keys: the event
// similarity key that selects a mixing buffer and the pair bin key that
// selects a histogram.
//
// Dependency rule: grouping depends on track, pair and config. The mixer
// never imports it; callers pass Grouper methods in as plain functions.
package grouping
