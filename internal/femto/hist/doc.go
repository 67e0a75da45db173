// Package hist accumulates signal and background relative-momentum
// distributions per pair bin and turns them into correlation functions.
//
// Dependency rule: hist depends on pair only. It consumes the mixer's
// binned output by iteration.
package hist
