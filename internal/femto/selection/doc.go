// Package selection holds the event and track admission cuts applied before
// any pair is built.
//
// Cuts are predicates. The only side effect is VertexCut assigning the
// target-plate index to an event it accepts; EventSelector additionally
// drops tracks that fail the track cut.
//
// Dependency rule: selection depends on track and config only.
package selection
