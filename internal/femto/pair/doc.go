// Package pair computes two-track correlation kinematics and the
// merge/split quality metrics used to drop pairs that are really one
// trajectory reconstructed twice.
//
// Responsibilities: LCMS relative momenta (QInv, QOut, QSide, QLong), Kt,
// pair angles, per-layer wire proximity, splitting level, and the three
// rejection policies (Uniform, OneUnder, Weighted).
// Key types: Pair, LCMS, Rejector.
//
// Dependency rule: pair depends on track only.
package pair
