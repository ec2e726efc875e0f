// Package compliance contains the pure evaluation functions of the
// tracker: name normalization, per-requirement matching, and the fold of
// requirement results into an entity-level status.
//
// Everything in this package is deterministic and free of I/O; persistence
// and orchestration live in service/compliance.
package compliance
