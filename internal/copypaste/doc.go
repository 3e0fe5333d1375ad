// Package copypaste implements copy, paste and duplication of node-graph
// selections.
//
// A copy runs in three stages:
//
//   - Collect computes the closure of elements that must travel together
//     with a selection (nested sub-groups, optionally group contents).
//   - Build captures the closure into a self-contained Snapshot. Every cross
//     reference inside a Snapshot is an identity; no live element is
//     reachable from the serialized form.
//   - Reconstruct recreates the captured elements inside a destination
//     graph under new identities and rewires wires, variable declarations,
//     portal pairs and group hierarchies through transient remapping tables.
//
// Reconstruction degrades by omission: an element that cannot be recreated
// (ineligible, missing dependency, unresolved endpoint) is skipped and the
// rest of the snapshot is still pasted. Element hooks that fail are logged
// and never abort sibling processing.
//
// All functions are synchronous and assume exclusive access to the
// destination graph for the duration of a call.
package copypaste
