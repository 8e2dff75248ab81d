// Package pipeline runs the ordered install steps with fail-fast semantics.
//
// Ownership boundary:
// - step identity and outcome shapes
// - ordered execution with first-failure abort
// - the run report consumed by the receipt writer
package pipeline
