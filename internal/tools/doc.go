// Package tools provides process execution helpers shared by the install
// pipeline steps.
//
// Ownership boundary:
// - command execution primitives (probe and streaming forms)
// - exit-code normalization for missing binaries
package tools
