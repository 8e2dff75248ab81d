// Package solver clones and builds the SU2 CFD solver against the
// freshly built MPI toolchain.
//
// Ownership boundary:
// - clone-if-absent of the solver repository
// - meson generator + ninja executor invocation
// - the CC/CXX/PATH environment handed to those child processes
package solver
