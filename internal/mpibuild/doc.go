// Package mpibuild downloads and builds MPICH into a user-local prefix.
//
// Ownership boundary:
// - no-clobber tarball download
// - archive extraction into the install root
// - configure / make / make install execution
package mpibuild
