// Package sysdeps installs the native build dependencies for the
// detected platform branch.
//
// Ownership boundary:
// - fixed per-branch package lists
// - package manager invocation, including the Homebrew bootstrap
// - pip install of the meson/ninja build tools
package sysdeps
