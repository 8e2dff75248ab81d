// Package platform detects the host OS family, selects the package-manager
// branch the installer will use, and resolves build parallelism.
//
// Ownership boundary:
// - OS identifier classification (exactly one supported branch, or an error)
// - core-count probing with the fixed fallback
package platform
