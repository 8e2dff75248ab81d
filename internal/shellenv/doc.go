// Package shellenv generates the solver wrapper functions and wires
// them into shell startup files.
//
// Ownership boundary:
// - the functions file content with install prefixes baked in
// - guarded, idempotent source-line appends to rc files
// - child-shell verification of the generated snippet
package shellenv
