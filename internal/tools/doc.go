// Package tools provides process helpers for host-side utilities.
//
// Ownership boundary:
// - command execution and fire-and-forget process launch
//
// - data file conversion through the host executable
package tools
