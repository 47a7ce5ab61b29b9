// Package tui is the interactive terminal client for one session controller.
//
// Ownership boundary:
// - key bindings and path prompts for the host commands
//
// - the timestamped sent/response transcript and the status bar
package tui
