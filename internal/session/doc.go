// Package session owns the caller-facing controller for host commands.
//
// Ownership boundary:
// - send/cancel entry points used by the CLI, terminal UI and admin API
//
// - command-sent and result events, delivered to listeners exactly once per send
//
// - bounded event history and status snapshots
//
// Retry and timeout policy lives in package watch; the controller only correlates and reports.
package session
