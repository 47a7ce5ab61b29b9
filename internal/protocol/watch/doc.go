// Package watch owns the retry/timeout state machine for one in-flight command.
//
// Ownership boundary:
// - baseline capture and change-since-baseline detection
//
// - poll cadence, timeout counting, resend and give-up policy
//
// - cancellation of the pending poll
//
// States:
// - idle -> awaiting on Start
//
// - awaiting -> resolved on a detected response or an exhausted retry budget
//
// - awaiting -> idle on Cancel or a superseding Start (no outcome is reported)
//
// Resends repeat the identical payload. Delivery is at-least-once; the host must tolerate duplicates.
package watch
