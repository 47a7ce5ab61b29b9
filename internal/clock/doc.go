// Package clock owns the injectable time source used by poll scheduling.
//
// Ownership boundary:
// - wall-clock reads for send/resolve timestamps
//
// - cancellable one-shot timers for poll re-entry
//
// Production wiring uses Real(). Tests use Fake() and drive time with Advance; AfterFunc callbacks run
// synchronously inside Advance, so one Advance(interval) executes exactly one poll.
package clock
