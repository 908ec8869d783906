// Package dyntimeout implements a dynamic deferred-callback timeout: a timer
// whose remaining delay can be extended, shortened or cancelled after creation
// and before it fires, without destroying and recreating the timer.
//
// The remaining delay is kept as a queue of segments consumed one at a time by
// a worker goroutine. Two workers are provided, differing in whether a wait in
// progress can be interrupted:
//
//   - [Timeout] sleeps each segment with an uninterruptible [time.Sleep] on a
//     dedicated goroutine. Cancellation is deferred until the end of the
//     in-progress segment.
//   - [TaskTimeout] waits each segment on a timer that an interruption signal
//     can preempt, so cancellation takes effect near-immediately, and exposes
//     [TaskTimeout.Wait] to suspend until the timeout reaches a terminal state.
//
// Both share the same contract: the completion action runs exactly once when
// the segment queue empties without cancellation, and never after a cancel.
//
// Timing is coarse and best-effort: shrinking a delay cannot affect the
// segment already being waited on, and decomposing a delay into many small
// segments accumulates scheduling jitter.
package dyntimeout
