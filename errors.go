package dyntimeout

import "github.com/ghettovoice/dyntimeout/internal/errorutil"

// Common errors.
const (
	ErrInvalidArgument = errorutil.ErrInvalidArgument

	// ErrTimeoutReached is returned by Add and Sub when the segment queue has
	// already been observed empty: the timeout fired or was cancelled and has
	// nothing left to extend or shrink.
	ErrTimeoutReached Error = "timeout already reached"
	// ErrCompletionConsumed is returned by Wait when the one-shot completion
	// signal was already received by an earlier call.
	ErrCompletionConsumed Error = "completion signal already consumed"
	// ErrCompletionPanicked is returned by Cancel, Close and Wait when the
	// completion action panicked in the worker goroutine. A completion action
	// must not panic; this is a programming-contract violation, surfaced
	// instead of being silently swallowed.
	ErrCompletionPanicked Error = "completion action panicked"
)

// Error represents a dyntimeout error.
// See [errorutil.Error].
type Error = errorutil.Error

// NewInvalidArgumentError creates a new error with [ErrInvalidArgument] or
// wraps provided error with [ErrInvalidArgument].
func NewInvalidArgumentError(args ...any) error {
	return errorutil.NewInvalidArgumentError(args...) //errtrace:skip
}

func newCompletionPanicError(v any) error {
	return errorutil.NewWrapperError(ErrCompletionPanicked, "%v", v) //errtrace:skip
}
