package dyntimeout

import "time"

//go:generate mockgen -source=completion.go -destination=internal/mocks/completion.go -package=mocks

// Completion is the unit of work executed when a timeout fires.
// It is invoked in the worker goroutine, exactly once, and only if the
// timeout was not cancelled. Implementations must not panic: a panic is
// recovered in the worker and surfaces as [ErrCompletionPanicked] from
// Cancel, Close and Wait.
type Completion interface {
	Complete()
}

// CompletionFunc adapts an ordinary function, including closures with
// captured state, to the [Completion] interface.
type CompletionFunc func()

// Complete implements [Completion].
func (f CompletionFunc) Complete() { f() }

type senderCompletion struct {
	ch chan<- time.Time
}

// Complete implements [Completion].
// The send never blocks the worker: when nobody is receiving and the channel
// buffer is full, the notification is dropped.
func (c senderCompletion) Complete() {
	select {
	case c.ch <- time.Now():
	default:
	}
}

// SenderCompletion returns a [Completion] that notifies the channel with the
// fire time instead of invoking a callback. It suits callers that want to
// select on the timeout against other events rather than receive a call.
// A buffered channel (capacity 1 is enough for a single timeout) guarantees
// the notification is not dropped when the receiver is not ready.
func SenderCompletion(ch chan<- time.Time) Completion {
	return senderCompletion{ch}
}
