package dyntimeout

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"braces.dev/errtrace"

	"github.com/ghettovoice/dyntimeout/internal/delayqueue"
)

// TaskTimeout is a dynamic timeout whose worker waits each segment on a
// timer that a cancellation signal can preempt. Unlike [Timeout], a wait in
// progress is woken immediately when [TaskTimeout.Cancel] is called, so
// cancellation is near-immediate regardless of segment length.
//
// The worker also sends a one-shot completion signal on reaching a terminal
// state; [TaskTimeout.Wait] suspends the caller on it without polling.
//
// A dropped handle does not leak: the worker is scheduled independently and
// runs to completion on its own.
type TaskTimeout struct {
	queue     *delayqueue.Queue
	cancelled atomic.Bool
	// interrupt is a single-slot signal consumed on segment waits; Cancel
	// fills the slot to preempt a wait in progress.
	interrupt chan struct{}
	// completed carries the one-shot completion signal for Wait; the worker
	// sends a single value and closes the channel as its last act.
	completed chan struct{}
	// done is closed by the worker after completed is served; panicErr is
	// written before that, so readers that have observed either channel may
	// read it directly.
	done     chan struct{}
	panicErr error
	lc       *lifecycle
	log      *slog.Logger
}

// NewTask creates a dynamic timeout that invokes the callback after the given
// delay, unless cancelled first. It returns without blocking on completion;
// the worker starts consuming the segment queue immediately.
func NewTask(delay time.Duration, callback func(), opts *Options) (*TaskTimeout, error) {
	if callback == nil {
		return nil, errtrace.Wrap(NewInvalidArgumentError("nil callback"))
	}
	return errtrace.Wrap2(NewTaskWithCompletion(delay, CompletionFunc(callback), opts))
}

// NewTaskWithSender creates a dynamic timeout that notifies the channel with
// the fire time instead of invoking a callback. See [SenderCompletion].
func NewTaskWithSender(delay time.Duration, ch chan<- time.Time, opts *Options) (*TaskTimeout, error) {
	if ch == nil {
		return nil, errtrace.Wrap(NewInvalidArgumentError("nil channel"))
	}
	return errtrace.Wrap2(NewTaskWithCompletion(delay, SenderCompletion(ch), opts))
}

// NewTaskWithCompletion creates a dynamic timeout with an arbitrary
// completion action. See [NewTask] for the lifecycle description.
func NewTaskWithCompletion(delay time.Duration, c Completion, opts *Options) (*TaskTimeout, error) {
	if delay < 0 {
		return nil, errtrace.Wrap(NewInvalidArgumentError("negative delay %v", delay))
	}
	if c == nil {
		return nil, errtrace.Wrap(NewInvalidArgumentError("nil completion"))
	}

	t := &TaskTimeout{
		queue:     delayqueue.New(delay),
		interrupt: make(chan struct{}, 1),
		completed: make(chan struct{}, 1),
		done:      make(chan struct{}),
		log:       opts.log(),
	}
	t.lc = newLifecycle(t.log)
	go t.drain(c)
	return t, nil
}

func (t *TaskTimeout) drain(c Completion) {
	defer func() {
		// completed is buffered: the send cannot block and the value stays
		// available for a later Wait; the close lets further Wait calls fail
		// gracefully instead of hanging.
		t.completed <- struct{}{}
		close(t.completed)
		close(t.done)
	}()

	for {
		seg, ok := t.queue.PopLast()
		if !ok {
			break
		}
		if err := t.lc.drain(); err != nil {
			t.log.Error("timeout drain transition failed", slog.Any("error", err))
		}
		t.wait(seg)
	}

	// The queue cannot become non-empty again: Extend refuses an empty queue,
	// so the fire decision below is race-free with respect to Add.
	if t.cancelled.Load() {
		if err := t.lc.cancel(); err != nil {
			t.log.Error("timeout cancel transition failed", slog.Any("error", err))
		}
		t.log.Debug("timeout cancelled", slog.Any("timeout", t))
		return
	}

	if err := t.lc.fire(); err != nil {
		t.log.Error("timeout fire transition failed", slog.Any("error", err))
	}
	t.log.Debug("timeout fired", slog.Any("timeout", t))
	t.panicErr = runCompletion(c)
}

// wait sleeps for the segment length or until an interruption signal
// arrives, whichever is first.
func (t *TaskTimeout) wait(seg time.Duration) {
	timer := time.NewTimer(seg)
	select {
	case <-timer.C:
	case <-t.interrupt:
		if !timer.Stop() {
			<-timer.C
		}
	}
}

// Add increases the remaining delay before the timeout by appending a new
// segment to the queue. The extension becomes visible to the worker on its
// next consumption step. It is safe to call concurrently with the worker and
// with other Add, Sub and Cancel calls.
//
// It fails with [ErrTimeoutReached] when the timeout already fired or was
// cancelled.
func (t *TaskTimeout) Add(delay time.Duration) error {
	if delay < 0 {
		return errtrace.Wrap(NewInvalidArgumentError("negative delay %v", delay))
	}
	if !t.queue.Extend(delay) {
		return errtrace.Wrap(ErrTimeoutReached)
	}
	return nil
}

// Sub decreases the remaining delay before the timeout by removing queued
// segments, never more than requested: any excess removed beyond the
// requested amount is pushed back. The segment the worker is currently
// waiting on cannot be shrunk, and the queue's anchor segment is never
// removed, so Sub cannot make the timeout fire early on its own.
//
// It fails with [ErrTimeoutReached] when the timeout already fired or was
// cancelled.
func (t *TaskTimeout) Sub(delay time.Duration) error {
	if delay < 0 {
		return errtrace.Wrap(NewInvalidArgumentError("negative delay %v", delay))
	}
	if !t.queue.Reduce(delay) {
		return errtrace.Wrap(ErrTimeoutReached)
	}
	return nil
}

// Cancel dismisses the completion action, clears all remaining segments and
// preempts the worker's wait in progress, then waits for the worker to reach
// a terminal state. Cancelling an already terminal timeout just waits for
// the worker, which is a no-op by then.
//
// It surfaces [ErrCompletionPanicked] when the completion action panicked.
func (t *TaskTimeout) Cancel() error {
	t.cancelled.Store(true)
	t.queue.Clear()
	select {
	case t.interrupt <- struct{}{}:
	default:
		// A signal is already pending; one is enough to wake the worker.
	}
	<-t.done
	return errtrace.Wrap(t.panicErr)
}

// Wait suspends the caller until the timeout reaches a terminal state,
// whether fired or cancelled, without itself causing either. The completion
// signal is one-shot: the first Wait consumes it and subsequent calls fail
// with [ErrCompletionConsumed].
//
// It surfaces [ErrCompletionPanicked] when the completion action panicked.
func (t *TaskTimeout) Wait(ctx context.Context) error {
	select {
	case _, ok := <-t.completed:
		if !ok {
			return errtrace.Wrap(ErrCompletionConsumed)
		}
		return errtrace.Wrap(t.panicErr)
	case <-ctx.Done():
		return errtrace.Wrap(ctx.Err())
	}
}

// Done returns a channel that is closed when the timeout reaches a terminal
// state, whether fired or cancelled. Unlike [TaskTimeout.Wait] it can be
// consumed any number of times.
func (t *TaskTimeout) Done() <-chan struct{} {
	if t == nil {
		return nil
	}
	return t.done
}

// State returns the current timeout state.
func (t *TaskTimeout) State() State {
	if t == nil {
		return ""
	}
	return t.lc.state()
}

// Remaining returns the sum of the queued segments. The segment currently
// being waited on by the worker is not included.
func (t *TaskTimeout) Remaining() time.Duration {
	if t == nil {
		return 0
	}
	total, _ := t.queue.Remaining()
	return total
}

// LogValue implements [slog.LogValuer].
func (t *TaskTimeout) LogValue() slog.Value {
	if t == nil {
		return slog.Value{}
	}
	return slog.GroupValue(
		slog.Any("state", t.State()),
		slog.Any("remaining", t.Remaining()),
	)
}
