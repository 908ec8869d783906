package dyntimeout

import (
	"log/slog"
	"sync/atomic"
	"time"

	"braces.dev/errtrace"

	"github.com/ghettovoice/dyntimeout/internal/delayqueue"
)

// Timeout is a dynamic timeout whose worker runs on a dedicated goroutine
// and sleeps each segment with an uninterruptible [time.Sleep].
//
// Because a sleep in progress cannot be woken, [Timeout.Cancel] still
// dismisses the completion action at any point before firing, but it returns
// only once the in-progress segment has been slept out: cancellation is
// deferred until the end of the current segment. Use [TaskTimeout] when fast
// cancellation matters.
//
// A Timeout must be released with [Timeout.Close] or [Timeout.Cancel] so the
// worker goroutine does not outlive the handle.
type Timeout struct {
	queue     *delayqueue.Queue
	cancelled atomic.Bool
	// done is closed by the worker as its last act; panicErr is written
	// before that, so readers that have observed done may read it directly.
	done     chan struct{}
	panicErr error
	lc       *lifecycle
	log      *slog.Logger
}

// New creates a dynamic timeout that invokes the callback on a dedicated
// worker goroutine after the given delay, unless cancelled first.
// It returns without blocking on completion; the worker starts consuming the
// segment queue immediately.
func New(delay time.Duration, callback func(), opts *Options) (*Timeout, error) {
	if callback == nil {
		return nil, errtrace.Wrap(NewInvalidArgumentError("nil callback"))
	}
	return errtrace.Wrap2(NewWithCompletion(delay, CompletionFunc(callback), opts))
}

// NewWithSender creates a dynamic timeout that notifies the channel with the
// fire time instead of invoking a callback. See [SenderCompletion].
func NewWithSender(delay time.Duration, ch chan<- time.Time, opts *Options) (*Timeout, error) {
	if ch == nil {
		return nil, errtrace.Wrap(NewInvalidArgumentError("nil channel"))
	}
	return errtrace.Wrap2(NewWithCompletion(delay, SenderCompletion(ch), opts))
}

// NewWithCompletion creates a dynamic timeout with an arbitrary completion
// action. See [New] for the lifecycle description.
func NewWithCompletion(delay time.Duration, c Completion, opts *Options) (*Timeout, error) {
	if delay < 0 {
		return nil, errtrace.Wrap(NewInvalidArgumentError("negative delay %v", delay))
	}
	if c == nil {
		return nil, errtrace.Wrap(NewInvalidArgumentError("nil completion"))
	}

	t := &Timeout{
		queue: delayqueue.New(delay),
		done:  make(chan struct{}),
		log:   opts.log(),
	}
	t.lc = newLifecycle(t.log)
	go t.drain(c)
	return t, nil
}

// drain consumes the segment queue to exhaustion, then fires or dismisses
// the completion action depending on the cancellation flag.
func (t *Timeout) drain(c Completion) {
	defer close(t.done)

	for {
		seg, ok := t.queue.PopLast()
		if !ok {
			break
		}
		if err := t.lc.drain(); err != nil {
			t.log.Error("timeout drain transition failed", slog.Any("error", err))
		}
		time.Sleep(seg)
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

// runCompletion invokes the completion action, converting a panic into an
// [ErrCompletionPanicked] error instead of tearing down the worker goroutine.
func runCompletion(c Completion) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = newCompletionPanicError(v)
		}
	}()
	c.Complete()
	return nil
}

// Add increases the remaining delay before the timeout by appending a new
// segment to the queue. The extension becomes visible to the worker on its
// next consumption step. It is safe to call concurrently with the worker and
// with other Add, Sub and Cancel calls.
//
// It fails with [ErrTimeoutReached] when the timeout already fired or was
// cancelled.
func (t *Timeout) Add(delay time.Duration) error {
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
// sleeping on cannot be shrunk, and the queue's anchor segment is never
// removed, so Sub cannot make the timeout fire early on its own.
//
// It fails with [ErrTimeoutReached] when the timeout already fired or was
// cancelled.
func (t *Timeout) Sub(delay time.Duration) error {
	if delay < 0 {
		return errtrace.Wrap(NewInvalidArgumentError("negative delay %v", delay))
	}
	if !t.queue.Reduce(delay) {
		return errtrace.Wrap(ErrTimeoutReached)
	}
	return nil
}

// Cancel dismisses the completion action and clears all remaining segments,
// then waits for the worker goroutine to terminate. Cancelling an already
// terminal timeout just waits for the worker, which is a no-op by then.
//
// The worker's in-progress sleep cannot be interrupted: Cancel returns only
// after the current segment has been slept out.
//
// It surfaces [ErrCompletionPanicked] when the completion action panicked.
func (t *Timeout) Cancel() error {
	t.cancelled.Store(true)
	t.queue.Clear()
	return errtrace.Wrap(t.Close())
}

// Close waits for the worker goroutine to terminate without dismissing the
// completion action. It is idempotent and returns immediately when the
// worker has already terminated.
//
// It surfaces [ErrCompletionPanicked] when the completion action panicked.
func (t *Timeout) Close() error {
	<-t.done
	return errtrace.Wrap(t.panicErr)
}

// Done returns a channel that is closed when the timeout reaches a terminal
// state, whether fired or cancelled.
func (t *Timeout) Done() <-chan struct{} {
	if t == nil {
		return nil
	}
	return t.done
}

// State returns the current timeout state.
func (t *Timeout) State() State {
	if t == nil {
		return ""
	}
	return t.lc.state()
}

// Remaining returns the sum of the queued segments. The segment currently
// being slept on by the worker is not included.
func (t *Timeout) Remaining() time.Duration {
	if t == nil {
		return 0
	}
	total, _ := t.queue.Remaining()
	return total
}

// LogValue implements [slog.LogValuer].
func (t *Timeout) LogValue() slog.Value {
	if t == nil {
		return slog.Value{}
	}
	return slog.GroupValue(
		slog.Any("state", t.State()),
		slog.Any("remaining", t.Remaining()),
	)
}
