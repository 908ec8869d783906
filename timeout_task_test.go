package dyntimeout_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/ghettovoice/dyntimeout"
	"github.com/ghettovoice/dyntimeout/internal/mocks"
)

func TestTaskTimeout_Fire(t *testing.T) {
	t.Parallel()

	var fired atomic.Int32
	start := time.Now()

	to, err := dyntimeout.NewTask(twenty, func() {
		fired.Add(1)
	}, nil)
	if err != nil {
		t.Fatalf("dyntimeout.NewTask() error = %v, want nil", err)
	}

	if err := to.Wait(t.Context()); err != nil {
		t.Fatalf("to.Wait() error = %v, want nil", err)
	}

	elapsed := time.Since(start)
	if elapsed < twenty {
		t.Errorf("fired after %v, want >= %v", elapsed, twenty)
	}
	if elapsed > 250*time.Millisecond {
		t.Errorf("fired after %v, want well under 250ms", elapsed)
	}
	if got := fired.Load(); got != 1 {
		t.Errorf("callback invoked %d times, want 1", got)
	}
	if got, want := to.State(), dyntimeout.StateFired; got != want {
		t.Errorf("to.State() = %q, want %q", got, want)
	}
}

func TestTaskTimeout_AddSub(t *testing.T) {
	t.Parallel()

	var fired atomic.Int32
	start := time.Now()

	to, err := dyntimeout.NewTask(twenty, func() {
		fired.Add(1)
	}, nil)
	if err != nil {
		t.Fatalf("dyntimeout.NewTask() error = %v, want nil", err)
	}
	if err := to.Add(twenty); err != nil {
		t.Fatalf("to.Add() error = %v, want nil", err)
	}
	if err := to.Add(500 * time.Millisecond); err != nil {
		t.Fatalf("to.Add() error = %v, want nil", err)
	}
	if err := to.Sub(500 * time.Millisecond); err != nil {
		t.Fatalf("to.Sub() error = %v, want nil", err)
	}

	if err := to.Wait(t.Context()); err != nil {
		t.Fatalf("to.Wait() error = %v, want nil", err)
	}

	elapsed := time.Since(start)
	if elapsed < 2*twenty {
		t.Errorf("fired after %v, want >= %v", elapsed, 2*twenty)
	}
	if elapsed > 400*time.Millisecond {
		t.Errorf("fired after %v, want the added 500ms to be shrunk away", elapsed)
	}
	if got := fired.Load(); got != 1 {
		t.Errorf("callback invoked %d times, want 1", got)
	}
}

func TestTaskTimeout_FastCancel(t *testing.T) {
	t.Parallel()

	var fired atomic.Int32

	to, err := dyntimeout.NewTask(20*time.Second, func() {
		fired.Add(1)
	}, nil)
	if err != nil {
		t.Fatalf("dyntimeout.NewTask() error = %v, want nil", err)
	}

	// Let the worker settle into the 20s wait.
	time.Sleep(20 * time.Millisecond)

	start := time.Now()
	if err := to.Cancel(); err != nil {
		t.Fatalf("to.Cancel() error = %v, want nil", err)
	}
	cancelTook := time.Since(start)

	// The wait in progress is preempted by the interruption signal instead
	// of expiring naturally.
	if cancelTook > time.Second {
		t.Errorf("to.Cancel() returned after %v, want near-immediate", cancelTook)
	}
	if got := fired.Load(); got != 0 {
		t.Errorf("callback invoked %d times after cancel, want 0", got)
	}
	if got, want := to.State(), dyntimeout.StateCancelled; got != want {
		t.Errorf("to.State() = %q, want %q", got, want)
	}
}

func TestTaskTimeout_WaitAfterCancel(t *testing.T) {
	t.Parallel()

	to, err := dyntimeout.NewTask(20*time.Second, func() {}, nil)
	if err != nil {
		t.Fatalf("dyntimeout.NewTask() error = %v, want nil", err)
	}
	if err := to.Cancel(); err != nil {
		t.Fatalf("to.Cancel() error = %v, want nil", err)
	}

	// Wait does not distinguish fired from cancelled: it resolves on any
	// terminal state.
	if err := to.Wait(t.Context()); err != nil {
		t.Fatalf("to.Wait() after cancel error = %v, want nil", err)
	}
}

func TestTaskTimeout_WaitConsumedOnSecondCall(t *testing.T) {
	t.Parallel()

	to, err := dyntimeout.NewTask(10*time.Millisecond, func() {}, nil)
	if err != nil {
		t.Fatalf("dyntimeout.NewTask() error = %v, want nil", err)
	}

	if err := to.Wait(t.Context()); err != nil {
		t.Fatalf("to.Wait() error = %v, want nil", err)
	}
	if err := to.Wait(t.Context()); !errors.Is(err, dyntimeout.ErrCompletionConsumed) {
		t.Fatalf("second to.Wait() error = %v, want %v", err, dyntimeout.ErrCompletionConsumed)
	}
}

func TestTaskTimeout_WaitContextCancelled(t *testing.T) {
	t.Parallel()

	to, err := dyntimeout.NewTask(20*time.Second, func() {}, nil)
	if err != nil {
		t.Fatalf("dyntimeout.NewTask() error = %v, want nil", err)
	}
	defer to.Cancel() //nolint:errcheck

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()

	if err := to.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("to.Wait() error = %v, want %v", err, context.DeadlineExceeded)
	}
}

func TestTaskTimeout_CancelAfterFire(t *testing.T) {
	t.Parallel()

	var fired atomic.Int32

	to, err := dyntimeout.NewTask(10*time.Millisecond, func() {
		fired.Add(1)
	}, nil)
	if err != nil {
		t.Fatalf("dyntimeout.NewTask() error = %v, want nil", err)
	}

	<-to.Done()

	if err := to.Cancel(); err != nil {
		t.Fatalf("to.Cancel() after fire error = %v, want nil", err)
	}
	if got := fired.Load(); got != 1 {
		t.Errorf("callback invoked %d times, want 1", got)
	}
	if got, want := to.State(), dyntimeout.StateFired; got != want {
		t.Errorf("to.State() = %q, want %q", got, want)
	}
}

func TestTaskTimeout_AddSubAfterFire(t *testing.T) {
	t.Parallel()

	to, err := dyntimeout.NewTask(10*time.Millisecond, func() {}, nil)
	if err != nil {
		t.Fatalf("dyntimeout.NewTask() error = %v, want nil", err)
	}

	<-to.Done()

	if err := to.Add(twenty); !errors.Is(err, dyntimeout.ErrTimeoutReached) {
		t.Errorf("to.Add() after fire error = %v, want %v", err, dyntimeout.ErrTimeoutReached)
	}
	if err := to.Sub(twenty); !errors.Is(err, dyntimeout.ErrTimeoutReached) {
		t.Errorf("to.Sub() after fire error = %v, want %v", err, dyntimeout.ErrTimeoutReached)
	}
}

func TestTaskTimeout_WithSender(t *testing.T) {
	t.Parallel()

	fired := make(chan time.Time, 1)
	start := time.Now()

	to, err := dyntimeout.NewTaskWithSender(twenty, fired, nil)
	if err != nil {
		t.Fatalf("dyntimeout.NewTaskWithSender() error = %v, want nil", err)
	}

	select {
	case at := <-fired:
		if since := at.Sub(start); since < twenty {
			t.Errorf("fire time after %v, want >= %v", since, twenty)
		}
	case <-time.After(time.Second):
		t.Fatal("no fire notification within 1s")
	}

	if err := to.Wait(t.Context()); err != nil {
		t.Fatalf("to.Wait() error = %v, want nil", err)
	}
}

func TestTaskTimeout_WithCompletion(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	c := mocks.NewMockCompletion(ctrl)
	c.EXPECT().Complete().Times(1)

	to, err := dyntimeout.NewTaskWithCompletion(10*time.Millisecond, c, nil)
	if err != nil {
		t.Fatalf("dyntimeout.NewTaskWithCompletion() error = %v, want nil", err)
	}
	if err := to.Wait(t.Context()); err != nil {
		t.Fatalf("to.Wait() error = %v, want nil", err)
	}
}

func TestTaskTimeout_CompletionPanic(t *testing.T) {
	t.Parallel()

	to, err := dyntimeout.NewTask(10*time.Millisecond, func() {
		panic("completion blew up")
	}, nil)
	if err != nil {
		t.Fatalf("dyntimeout.NewTask() error = %v, want nil", err)
	}

	if err := to.Wait(t.Context()); !errors.Is(err, dyntimeout.ErrCompletionPanicked) {
		t.Fatalf("to.Wait() error = %v, want %v", err, dyntimeout.ErrCompletionPanicked)
	}
	if err := to.Cancel(); !errors.Is(err, dyntimeout.ErrCompletionPanicked) {
		t.Fatalf("to.Cancel() error = %v, want %v", err, dyntimeout.ErrCompletionPanicked)
	}
}

func TestTaskTimeout_InvalidArguments(t *testing.T) {
	t.Parallel()

	if _, err := dyntimeout.NewTask(-time.Second, func() {}, nil); !errors.Is(err, dyntimeout.ErrInvalidArgument) {
		t.Errorf("dyntimeout.NewTask(-1s) error = %v, want %v", err, dyntimeout.ErrInvalidArgument)
	}
	if _, err := dyntimeout.NewTask(time.Second, nil, nil); !errors.Is(err, dyntimeout.ErrInvalidArgument) {
		t.Errorf("dyntimeout.NewTask(nil callback) error = %v, want %v", err, dyntimeout.ErrInvalidArgument)
	}
	if _, err := dyntimeout.NewTaskWithSender(time.Second, nil, nil); !errors.Is(err, dyntimeout.ErrInvalidArgument) {
		t.Errorf("dyntimeout.NewTaskWithSender(nil channel) error = %v, want %v", err, dyntimeout.ErrInvalidArgument)
	}
	if _, err := dyntimeout.NewTaskWithCompletion(time.Second, nil, nil); !errors.Is(err, dyntimeout.ErrInvalidArgument) {
		t.Errorf("dyntimeout.NewTaskWithCompletion(nil completion) error = %v, want %v", err, dyntimeout.ErrInvalidArgument)
	}
}
