package dyntimeout

import (
	"context"
	"log/slog"

	"github.com/qmuntal/stateless"
)

// State represents the current state of a timeout.
type State string

const (
	// StatePending indicates the worker has not started consuming segments yet.
	StatePending State = "pending"
	// StateDraining indicates the worker is consuming the segment queue.
	StateDraining State = "draining"
	// StateFired indicates the queue emptied without cancellation and the
	// completion action ran.
	StateFired State = "fired"
	// StateCancelled indicates the timeout was cancelled before firing; the
	// completion action never ran.
	StateCancelled State = "cancelled"
)

// Terminal reports whether the state is final.
func (s State) Terminal() bool {
	return s == StateFired || s == StateCancelled
}

func (s State) String() string { return string(s) }

const (
	evtDrain  = "drain"
	evtFire   = "fire"
	evtCancel = "cancel"
)

// lifecycle tracks a worker's progress through the timeout state machine:
//
//	Pending -> Draining (per consumed segment) -> Fired | Cancelled
//
// Only the worker goroutine fires events; owners observe via State.
type lifecycle struct {
	fsm *stateless.StateMachine
}

func newLifecycle(logger *slog.Logger) *lifecycle {
	fsm := stateless.NewStateMachine(StatePending)

	fsm.Configure(StatePending).
		Permit(evtDrain, StateDraining).
		Permit(evtFire, StateFired).
		Permit(evtCancel, StateCancelled)

	fsm.Configure(StateDraining).
		PermitReentry(evtDrain).
		Permit(evtFire, StateFired).
		Permit(evtCancel, StateCancelled)

	fsm.OnTransitioned(func(_ context.Context, tr stateless.Transition) {
		logger.Debug("timeout state changed",
			slog.Any("from", tr.Source),
			slog.Any("to", tr.Destination),
			slog.Any("event", tr.Trigger),
		)
	})

	return &lifecycle{fsm: fsm}
}

func (lc *lifecycle) state() State {
	return lc.fsm.MustState().(State) //nolint:forcetypeassert
}

func (lc *lifecycle) drain() error { return lc.fsm.Fire(evtDrain) }

func (lc *lifecycle) fire() error { return lc.fsm.Fire(evtFire) }

func (lc *lifecycle) cancel() error { return lc.fsm.Fire(evtCancel) }
