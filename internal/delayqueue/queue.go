// Package delayqueue implements the segment queue backing a dynamic timeout.
//
// A Queue is an ordered, lock-protected sequence of wait durations. The total
// remaining delay of a timeout is the sum of all segments currently queued.
// The worker consumes segments from the end, one at a time; the owner extends
// the queue by pushing new segments and shrinks it by popping segments back.
// The queue is seeded with a zero-length anchor segment that [Queue.Reduce]
// never removes, so shrinking cannot empty the queue: only consumption or
// [Queue.Clear] can, and an empty queue is the terminal signal.
package delayqueue

import (
	"sync"
	"time"
)

// Queue is a thread-safe stack of delay segments.
// All operations are atomic with respect to each other; the lock is held
// only for the duration of the operation, never across a wait.
type Queue struct {
	mu   sync.Mutex
	segs []time.Duration
}

// New creates a queue seeded with a zero-length anchor segment
// followed by the initial delay.
func New(initial time.Duration) *Queue {
	return &Queue{segs: []time.Duration{0, initial}}
}

// PopLast removes and returns the segment from the end of the queue.
// The second return value is false when the queue is empty.
func (q *Queue) PopLast() (time.Duration, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.segs) == 0 {
		return 0, false
	}

	lastIdx := len(q.segs) - 1
	seg := q.segs[lastIdx]
	q.segs = q.segs[:lastIdx]
	return seg, true
}

// Extend appends the segment to the end of the queue, increasing the total
// remaining delay by exactly d. It reports false when the queue is already
// empty: the timeout has fired or was cancelled and must not be extended.
func (q *Queue) Extend(d time.Duration) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.segs) == 0 {
		return false
	}

	q.segs = append(q.segs, d)
	return true
}

// Reduce shrinks the total remaining delay by up to d. Segments are popped
// from the end until at least d worth has been removed or only the anchor
// segment remains; any excess popped beyond d is pushed back as a new
// segment, so the reduction is exact up to the granularity of the segments
// present. It reports false when the queue is already empty.
func (q *Queue) Reduce(d time.Duration) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.segs) == 0 {
		return false
	}

	var popped time.Duration
	for popped < d && len(q.segs) > 1 {
		lastIdx := len(q.segs) - 1
		popped += q.segs[lastIdx]
		q.segs = q.segs[:lastIdx]
	}
	if popped > d {
		q.segs = append(q.segs, popped-d)
	}
	return true
}

// Clear removes all segments, forcing the consumer's drain loop to
// terminate on its next step.
func (q *Queue) Clear() {
	q.mu.Lock()
	q.segs = q.segs[:0]
	q.mu.Unlock()
}

// Len returns the current number of segments.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.segs)
}

// Remaining returns the sum of all queued segments. The second return value
// is false when the queue is empty.
func (q *Queue) Remaining() (time.Duration, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var total time.Duration
	for _, seg := range q.segs {
		total += seg
	}
	return total, len(q.segs) > 0
}

// Snapshot returns a copy of the queued segments in insertion order.
func (q *Queue) Snapshot() []time.Duration {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.segs) == 0 {
		return nil
	}
	out := make([]time.Duration, len(q.segs))
	copy(out, q.segs)
	return out
}
