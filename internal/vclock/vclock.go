// Package vclock implements the simulator's clock and event queue.
//
// A timestamp is the integer day*1440 + minute. Events carry a kind and a
// payload and are ordered by timestamp in a min-heap; ties are broken by
// insertion order so that two runs processing the same events in the same
// order always drain them identically (spec.md §4.1 determinism
// requirement).
package vclock

import (
	"container/heap"

	"vendsim/pkg/types"
)

// MinutesPerDay is the length of a simulated day.
const MinutesPerDay = 1440

// Timestamp is day*MinutesPerDay + minute, monotonically increasing.
type Timestamp int64

// At builds a Timestamp from a day and a minute-of-day.
func At(day int, minute int) Timestamp {
	return Timestamp(int64(day)*MinutesPerDay + int64(minute))
}

// Clock tracks the current simulated time.
type Clock struct {
	Day           int
	Minute        int
	TotalMinutes  int64
	MessageCount  int
}

// Now returns the clock's current Timestamp.
func (c *Clock) Now() Timestamp {
	return At(c.Day, c.Minute)
}

// Advance moves the clock forward by delta minutes, renormalizing
// minute-of-day into [0, MinutesPerDay) with day carry (invariant 5).
func (c *Clock) Advance(delta int) {
	c.Minute += delta
	c.TotalMinutes += int64(delta)
	for c.Minute >= MinutesPerDay {
		c.Minute -= MinutesPerDay
		c.Day++
	}
}

// AdvanceToNextMorning resets the clock to minute 0 of the next day,
// recomputing TotalMinutes from day*MinutesPerDay (used by end-of-day).
func (c *Clock) AdvanceToNextMorning() {
	c.Day++
	c.Minute = 0
	c.TotalMinutes = int64(c.Day) * MinutesPerDay
}

// Event is a scheduled occurrence in the world: a delivery landing, or (for
// extensibility) a queued daily fee charge.
type Event struct {
	Timestamp Timestamp
	Kind      types.EventKind
	Payload   any

	seq int // insertion sequence, breaks timestamp ties deterministically
}

// DeliveryPayload is the payload carried by an EventDelivery event.
type DeliveryPayload struct {
	OrderID    string
	SupplierID string
}

// DailyFeePayload is the payload carried by an EventDailyFee event. The
// reference simulator charges the daily fee inline in the end-of-day
// engine rather than scheduling it; this kind exists for implementers that
// prefer an explicit queued event (spec.md §4.1).
type DailyFeePayload struct {
	Amount float64
}

// eventHeap is the container/heap.Interface backing Queue.
type eventHeap []*Event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].Timestamp != h[j].Timestamp {
		return h[i].Timestamp < h[j].Timestamp
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(*Event))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// Queue is a min-heap of scheduled Events ordered by Timestamp, with
// insertion-order tiebreaking.
type Queue struct {
	heap eventHeap
	next int
}

// NewQueue returns an empty event queue.
func NewQueue() *Queue {
	q := &Queue{}
	heap.Init(&q.heap)
	return q
}

// Push schedules an event. Timestamp must already be set on ev.
func (q *Queue) Push(ev Event) {
	ev.seq = q.next
	q.next++
	heap.Push(&q.heap, &ev)
}

// Len returns the number of pending events.
func (q *Queue) Len() int {
	return q.heap.Len()
}

// Peek returns the earliest pending event without removing it.
func (q *Queue) Peek() (Event, bool) {
	if len(q.heap) == 0 {
		return Event{}, false
	}
	return *q.heap[0], true
}

// Pop removes and returns the earliest pending event.
func (q *Queue) Pop() (Event, bool) {
	if len(q.heap) == 0 {
		return Event{}, false
	}
	ev := heap.Pop(&q.heap).(*Event)
	return *ev, true
}

// DrainUntil removes and returns every event with Timestamp <= ts, in
// timestamp then insertion order.
func (q *Queue) DrainUntil(ts Timestamp) []Event {
	var out []Event
	for len(q.heap) > 0 && q.heap[0].Timestamp <= ts {
		ev := heap.Pop(&q.heap).(*Event)
		out = append(out, *ev)
	}
	return out
}
