/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package scheduler

import (
	"container/heap"
	"time"
)

// Event is a delayed completion waiting in the queue.
type Event struct {
	At   time.Time
	Name string
	seq  uint64
	fn   func(at time.Time)
}

// Run invokes the event callback with its due time.
func (e Event) Run() {
	e.fn(e.At)
}

// Queue orders delayed completions by due time, then by insertion. It implements display.Timers.
// Not safe for concurrent use; the scheduler goroutine owns it.
type Queue struct {
	events eventHeap
	seq    uint64
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// At schedules fn to run once the queue is drained at or after at.
func (q *Queue) At(at time.Time, name string, fn func(at time.Time)) {
	q.seq++
	heap.Push(&q.events, Event{At: at, Name: name, seq: q.seq, fn: fn})
}

// Len returns the number of pending events.
func (q *Queue) Len() int {
	return q.events.Len()
}

// Next returns the due time of the earliest pending event.
func (q *Queue) Next() (time.Time, bool) {
	if q.events.Len() == 0 {
		return time.Time{}, false
	}
	return q.events[0].At, true
}

// PopDue removes and returns the earliest event due at or before now.
func (q *Queue) PopDue(now time.Time) (Event, bool) {
	if q.events.Len() == 0 || q.events[0].At.After(now) {
		return Event{}, false
	}
	return heap.Pop(&q.events).(Event), true
}

// RunDue runs every event due at or before now, including ones scheduled by earlier callbacks,
// and returns how many ran.
func (q *Queue) RunDue(now time.Time) int {
	n := 0
	for {
		ev, ok := q.PopDue(now)
		if !ok {
			return n
		}
		ev.Run()
		n++
	}
}

type eventHeap []Event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].At.Equal(h[j].At) {
		return h[i].seq < h[j].seq
	}
	return h[i].At.Before(h[j].At)
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) { *h = append(*h, x.(Event)) }

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	ev := old[n-1]
	old[n-1] = Event{}
	*h = old[:n-1]
	return ev
}
