/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package scheduler

import (
	"reflect"
	"testing"
	"time"
)

func TestQueueOrdersByDueTimeThenInsertion(t *testing.T) {
	q := NewQueue()
	base := time.Date(2026, 3, 7, 8, 0, 0, 0, time.UTC)
	var got []string
	record := func(name string) func(time.Time) {
		return func(time.Time) { got = append(got, name) }
	}

	q.At(base.Add(2*time.Second), "c", record("c"))
	q.At(base.Add(time.Second), "a", record("a"))
	q.At(base.Add(time.Second), "b", record("b"))
	q.At(base.Add(3*time.Second), "d", record("d"))

	if next, ok := q.Next(); !ok || !next.Equal(base.Add(time.Second)) {
		t.Fatalf("Next = %v, %v", next, ok)
	}

	if n := q.RunDue(base.Add(2 * time.Second)); n != 3 {
		t.Fatalf("ran %d, want 3", n)
	}
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
	if q.Len() != 1 {
		t.Fatalf("pending = %d, want 1", q.Len())
	}
}

func TestQueueRunsEventsScheduledByCallbacks(t *testing.T) {
	q := NewQueue()
	base := time.Date(2026, 3, 7, 8, 0, 0, 0, time.UTC)
	var got []string

	q.At(base, "first", func(at time.Time) {
		got = append(got, "first")
		q.At(at, "chained", func(time.Time) { got = append(got, "chained") })
		q.At(at.Add(time.Minute), "later", func(time.Time) { got = append(got, "later") })
	})

	q.RunDue(base)
	if want := []string{"first", "chained"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("ran %v, want %v", got, want)
	}
	if _, ok := q.PopDue(base); ok {
		t.Fatal("nothing else should be due")
	}
}

func TestQueuePassesDueTime(t *testing.T) {
	q := NewQueue()
	due := time.Date(2026, 3, 7, 8, 0, 2, 0, time.UTC)
	var seen time.Time
	q.At(due, "x", func(at time.Time) { seen = at })

	q.RunDue(due.Add(10 * time.Second))
	if !seen.Equal(due) {
		t.Fatalf("callback got %v, want %v", seen, due)
	}
	if _, ok := q.Next(); ok {
		t.Fatal("queue should be empty")
	}
}
