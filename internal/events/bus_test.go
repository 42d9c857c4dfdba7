/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package events

import (
	"testing"

	"github.com/friendsincode/lessonboard/internal/render"
)

func TestSnapshotKeepsLatestPerKey(t *testing.T) {
	b := NewBus()
	b.Emit(render.SetHour(render.LayoutSlideshow, "08"))
	b.Emit(render.SetHour(render.LayoutTimeOnly, "08"))
	b.Emit(render.SetLessonTitle("MATH"))
	b.Emit(render.SetHour(render.LayoutSlideshow, "09"))

	snap := b.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("snapshot = %+v, want 3 entries", snap)
	}
	last := snap[len(snap)-1]
	if last.Kind != render.KindSetHour || last.Layout != render.LayoutSlideshow || last.Text != "09" || last.Seq != 4 {
		t.Fatalf("last = %+v", last)
	}
	for i := 1; i < len(snap); i++ {
		if snap[i-1].Seq >= snap[i].Seq {
			t.Fatalf("snapshot out of order: %+v", snap)
		}
	}
}

func TestSubscribeReplaysAndStreams(t *testing.T) {
	b := NewBus()
	b.Emit(render.SetBackgroundDim(true))

	sub, replay := b.Subscribe()
	if sub.ID == "" {
		t.Fatal("subscriber should get an ID")
	}
	if len(replay) != 1 || replay[0].Kind != render.KindSetBackgroundDim {
		t.Fatalf("replay = %+v", replay)
	}

	b.Emit(render.SetLessonTitle("BIO"))
	got := <-sub.C
	if got.Text != "BIO" || got.Seq != 2 {
		t.Fatalf("streamed = %+v", got)
	}

	b.Unsubscribe(sub)
	if _, ok := <-sub.C; ok {
		t.Fatal("channel should be closed")
	}
	b.Unsubscribe(sub)
	if b.Subscribers() != 0 {
		t.Fatalf("subscribers = %d", b.Subscribers())
	}
}

func TestSlowSubscriberIsEvicted(t *testing.T) {
	b := NewBus()
	slow, _ := b.Subscribe()
	fast, _ := b.Subscribe()
	defer b.Unsubscribe(fast)

	for i := 0; i < subscriberBuffer; i++ {
		b.Emit(render.SetHour(render.LayoutSlideshow, "08"))
		<-fast.C
	}
	// The slow buffer is full; the next one-shot command must not be lost silently.
	b.Emit(render.EnterTimeOnlyLayout())

	if b.Dropped() != 1 {
		t.Fatalf("dropped = %d, want 1", b.Dropped())
	}
	if b.Subscribers() != 1 {
		t.Fatalf("subscribers = %d, want only the fast one", b.Subscribers())
	}
	if got := <-fast.C; got.Kind != render.KindEnterTimeOnlyLayout {
		t.Fatalf("fast subscriber got %+v", got)
	}

	n := 0
	for range slow.C {
		n++
	}
	if n != subscriberBuffer {
		t.Fatalf("slow subscriber drained %d buffered commands, want %d", n, subscriberBuffer)
	}

	// Eviction already closed the channel; Unsubscribe stays safe.
	b.Unsubscribe(slow)

	sub, replay := b.Subscribe()
	defer b.Unsubscribe(sub)
	if last := replay[len(replay)-1]; last.Kind != render.KindEnterTimeOnlyLayout {
		t.Fatalf("replay for a reconnecting renderer ends with %+v", last)
	}
}
