/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package deck

import (
	"fmt"
	"testing"
	"time"
)

func refs(n int) []SlideRef {
	out := make([]SlideRef, n)
	for i := range out {
		out[i] = SlideRef{Order: i + 1, URL: fmt.Sprintf("/slides/slide%d.png", i+1)}
	}
	return out
}

func TestLoadResetsCursor(t *testing.T) {
	d := New()
	if d.Loaded() {
		t.Fatal("new deck should not be loaded")
	}
	d.Load(refs(3))
	d.Tick(30*time.Second, 30*time.Second)
	d.Tick(10*time.Second, 30*time.Second)

	d.Load(refs(2))
	if d.Index() != 0 || d.Elapsed() != 0 {
		t.Fatalf("after reload index=%d elapsed=%v, want 0/0", d.Index(), d.Elapsed())
	}
	if !d.Loaded() || d.Len() != 2 {
		t.Fatalf("loaded=%v len=%d", d.Loaded(), d.Len())
	}
}

func TestTickAdvancesOncePerInterval(t *testing.T) {
	interval := 30 * time.Second
	d := New()
	d.Load(refs(4))

	changes := 0
	for i := 0; i < 60; i++ {
		if _, ok := d.Tick(500*time.Millisecond, interval); ok {
			changes++
		}
	}
	if changes != 1 {
		t.Fatalf("changes = %d, want 1", changes)
	}
	if d.Index() != 1 {
		t.Fatalf("index = %d, want 1", d.Index())
	}
	if d.Elapsed() != 0 {
		t.Fatalf("elapsed = %v, want 0 after advance", d.Elapsed())
	}
}

func TestTickCatchUpAdvancesSingleStep(t *testing.T) {
	interval := 30 * time.Second
	d := New()
	d.Load(refs(4))

	ref, ok := d.Tick(10*interval, interval)
	if !ok {
		t.Fatal("expected slide change")
	}
	if d.Index() != 1 || ref.Order != 2 {
		t.Fatalf("index=%d ref=%+v, want index 1 / order 2", d.Index(), ref)
	}
	if d.Elapsed() != 0 {
		t.Fatalf("elapsed = %v, want 0", d.Elapsed())
	}
}

func TestTickWraps(t *testing.T) {
	interval := time.Second
	d := New()
	d.Load(refs(3))
	d.Tick(interval, interval)
	d.Tick(interval, interval)
	if d.Index() != 2 {
		t.Fatalf("index = %d, want 2", d.Index())
	}

	ref, ok := d.Tick(interval, interval)
	if !ok || d.Index() != 0 || ref.Order != 1 {
		t.Fatalf("wrap: ok=%v index=%d ref=%+v", ok, d.Index(), ref)
	}
}

func TestEmptyDeckIsNoop(t *testing.T) {
	d := New()
	d.Load(nil)
	if !d.Loaded() || !d.Empty() {
		t.Fatalf("loaded=%v empty=%v, want loaded empty deck", d.Loaded(), d.Empty())
	}
	if _, ok := d.Tick(time.Hour, time.Second); ok {
		t.Fatal("empty deck must not report a change")
	}
	if d.Elapsed() != 0 {
		t.Fatalf("empty deck accumulated %v", d.Elapsed())
	}
	if _, ok := d.Current(); ok {
		t.Fatal("empty deck has no current slide")
	}
}

func TestLoadCopiesInput(t *testing.T) {
	in := refs(2)
	d := New()
	d.Load(in)
	in[0].URL = "mutated"
	cur, _ := d.Current()
	if cur.URL == "mutated" {
		t.Fatal("deck must not alias caller slice")
	}
}
