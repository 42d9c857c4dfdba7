/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package deck holds the ordered slide list and its rotation cursor.
package deck

import "time"

// SlideRef identifies a slide image. Order is the 1-based discovery index.
type SlideRef struct {
	Order int    `json:"order"`
	URL   string `json:"url"`
}

// Deck is the rotation state. It performs no I/O and is not safe for concurrent use;
// the scheduler loop is its only writer.
type Deck struct {
	slides  []SlideRef
	current int
	elapsed time.Duration
	loaded  bool
}

// New creates an unloaded deck.
func New() *Deck {
	return &Deck{}
}

// Load replaces the slides wholesale and rewinds the cursor.
func (d *Deck) Load(refs []SlideRef) {
	d.slides = append([]SlideRef(nil), refs...)
	d.current = 0
	d.elapsed = 0
	d.loaded = true
}

// Loaded reports whether Load has been called.
func (d *Deck) Loaded() bool { return d.loaded }

// Empty reports whether the deck holds no slides.
func (d *Deck) Empty() bool { return len(d.slides) == 0 }

// Len returns the number of slides.
func (d *Deck) Len() int { return len(d.slides) }

// Index returns the current cursor position.
func (d *Deck) Index() int { return d.current }

// Elapsed returns how long the current slide has been shown.
func (d *Deck) Elapsed() time.Duration { return d.elapsed }

// Slides returns a copy of the slide list.
func (d *Deck) Slides() []SlideRef {
	return append([]SlideRef(nil), d.slides...)
}

// Current returns the slide under the cursor.
func (d *Deck) Current() (SlideRef, bool) {
	if len(d.slides) == 0 {
		return SlideRef{}, false
	}
	return d.slides[d.current], true
}

// Tick adds elapsed dwell time. When the dwell reaches interval the cursor advances by
// exactly one slide, wrapping at the end, and the new slide is returned with true.
// A backlog of several intervals still advances a single step.
func (d *Deck) Tick(elapsed, interval time.Duration) (SlideRef, bool) {
	if len(d.slides) == 0 {
		return SlideRef{}, false
	}
	if elapsed > 0 {
		d.elapsed += elapsed
	}
	if d.elapsed < interval {
		return SlideRef{}, false
	}
	d.current = (d.current + 1) % len(d.slides)
	d.elapsed = 0
	return d.slides[d.current], true
}
