/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package scheduler

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/lessonboard/internal/deck"
	"github.com/friendsincode/lessonboard/internal/display"
	"github.com/friendsincode/lessonboard/internal/render"
)

// Timings are the delays used by the display state machine.
type Timings struct {
	Entry time.Duration
	Exit  time.Duration
	Fade  time.Duration
}

// DefaultTimings returns the stock transition delays.
func DefaultTimings() Timings {
	return Timings{
		Entry: display.DefaultEntryDelay,
		Exit:  display.DefaultExitDelay,
		Fade:  display.DefaultFadeDelay,
	}
}

// State is everything the loop mutates. It is created by the entry point and handed to every
// tick; only the goroutine running Tick or Run may touch it.
type State struct {
	Deck       *deck.Deck
	Controller *display.Controller
	Animator   *display.SlideAnimator
	Queue      *Queue

	sink    render.Sink
	lastDim *bool
	primed  bool
}

// NewState wires a fresh deck, controller, animator and queue around sink.
func NewState(sink render.Sink, timings Timings, logger zerolog.Logger) *State {
	q := NewQueue()
	st := &State{
		Deck:       deck.New(),
		Controller: display.NewController(sink, q, timings.Entry, timings.Exit, logger),
		Animator:   display.NewSlideAnimator(sink, q, timings.Fade, logger),
		Queue:      q,
		sink:       sink,
	}
	st.Controller.OnRestore(st.showCurrent)
	return st
}

// Primed reports whether the initial frame has been shown.
func (st *State) Primed() bool {
	return st.primed
}

// showCurrent animates the current slide in, or shows the placeholder for an empty deck.
func (st *State) showCurrent(now time.Time) {
	ref, ok := st.Deck.Current()
	if !ok {
		st.sink.Emit(render.ShowPlaceholder(render.PlaceholderText))
		return
	}
	st.Animator.Animate(now, ref)
}

// setDim emits the background dim only when it changes. The first call always emits.
func (st *State) setDim(dim bool) {
	if st.lastDim != nil && *st.lastDim == dim {
		return
	}
	st.lastDim = &dim
	st.sink.Emit(render.SetBackgroundDim(dim))
}

// Dimmed reports the last emitted background dim.
func (st *State) Dimmed() bool {
	return st.lastDim != nil && *st.lastDim
}
