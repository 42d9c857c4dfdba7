/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package display

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/lessonboard/internal/render"
	"github.com/friendsincode/lessonboard/internal/telemetry"
)

// Controller drives the two-phase transition between slideshow and time-only layouts.
// It is not safe for concurrent use; the scheduler goroutine is its only caller.
type Controller struct {
	mode       Mode
	sink       render.Sink
	timers     Timers
	entryDelay time.Duration
	exitDelay  time.Duration
	onRestore  func(at time.Time)
	logger     zerolog.Logger
}

// NewController creates a controller in ModeNormal. Non-positive delays fall back to the defaults.
func NewController(sink render.Sink, timers Timers, entryDelay, exitDelay time.Duration, logger zerolog.Logger) *Controller {
	if entryDelay <= 0 {
		entryDelay = DefaultEntryDelay
	}
	if exitDelay <= 0 {
		exitDelay = DefaultExitDelay
	}
	c := &Controller{
		mode:       ModeNormal,
		sink:       sink,
		timers:     timers,
		entryDelay: entryDelay,
		exitDelay:  exitDelay,
		logger:     logger.With().Str("component", "display").Logger(),
	}
	c.publishMode()
	return c
}

// OnRestore registers the hook run after the slideshow layout is back, typically re-showing the current slide.
func (c *Controller) OnRestore(fn func(at time.Time)) {
	c.onRestore = fn
}

// Mode returns the current mode.
func (c *Controller) Mode() Mode {
	return c.mode
}

// Observe feeds the current flags into the state machine. Hiding slides in normal mode starts
// the entry transition; showing them in time-only mode starts the exit. While a transition is
// in flight every observation is swallowed with ErrTransitionInFlight.
func (c *Controller) Observe(now time.Time, flags Flags) error {
	if c.mode.Transitioning() {
		c.logger.Info().Str("mode", string(c.mode)).Msg("mode transition in flight, request ignored")
		telemetry.AnimationsSuppressedTotal.WithLabelValues("mode").Inc()
		return ErrTransitionInFlight
	}

	switch {
	case c.mode == ModeNormal && !flags.ShowSlides:
		return c.EnterTimeOnly(now)
	case c.mode == ModeTimeOnly && flags.ShowSlides:
		return c.ExitTimeOnly(now)
	}
	return nil
}

// EnterTimeOnly starts the slideshow to time-only transition.
func (c *Controller) EnterTimeOnly(now time.Time) error {
	if err := c.transition(ModeEnteringTimeOnly); err != nil {
		return err
	}
	c.sink.Emit(render.StartModeTransition(render.LayoutTimeOnly))
	c.timers.At(now.Add(c.entryDelay), "display.enter_time_only", c.completeEntry)
	return nil
}

// ExitTimeOnly starts the time-only to slideshow transition.
func (c *Controller) ExitTimeOnly(now time.Time) error {
	if err := c.transition(ModeExitingTimeOnly); err != nil {
		return err
	}
	c.sink.Emit(render.StartModeTransition(render.LayoutSlideshow))
	c.timers.At(now.Add(c.exitDelay), "display.exit_time_only", c.completeExit)
	return nil
}

func (c *Controller) completeEntry(_ time.Time) {
	if err := c.transition(ModeTimeOnly); err != nil {
		c.logger.Error().Err(err).Msg("entry completion out of order")
		return
	}
	c.sink.Emit(render.EnterTimeOnlyLayout())
}

func (c *Controller) completeExit(at time.Time) {
	if err := c.transition(ModeNormal); err != nil {
		c.logger.Error().Err(err).Msg("exit completion out of order")
		return
	}
	c.sink.Emit(render.ExitTimeOnlyLayout())
	if c.onRestore != nil {
		c.onRestore(at)
	}
}

func (c *Controller) transition(to Mode) error {
	from := c.mode
	if from.Transitioning() && to.Transitioning() {
		c.logger.Info().Str("mode", string(from)).Str("requested", string(to)).Msg("mode transition in flight, request ignored")
		telemetry.AnimationsSuppressedTotal.WithLabelValues("mode").Inc()
		return ErrTransitionInFlight
	}
	if !isValidTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	c.mode = to
	telemetry.ModeTransitionsTotal.WithLabelValues(string(to)).Inc()
	c.publishMode()

	c.logger.Info().
		Str("from", string(from)).
		Str("to", string(to)).
		Msg("mode transition")
	return nil
}

func (c *Controller) publishMode() {
	for _, m := range Modes {
		v := 0.0
		if m == c.mode {
			v = 1
		}
		telemetry.DisplayMode.WithLabelValues(string(m)).Set(v)
	}
}
