/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package display owns the slideshow/time-only mode state machine and the slide animation lock.
package display

import (
	"errors"
	"time"
)

var (
	// ErrTransitionInFlight is returned for mode requests made while a transition is running.
	ErrTransitionInFlight = errors.New("mode transition already in flight")

	// ErrInvalidTransition is returned for a direct transition the state machine does not allow.
	ErrInvalidTransition = errors.New("invalid mode transition")
)

// Mode is the display mode.
type Mode string

const (
	ModeNormal           Mode = "normal"
	ModeEnteringTimeOnly Mode = "entering_time_only"
	ModeTimeOnly         Mode = "time_only"
	ModeExitingTimeOnly  Mode = "exiting_time_only"
)

// Modes lists every mode, in state machine order.
var Modes = []Mode{ModeNormal, ModeEnteringTimeOnly, ModeTimeOnly, ModeExitingTimeOnly}

// Transitioning reports whether m is one of the two timed intermediate states.
func (m Mode) Transitioning() bool {
	return m == ModeEnteringTimeOnly || m == ModeExitingTimeOnly
}

var validTransitions = map[Mode][]Mode{
	ModeNormal:           {ModeEnteringTimeOnly},
	ModeEnteringTimeOnly: {ModeTimeOnly},
	ModeTimeOnly:         {ModeExitingTimeOnly},
	ModeExitingTimeOnly:  {ModeNormal},
}

func isValidTransition(from, to Mode) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Flags are the display switches of the active lesson, or of the idle policy.
type Flags struct {
	ShowSlides     bool
	ShowBackground bool
}

// Default transition timings.
const (
	DefaultEntryDelay = 2000 * time.Millisecond
	DefaultExitDelay  = 2000 * time.Millisecond
	DefaultFadeDelay  = 1000 * time.Millisecond
)

// Timers schedules delayed completions. Implementations run fn on the scheduler goroutine
// and pass the due time.
type Timers interface {
	At(at time.Time, name string, fn func(at time.Time))
}
