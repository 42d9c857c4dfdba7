/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package display

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/lessonboard/internal/deck"
	"github.com/friendsincode/lessonboard/internal/render"
	"github.com/friendsincode/lessonboard/internal/telemetry"
)

// SlideAnimator fades between slides and holds a lock for the duration of the fade.
type SlideAnimator struct {
	sink   render.Sink
	timers Timers
	fade   time.Duration
	locked bool
	logger zerolog.Logger
}

// NewSlideAnimator creates an unlocked animator. A non-positive fade uses DefaultFadeDelay.
func NewSlideAnimator(sink render.Sink, timers Timers, fade time.Duration, logger zerolog.Logger) *SlideAnimator {
	if fade <= 0 {
		fade = DefaultFadeDelay
	}
	return &SlideAnimator{
		sink:   sink,
		timers: timers,
		fade:   fade,
		logger: logger.With().Str("component", "animator").Logger(),
	}
}

// Locked reports whether a fade is in progress.
func (a *SlideAnimator) Locked() bool {
	return a.locked
}

// Animate starts a fade to ref. It returns false, and emits nothing, while another fade runs.
func (a *SlideAnimator) Animate(now time.Time, ref deck.SlideRef) bool {
	if a.locked {
		a.logger.Debug().Int("slide", ref.Order).Msg("slide animation in progress, request dropped")
		telemetry.AnimationsSuppressedTotal.WithLabelValues("slide").Inc()
		return false
	}

	a.locked = true
	a.sink.Emit(render.AnimateSlideTransition(ref.URL))
	a.timers.At(now.Add(a.fade), "display.slide_fade", func(time.Time) {
		a.sink.Emit(render.SetSlideImage(ref.URL))
		a.locked = false
	})
	return true
}
