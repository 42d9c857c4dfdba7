/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package scheduler runs the presentation loop: it resolves the active lesson, feeds the display
// state machine, rotates the deck and drains delayed completions, all on one goroutine.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/lessonboard/internal/clock"
	"github.com/friendsincode/lessonboard/internal/deck"
	"github.com/friendsincode/lessonboard/internal/display"
	"github.com/friendsincode/lessonboard/internal/render"
	"github.com/friendsincode/lessonboard/internal/schedule"
	"github.com/friendsincode/lessonboard/internal/telemetry"
)

// DefaultPeriod is the tick interval.
const DefaultPeriod = 500 * time.Millisecond

// IdlePolicy decides what the display does when no lesson window matches.
type IdlePolicy string

const (
	// IdleSlides shows slides with the background, as if a plain lesson were running.
	IdleSlides IdlePolicy = "slides"
	// IdleTimeOnly switches to the clock-only layout.
	IdleTimeOnly IdlePolicy = "time_only"
	// IdleHold leaves mode and background as they were.
	IdleHold IdlePolicy = "hold"
)

// ParseIdlePolicy validates a policy name. Empty selects IdleSlides.
func ParseIdlePolicy(s string) (IdlePolicy, error) {
	switch p := IdlePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return IdleSlides, nil
	case IdleSlides, IdleTimeOnly, IdleHold:
		return p, nil
	default:
		return "", fmt.Errorf("unknown idle policy %q", s)
	}
}

// Lessons is the read side of the schedule repository.
type Lessons interface {
	Loaded() bool
	ActiveLesson(now clock.Clock) (schedule.LessonWindow, bool)
	RotationInterval() time.Duration
}

// Config tunes the loop.
type Config struct {
	Period time.Duration
	Idle   IdlePolicy
}

// Snapshot is the published view of the loop, safe to read from HTTP handlers.
type Snapshot struct {
	Mode            display.Mode `json:"mode"`
	Waiting         bool         `json:"waiting"`
	ScheduleLoaded  bool         `json:"schedule_loaded"`
	DeckLoaded      bool         `json:"deck_loaded"`
	SlideCount      int          `json:"slide_count"`
	SlideIndex      int          `json:"slide_index"`
	SlideURL        string       `json:"slide_url,omitempty"`
	LessonTitle     string       `json:"lesson_title"`
	LessonActive    bool         `json:"lesson_active"`
	BackgroundDim   bool         `json:"background_dim"`
	AnimationLocked bool         `json:"animation_locked"`
	PendingEvents   int          `json:"pending_events"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// Service drives ticks against a State.
type Service struct {
	lessons Lessons
	sink    render.Sink
	clock   clock.Source
	period  time.Duration
	idle    IdlePolicy
	logger  zerolog.Logger

	decks chan []deck.SlideRef

	mu       sync.RWMutex
	snapshot Snapshot
}

// New creates a scheduler service.
func New(lessons Lessons, sink render.Sink, src clock.Source, cfg Config, logger zerolog.Logger) *Service {
	if cfg.Period <= 0 {
		cfg.Period = DefaultPeriod
	}
	if cfg.Idle == "" {
		cfg.Idle = IdleSlides
	}
	return &Service{
		lessons: lessons,
		sink:    sink,
		clock:   src,
		period:  cfg.Period,
		idle:    cfg.Idle,
		logger:  logger.With().Str("component", "scheduler").Logger(),
		decks:   make(chan []deck.SlideRef, 1),
	}
}

// ReloadDeck hands a new slide list to the running loop. Only the most recent pending list is kept.
func (s *Service) ReloadDeck(refs []deck.SlideRef) {
	for {
		select {
		case s.decks <- refs:
			return
		default:
		}
		select {
		case <-s.decks:
		default:
		}
	}
}

// LoadDeck replaces the deck contents. A primed display in normal mode fades to the new first slide.
func (s *Service) LoadDeck(st *State, refs []deck.SlideRef, now time.Time) {
	st.Deck.Load(refs)
	s.logger.Info().Int("slides", st.Deck.Len()).Msg("slide deck loaded")
	if !st.primed {
		return
	}
	if st.Controller.Mode() == display.ModeNormal {
		st.showCurrent(now)
	}
	s.publish(st, now)
}

// Snapshot returns the state published by the most recent tick.
func (s *Service) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Run ticks every period until ctx is cancelled. Between ticks it also wakes for the next
// queued completion so fades and mode transitions land on time.
func (s *Service) Run(ctx context.Context, st *State) error {
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	wake := time.NewTimer(time.Hour)
	defer wake.Stop()

	s.logger.Info().Dur("period", s.period).Str("idle_policy", string(s.idle)).Msg("scheduler loop started")
	s.Prime(st, s.clock.Now())

	for {
		s.armWake(wake, st)

		select {
		case <-ctx.Done():
			s.logger.Info().Msg("scheduler loop stopped")
			return ctx.Err()
		case <-ticker.C:
			s.Tick(st, s.clock.Now())
		case refs := <-s.decks:
			s.LoadDeck(st, refs, s.clock.Now())
		case <-wake.C:
			now := s.clock.Now()
			s.drain(st, now)
			if st.primed {
				s.publish(st, now)
			}
		}
	}
}

func (s *Service) armWake(wake *time.Timer, st *State) {
	if !wake.Stop() {
		select {
		case <-wake.C:
		default:
		}
	}
	next, ok := st.Queue.Next()
	if !ok {
		wake.Reset(time.Hour)
		return
	}
	d := next.Sub(s.clock.Now())
	if d < 0 {
		d = 0
	}
	wake.Reset(d)
}

// Prime shows the initial frame (background state plus the first slide or the placeholder)
// and runs the first tick. It is a no-op beyond waiting while schedule or deck are missing;
// Tick primes on its own once both arrive.
func (s *Service) Prime(st *State, now time.Time) {
	s.Tick(st, now)
}

// Tick performs one loop iteration at now. Completions due at or before now run first.
// A panic is recovered and counted so one bad tick cannot stop the display.
func (s *Service) Tick(st *State, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			telemetry.SchedulerPanicsTotal.Inc()
			s.logger.Error().Interface("panic", r).Msg("scheduler tick panicked")
		}
	}()

	telemetry.SchedulerTicksTotal.Inc()
	s.drain(st, now)

	if !s.lessons.Loaded() || !st.Deck.Loaded() {
		telemetry.SchedulerWaitingTotal.Inc()
		s.logger.Debug().
			Bool("schedule_loaded", s.lessons.Loaded()).
			Bool("deck_loaded", st.Deck.Loaded()).
			Msg("waiting for schedule and slides")
		s.publishWaiting(st, now)
		return
	}

	lesson, active := s.lessons.ActiveLesson(clock.FromTime(now))
	flags, feed := s.flagsFor(lesson, active)

	if !st.primed {
		s.prime(st, now, flags)
	}

	if feed {
		if err := st.Controller.Observe(now, flags); err != nil && !errors.Is(err, display.ErrTransitionInFlight) {
			s.logger.Error().Err(err).Msg("mode change rejected")
		}
		st.setDim(dimFor(flags, st.Controller.Mode()))
	}

	s.render(st, now, lesson, active)
	s.publish(st, now)
}

func (s *Service) prime(st *State, now time.Time, flags display.Flags) {
	st.setDim(dimFor(flags, st.Controller.Mode()))
	st.showCurrent(now)
	st.primed = true
	s.logger.Info().Int("slides", st.Deck.Len()).Msg("display primed")
}

// flagsFor returns the flags to feed the controller and whether to feed it at all.
func (s *Service) flagsFor(lesson schedule.LessonWindow, active bool) (display.Flags, bool) {
	if active {
		return display.Flags{ShowSlides: lesson.ShowSlides, ShowBackground: lesson.ShowBackground}, true
	}
	switch s.idle {
	case IdleTimeOnly:
		return display.Flags{ShowSlides: false, ShowBackground: true}, true
	case IdleHold:
		return display.Flags{ShowSlides: true, ShowBackground: true}, false
	default:
		return display.Flags{ShowSlides: true, ShowBackground: true}, true
	}
}

func dimFor(flags display.Flags, mode display.Mode) bool {
	return !flags.ShowBackground || mode == display.ModeTimeOnly
}

func (s *Service) render(st *State, now time.Time, lesson schedule.LessonWindow, active bool) {
	c := clock.FromTime(now)
	date := clock.FormatDate(now)

	switch st.Controller.Mode() {
	case display.ModeNormal:
		s.sink.Emit(render.SetHour(render.LayoutSlideshow, c.Hour()))
		s.sink.Emit(render.SetMinute(render.LayoutSlideshow, c.Minute()))
		s.sink.Emit(render.SetDate(render.LayoutSlideshow, date))

		title := ""
		if active {
			title = strings.ToUpper(lesson.Title)
		}
		s.sink.Emit(render.SetLessonTitle(title))

		if st.Deck.Empty() {
			s.sink.Emit(render.ShowPlaceholder(render.PlaceholderText))
			return
		}
		// Dwell time only accrues once the previous fade has landed.
		if st.Animator.Locked() {
			return
		}
		if ref, changed := st.Deck.Tick(s.period, s.lessons.RotationInterval()); changed {
			telemetry.SlideChangesTotal.Inc()
			s.logger.Debug().Int("slide", ref.Order).Msg("slide changed")
			st.Animator.Animate(now, ref)
		}

	case display.ModeTimeOnly:
		s.sink.Emit(render.SetHour(render.LayoutTimeOnly, c.Hour()))
		s.sink.Emit(render.SetMinute(render.LayoutTimeOnly, c.Minute()))
		s.sink.Emit(render.SetDate(render.LayoutTimeOnly, date))
	}
}

// drain runs due completions, recovering each one separately.
func (s *Service) drain(st *State, now time.Time) {
	for {
		ev, ok := st.Queue.PopDue(now)
		if !ok {
			return
		}
		s.runEvent(ev)
	}
}

func (s *Service) runEvent(ev Event) {
	defer func() {
		if r := recover(); r != nil {
			telemetry.SchedulerPanicsTotal.Inc()
			s.logger.Error().Interface("panic", r).Str("event", ev.Name).Msg("queued event panicked")
		}
	}()
	ev.Run()
}

func (s *Service) publishWaiting(st *State, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = Snapshot{
		Mode:           st.Controller.Mode(),
		Waiting:        true,
		ScheduleLoaded: s.lessons.Loaded(),
		DeckLoaded:     st.Deck.Loaded(),
		PendingEvents:  st.Queue.Len(),
		UpdatedAt:      now,
	}
}

func (s *Service) publish(st *State, now time.Time) {
	snap := Snapshot{
		Mode:            st.Controller.Mode(),
		ScheduleLoaded:  s.lessons.Loaded(),
		DeckLoaded:      st.Deck.Loaded(),
		SlideCount:      st.Deck.Len(),
		SlideIndex:      st.Deck.Index(),
		BackgroundDim:   st.Dimmed(),
		AnimationLocked: st.Animator.Locked(),
		PendingEvents:   st.Queue.Len(),
		UpdatedAt:       now,
	}
	if ref, ok := st.Deck.Current(); ok {
		snap.SlideURL = ref.URL
	}
	if lesson, ok := s.lessons.ActiveLesson(clock.FromTime(now)); ok {
		snap.LessonTitle = lesson.Title
		snap.LessonActive = true
	}

	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()
}
