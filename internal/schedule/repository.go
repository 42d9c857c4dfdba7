/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package schedule loads the daily lesson schedule and answers "which lesson is on now".
package schedule

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/lessonboard/internal/clock"
	"github.com/friendsincode/lessonboard/internal/telemetry"
)

// Repository owns the current schedule. A failed load never replaces a good one.
type Repository struct {
	logger zerolog.Logger

	mu       sync.RWMutex
	current  *Schedule
	loadedAt time.Time
}

// NewRepository creates an empty repository.
func NewRepository(logger zerolog.Logger) *Repository {
	return &Repository{
		logger: logger.With().Str("component", "schedule").Logger(),
	}
}

// Load parses raw and swaps it in atomically. On error the previous schedule is kept.
func (r *Repository) Load(raw []byte, format Format) error {
	sched, err := Parse(raw, format)
	if err != nil {
		telemetry.ScheduleLoadsTotal.WithLabelValues("malformed").Inc()
		r.logger.Error().Err(err).Bool("kept_previous", r.Loaded()).Msg("schedule rejected")
		return err
	}

	r.mu.Lock()
	r.current = sched
	r.loadedAt = time.Now()
	r.mu.Unlock()

	telemetry.ScheduleLoadsTotal.WithLabelValues("ok").Inc()
	r.logger.Info().
		Int("lessons", len(sched.Lessons)).
		Dur("rotation_interval", sched.RotationInterval).
		Msg("schedule loaded")
	return nil
}

// Refresh fetches the document from src and loads it.
func (r *Repository) Refresh(ctx context.Context, src Source) error {
	ctx, span := telemetry.StartSpan(ctx, "schedule", "Refresh")
	defer span.End()
	telemetry.AddSpanAttributes(span, map[string]any{"source": src.Name()})

	raw, err := src.Fetch(ctx)
	if err != nil {
		if !errors.Is(err, ErrUnavailable) {
			err = fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		telemetry.RecordError(span, err)
		telemetry.ScheduleLoadsTotal.WithLabelValues("unavailable").Inc()
		r.logger.Error().Err(err).Str("source", src.Name()).Bool("kept_previous", r.Loaded()).Msg("schedule fetch failed")
		return err
	}

	if err := r.Load(raw, FormatFromName(src.Name())); err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	return nil
}

// Loaded reports whether a schedule has ever loaded successfully.
func (r *Repository) Loaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current != nil
}

// LoadedAt returns when the current schedule was swapped in.
func (r *Repository) LoadedAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loadedAt
}

// ActiveLesson returns the first window, in declaration order, containing now.
func (r *Repository) ActiveLesson(now clock.Clock) (LessonWindow, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.current == nil {
		return LessonWindow{}, false
	}
	for _, lesson := range r.current.Lessons {
		if lesson.Contains(now) {
			return lesson, true
		}
	}
	return LessonWindow{}, false
}

// RotationInterval returns the slide dwell time.
func (r *Repository) RotationInterval() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.current == nil || r.current.RotationInterval <= 0 {
		return DefaultRotationInterval
	}
	return r.current.RotationInterval
}

// Lessons returns a copy of the loaded lesson windows.
func (r *Repository) Lessons() []LessonWindow {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.current == nil {
		return nil
	}
	return append([]LessonWindow(nil), r.current.Lessons...)
}

// Watch refreshes from src every interval until ctx ends. Failures keep the previous schedule.
func (r *Repository) Watch(ctx context.Context, src Source, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.logger.Info().Dur("interval", interval).Msg("schedule reload started")
	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("schedule reload stopped")
			return
		case <-ticker.C:
			_ = r.Refresh(ctx, src)
		}
	}
}
