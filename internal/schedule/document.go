/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package schedule

import (
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/friendsincode/lessonboard/internal/clock"
)

// DefaultRotationInterval applies when the document omits timeOnSlides or nothing has loaded.
const DefaultRotationInterval = 30 * time.Second

var (
	// ErrMalformed indicates the schedule document failed validation.
	ErrMalformed = errors.New("malformed schedule")

	// ErrUnavailable indicates the schedule document could not be fetched.
	ErrUnavailable = errors.New("schedule unavailable")

	// ErrTooLarge indicates the document exceeds maxDocumentBytes. It is always wrapped with ErrUnavailable.
	ErrTooLarge = errors.New("document exceeds 1 MiB")
)

// Format names a document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromName guesses the encoding from a file name or URL path. JSON is the default.
func FormatFromName(name string) Format {
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// LessonWindow is a named interval of the day with display flags.
type LessonWindow struct {
	Start          clock.Clock
	End            clock.Clock
	Title          string
	ShowSlides     bool
	ShowBackground bool
}

// Contains reports whether now falls inside the window.
func (w LessonWindow) Contains(now clock.Clock) bool {
	return clock.IsWithin(w.Start, w.End, now)
}

// Schedule is a validated schedule document.
type Schedule struct {
	RotationInterval time.Duration
	Lessons          []LessonWindow
}

type document struct {
	TimeOnSlides *int              `json:"timeOnSlides" yaml:"timeOnSlides"`
	Lessons      *[]lessonDocument `json:"lessons" yaml:"lessons"`
}

type lessonDocument struct {
	Start          *string `json:"start" yaml:"start"`
	End            *string `json:"end" yaml:"end"`
	Title          *string `json:"title" yaml:"title"`
	ShowSlides     *bool   `json:"showSlides" yaml:"showSlides"`
	ShowBackground *bool   `json:"showBackground" yaml:"showBackground"`
	TimeOnly       *bool   `json:"timeOnly" yaml:"timeOnly"`
}

// Parse decodes and validates a schedule document.
func Parse(raw []byte, format Format) (*Schedule, error) {
	var doc document
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(raw, &doc)
	default:
		err = json.Unmarshal(raw, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrMalformed, format, err)
	}

	sched := &Schedule{RotationInterval: DefaultRotationInterval}
	if doc.TimeOnSlides != nil {
		if *doc.TimeOnSlides <= 0 {
			return nil, fmt.Errorf("%w: timeOnSlides must be positive, got %d", ErrMalformed, *doc.TimeOnSlides)
		}
		sched.RotationInterval = time.Duration(*doc.TimeOnSlides) * time.Second
	}

	if doc.Lessons == nil {
		return nil, fmt.Errorf("%w: lessons missing", ErrMalformed)
	}

	sched.Lessons = make([]LessonWindow, 0, len(*doc.Lessons))
	for i, ld := range *doc.Lessons {
		lesson, err := ld.toWindow()
		if err != nil {
			return nil, fmt.Errorf("%w: lesson %d: %v", ErrMalformed, i+1, err)
		}
		sched.Lessons = append(sched.Lessons, lesson)
	}

	return sched, nil
}

func (ld lessonDocument) toWindow() (LessonWindow, error) {
	if ld.Start == nil || ld.End == nil || ld.Title == nil {
		return LessonWindow{}, errors.New("start, end and title are required")
	}
	start, err := clock.Parse(*ld.Start)
	if err != nil {
		return LessonWindow{}, fmt.Errorf("start: %w", err)
	}
	end, err := clock.Parse(*ld.End)
	if err != nil {
		return LessonWindow{}, fmt.Errorf("end: %w", err)
	}
	if start.Seconds() > end.Seconds() {
		return LessonWindow{}, fmt.Errorf("start %s is after end %s", start, end)
	}

	w := LessonWindow{
		Start:          start,
		End:            end,
		Title:          *ld.Title,
		ShowSlides:     true,
		ShowBackground: true,
	}
	if ld.ShowSlides != nil {
		w.ShowSlides = *ld.ShowSlides
	}
	if ld.ShowBackground != nil {
		w.ShowBackground = *ld.ShowBackground
	}
	// Older documents flag break windows with timeOnly instead of showSlides.
	if ld.TimeOnly != nil && *ld.TimeOnly {
		w.ShowSlides = false
	}
	return w, nil
}
