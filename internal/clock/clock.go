/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package clock provides the time-of-day value used to match lesson windows.
package clock

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidTime indicates an hour/minute pair outside 00:00-23:59 or an unparsable "HH:MM".
var ErrInvalidTime = errors.New("invalid time of day")

// Clock is a wall-clock time of day with minute resolution.
type Clock struct {
	hour   int
	minute int
}

// New constructs a Clock, rejecting values outside the valid ranges.
func New(hour, minute int) (Clock, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return Clock{}, fmt.Errorf("%w: %02d:%02d", ErrInvalidTime, hour, minute)
	}
	return Clock{hour: hour, minute: minute}, nil
}

// MustNew is New for literals known to be valid.
func MustNew(hour, minute int) Clock {
	c, err := New(hour, minute)
	if err != nil {
		panic(err)
	}
	return c
}

// FromTime captures the hour and minute of t in t's location.
func FromTime(t time.Time) Clock {
	return Clock{hour: t.Hour(), minute: t.Minute()}
}

// Now captures the current time of day from src.
func Now(src Source) Clock {
	return FromTime(src.Now())
}

// Parse reads "H:MM" or "HH:MM".
func Parse(s string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 || len(parts[0]) == 0 || len(parts[0]) > 2 || len(parts[1]) != 2 {
		return Clock{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return Clock{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return Clock{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	return New(hour, minute)
}

// Hour returns the zero-padded hour, e.g. "08".
func (c Clock) Hour() string { return fmt.Sprintf("%02d", c.hour) }

// Minute returns the zero-padded minute.
func (c Clock) Minute() string { return fmt.Sprintf("%02d", c.minute) }

// Seconds returns the number of seconds since midnight.
func (c Clock) Seconds() int {
	return c.hour*3600 + c.minute*60
}

// String formats the clock as "HH:MM".
func (c Clock) String() string {
	return c.Hour() + ":" + c.Minute()
}

// IsWithin reports whether t lies in [start, end], inclusive at both ends.
func IsWithin(start, end, t Clock) bool {
	s := t.Seconds()
	return s >= start.Seconds() && s <= end.Seconds()
}

// FormatDate renders t as DD.MM.YY.
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%02d.%02d.%02d", t.Day(), int(t.Month()), t.Year()%100)
}

// Source provides the current wall time.
type Source interface {
	Now() time.Time
}

// System reads the host clock, optionally converted into Location.
type System struct {
	Location *time.Location
}

// Now implements Source.
func (s System) Now() time.Time {
	now := time.Now()
	if s.Location != nil {
		return now.In(s.Location)
	}
	return now
}

// Fixed is a Source pinned to a single instant.
type Fixed time.Time

// Now implements Source.
func (f Fixed) Now() time.Time { return time.Time(f) }
