/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package clock

import (
	"errors"
	"testing"
	"time"
)

func TestNewRejectsOutOfRange(t *testing.T) {
	tests := []struct {
		name   string
		hour   int
		minute int
		valid  bool
	}{
		{"midnight", 0, 0, true},
		{"last minute", 23, 59, true},
		{"hour 24", 24, 0, false},
		{"negative hour", -1, 0, false},
		{"minute 60", 12, 60, false},
		{"negative minute", 12, -5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.hour, tt.minute)
			if tt.valid && err != nil {
				t.Fatalf("New(%d, %d) unexpected error: %v", tt.hour, tt.minute, err)
			}
			if !tt.valid && !errors.Is(err, ErrInvalidTime) {
				t.Fatalf("New(%d, %d) error = %v, want ErrInvalidTime", tt.hour, tt.minute, err)
			}
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"08:00", 8 * 3600, false},
		{"8:05", 8*3600 + 5*60, false},
		{" 23:59 ", 23*3600 + 59*60, false},
		{"24:00", 0, true},
		{"12:5", 0, true},
		{"1200", 0, true},
		{"ab:cd", 0, true},
		{"", 0, true},
		{"08:00:00", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTime) {
					t.Fatalf("Parse(%q) error = %v, want ErrInvalidTime", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.in, err)
			}
			if got.Seconds() != tt.want {
				t.Fatalf("Parse(%q).Seconds() = %d, want %d", tt.in, got.Seconds(), tt.want)
			}
		})
	}
}

func TestIsWithinInclusiveBounds(t *testing.T) {
	windows := [][2]Clock{
		{MustNew(8, 0), MustNew(8, 45)},
		{MustNew(0, 0), MustNew(0, 0)},
		{MustNew(13, 59), MustNew(14, 1)},
		{MustNew(0, 1), MustNew(23, 58)},
	}

	for _, w := range windows {
		start, end := w[0], w[1]
		t.Run(start.String()+"-"+end.String(), func(t *testing.T) {
			if !IsWithin(start, end, start) {
				t.Errorf("start %s should be within", start)
			}
			if !IsWithin(start, end, end) {
				t.Errorf("end %s should be within", end)
			}
			for s := start.Seconds() + 60; s < end.Seconds(); s += 60 {
				mid := MustNew(s/3600, (s%3600)/60)
				if !IsWithin(start, end, mid) {
					t.Errorf("%s should be within", mid)
				}
			}
			if start.Seconds() >= 60 {
				before := start.Seconds() - 60
				c := MustNew(before/3600, (before%3600)/60)
				if IsWithin(start, end, c) {
					t.Errorf("%s (one minute before start) should not be within", c)
				}
			}
			if end.Seconds()+60 < 24*3600 {
				after := end.Seconds() + 60
				c := MustNew(after/3600, (after%3600)/60)
				if IsWithin(start, end, c) {
					t.Errorf("%s (one minute after end) should not be within", c)
				}
			}
		})
	}
}

func TestFormatting(t *testing.T) {
	ts := time.Date(2026, time.March, 7, 8, 5, 42, 0, time.UTC)
	c := FromTime(ts)
	if c.Hour() != "08" || c.Minute() != "05" {
		t.Fatalf("got %s:%s, want 08:05", c.Hour(), c.Minute())
	}
	if got := FormatDate(ts); got != "07.03.26" {
		t.Fatalf("FormatDate = %q, want 07.03.26", got)
	}
	if got := Now(Fixed(ts)); got != c {
		t.Fatalf("Now(Fixed) = %v, want %v", got, c)
	}
}

func TestSystemUsesLocation(t *testing.T) {
	loc := time.FixedZone("test", 3*3600)
	got := System{Location: loc}.Now()
	if got.Location() != loc {
		t.Fatalf("System.Now location = %v, want %v", got.Location(), loc)
	}
}
