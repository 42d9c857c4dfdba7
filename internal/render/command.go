/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package render defines the display commands emitted by the presentation scheduler.
// The renderer (a browser page) is a pure consumer of these commands.
package render

import "sync"

// Kind enumerates command categories.
type Kind string

const (
	KindSetHour                Kind = "set_hour"
	KindSetMinute              Kind = "set_minute"
	KindSetDate                Kind = "set_date"
	KindSetLessonTitle         Kind = "set_lesson_title"
	KindSetSlideImage          Kind = "set_slide_image"
	KindAnimateSlideTransition Kind = "animate_slide_transition"
	KindStartModeTransition    Kind = "start_mode_transition"
	KindEnterTimeOnlyLayout    Kind = "enter_time_only_layout"
	KindExitTimeOnlyLayout     Kind = "exit_time_only_layout"
	KindSetBackgroundDim       Kind = "set_background_dim"
	KindShowPlaceholder        Kind = "show_placeholder"
)

// Layout selects which set of fields a clock/date command targets.
type Layout string

const (
	LayoutSlideshow Layout = "slideshow"
	LayoutTimeOnly  Layout = "time_only"
)

// PlaceholderText is shown when slide discovery found nothing.
const PlaceholderText = "No slides found"

// Command is a single instruction for the renderer.
type Command struct {
	Seq    uint64 `json:"seq,omitempty"`
	Kind   Kind   `json:"kind"`
	Layout Layout `json:"layout,omitempty"`
	Text   string `json:"text,omitempty"`
	Slide  string `json:"slide,omitempty"`
	Dim    bool   `json:"dim,omitempty"`
}

// Key identifies the display slot a command overwrites.
func (c Command) Key() string {
	if c.Layout == "" {
		return string(c.Kind)
	}
	return string(c.Kind) + "/" + string(c.Layout)
}

func SetHour(layout Layout, hour string) Command {
	return Command{Kind: KindSetHour, Layout: layout, Text: hour}
}

func SetMinute(layout Layout, minute string) Command {
	return Command{Kind: KindSetMinute, Layout: layout, Text: minute}
}

func SetDate(layout Layout, date string) Command {
	return Command{Kind: KindSetDate, Layout: layout, Text: date}
}

func SetLessonTitle(title string) Command {
	return Command{Kind: KindSetLessonTitle, Text: title}
}

func SetSlideImage(slide string) Command {
	return Command{Kind: KindSetSlideImage, Slide: slide}
}

func AnimateSlideTransition(slide string) Command {
	return Command{Kind: KindAnimateSlideTransition, Slide: slide}
}

// StartModeTransition starts the fade overlay that precedes a layout swap to target.
func StartModeTransition(target Layout) Command {
	return Command{Kind: KindStartModeTransition, Layout: target}
}

func EnterTimeOnlyLayout() Command {
	return Command{Kind: KindEnterTimeOnlyLayout}
}

func ExitTimeOnlyLayout() Command {
	return Command{Kind: KindExitTimeOnlyLayout}
}

func SetBackgroundDim(dim bool) Command {
	return Command{Kind: KindSetBackgroundDim, Dim: dim}
}

func ShowPlaceholder(text string) Command {
	return Command{Kind: KindShowPlaceholder, Text: text}
}

// Sink consumes commands.
type Sink interface {
	Emit(cmd Command)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Command)

// Emit implements Sink.
func (f SinkFunc) Emit(cmd Command) { f(cmd) }

// Recorder is a Sink that keeps every command, for tests and diagnostics.
type Recorder struct {
	mu       sync.Mutex
	commands []Command
}

// Emit implements Sink.
func (r *Recorder) Emit(cmd Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, cmd)
}

// Commands returns a copy of everything recorded so far.
func (r *Recorder) Commands() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Command, len(r.commands))
	copy(out, r.commands)
	return out
}

// OfKind returns recorded commands of the given kind, in emission order.
func (r *Recorder) OfKind(kind Kind) []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Command
	for _, c := range r.commands {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// Last returns the most recent command of the given kind.
func (r *Recorder) Last(kind Kind) (Command, bool) {
	cmds := r.OfKind(kind)
	if len(cmds) == 0 {
		return Command{}, false
	}
	return cmds[len(cmds)-1], true
}

// Reset drops everything recorded.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = nil
}
