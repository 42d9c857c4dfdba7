/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package kiosk starts a full-screen Chromium pointed at the local renderer.
package kiosk

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog"
)

// Options configures the browser.
type Options struct {
	URL        string
	BrowserBin string // empty looks up a local Chromium, then lets rod download one
	Headless   bool   // for tests
}

// Kiosk owns the launched browser process.
type Kiosk struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	logger   zerolog.Logger
}

// Launch starts the browser and opens opts.URL. The browser lives until Close or ctx ends.
func Launch(ctx context.Context, opts Options, logger zerolog.Logger) (*Kiosk, error) {
	if opts.URL == "" {
		return nil, errors.New("kiosk url is required")
	}
	logger = logger.With().Str("component", "kiosk").Logger()

	l := newLauncher(opts)
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: opts.URL})
	if err != nil {
		_ = browser.Close()
		l.Kill()
		return nil, fmt.Errorf("open %s: %w", opts.URL, err)
	}

	logger.Info().Str("url", opts.URL).Int("pid", l.PID()).Msg("kiosk browser started")
	return &Kiosk{launcher: l, browser: browser, page: page, logger: logger}, nil
}

func newLauncher(opts Options) *launcher.Launcher {
	l := launcher.New().Headless(opts.Headless)

	bin := opts.BrowserBin
	if bin == "" {
		if path, ok := launcher.LookPath(); ok {
			bin = path
		}
	}
	if bin != "" {
		l = l.Bin(bin)
	}

	if !opts.Headless {
		l = l.Set("kiosk").
			Set("start-fullscreen").
			Set("noerrdialogs").
			Set("disable-session-crashed-bubble").
			Set("disable-infobars").
			Delete("enable-automation")
	}
	return l
}

// Page returns the renderer page.
func (k *Kiosk) Page() *rod.Page {
	return k.page
}

// Reload reloads the renderer page.
func (k *Kiosk) Reload() error {
	return k.page.Reload()
}

// Close shuts the browser down and removes its profile directory.
func (k *Kiosk) Close() error {
	err := k.browser.Close()
	k.launcher.Kill()
	k.launcher.Cleanup()
	k.logger.Info().Msg("kiosk browser stopped")
	return err
}
