/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package slides enumerates the slide images available to the deck.
//
// Every backend uses the same naming scheme: slide1.png, slide1.jpg, slide2.png and so on.
// Discovery stops at the first index for which no extension exists, so a gap ends the deck.
package slides

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/friendsincode/lessonboard/internal/deck"
	"github.com/friendsincode/lessonboard/internal/telemetry"
)

// DefaultExtensions are tried in order for each index.
var DefaultExtensions = []string{"png", "jpg"}

// MaxSlides bounds a single discovery run.
const MaxSlides = 500

// Discoverer enumerates slides in display order. An empty result is a valid empty deck.
type Discoverer interface {
	Discover(ctx context.Context) ([]deck.SlideRef, error)
}

// prober checks whether one named object exists and returns the URL a renderer should load.
type prober interface {
	probe(ctx context.Context, name string) (url string, found bool, err error)
	backend() string
}

// SlideName returns the object name for index and extension.
func SlideName(index int, ext string) string {
	return fmt.Sprintf("slide%d.%s", index, strings.TrimPrefix(ext, "."))
}

// NormalizeExtensions lowercases, strips dots and drops blanks. Nil or empty input yields the defaults.
func NormalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))
		if e != "" {
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), DefaultExtensions...)
	}
	return out
}

func scan(ctx context.Context, p prober, exts []string, logger zerolog.Logger) ([]deck.SlideRef, error) {
	ctx, span := telemetry.StartSpan(ctx, "slides", "Discover")
	defer span.End()
	telemetry.AddSpanAttributes(span, map[string]any{"backend": p.backend()})

	var refs []deck.SlideRef
	for index := 1; index <= MaxSlides; index++ {
		url, found, err := probeIndex(ctx, p, index, exts)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("discover slide %d: %w", index, err)
		}
		if !found {
			break
		}
		refs = append(refs, deck.SlideRef{Order: index, URL: url})
	}

	if len(refs) == MaxSlides {
		logger.Warn().Int("max", MaxSlides).Msg("slide discovery hit the limit")
	}

	telemetry.SlidesDiscovered.Set(float64(len(refs)))
	telemetry.AddSpanAttributes(span, map[string]any{"slides": len(refs)})
	logger.Info().Str("backend", p.backend()).Int("slides", len(refs)).Msg("slides discovered")
	return refs, nil
}

func probeIndex(ctx context.Context, p prober, index int, exts []string) (string, bool, error) {
	for _, ext := range exts {
		if err := ctx.Err(); err != nil {
			return "", false, err
		}
		url, found, err := p.probe(ctx, SlideName(index, ext))
		if err != nil {
			return "", false, err
		}
		if found {
			return url, true, nil
		}
	}
	return "", false, nil
}

// joinURL joins a base URL or path and an object name with exactly one slash.
func joinURL(base, name string) string {
	if base == "" {
		return name
	}
	return strings.TrimRight(base, "/") + "/" + name
}
