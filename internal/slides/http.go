/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package slides

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/lessonboard/internal/deck"
)

// HTTPDiscoverer probes a remote slide directory with HEAD requests.
type HTTPDiscoverer struct {
	baseURL    string
	extensions []string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewHTTPDiscoverer creates an HTTP discoverer. A nil client gets a 5s timeout client.
func NewHTTPDiscoverer(baseURL string, extensions []string, client *http.Client, logger zerolog.Logger) *HTTPDiscoverer {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &HTTPDiscoverer{
		baseURL:    baseURL,
		extensions: NormalizeExtensions(extensions),
		httpClient: client,
		logger:     logger.With().Str("component", "slides").Str("backend", "http").Logger(),
	}
}

// Discover implements Discoverer.
func (d *HTTPDiscoverer) Discover(ctx context.Context) ([]deck.SlideRef, error) {
	return scan(ctx, d, d.extensions, d.logger)
}

func (d *HTTPDiscoverer) probe(ctx context.Context, name string) (string, bool, error) {
	url := joinURL(d.baseURL, name)
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return "", false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "lessonboard/1.0")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("head %s: %w", url, err)
	}
	resp.Body.Close()

	// Any non-2xx status counts as absent.
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", false, nil
	}
	return url, true, nil
}

func (d *HTTPDiscoverer) backend() string { return "http" }
