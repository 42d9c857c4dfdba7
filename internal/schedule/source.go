/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package schedule

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// maxDocumentBytes bounds the size of a schedule document.
const maxDocumentBytes = 1 << 20

// readDocument reads at most maxDocumentBytes and rejects anything longer rather than truncating it.
func readDocument(r io.Reader, name string) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxDocumentBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrUnavailable, name, err)
	}
	if len(data) > maxDocumentBytes {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, name, ErrTooLarge)
	}
	return data, nil
}

// Source fetches a raw schedule document.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
	// Name is the path or URL, used for logging and format detection.
	Name() string
}

// NewSource picks an HTTP source for http(s) URLs and a file source otherwise.
func NewSource(location string) Source {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return NewHTTPSource(location, nil)
	}
	return FileSource{Path: location}
}

// FileSource reads the document from the local filesystem.
type FileSource struct {
	Path string
}

// Fetch implements Source.
func (s FileSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer f.Close()

	return readDocument(f, s.Path)
}

// Name implements Source.
func (s FileSource) Name() string { return s.Path }

// HTTPSource fetches the document with a GET request.
type HTTPSource struct {
	URL        string
	httpClient *http.Client
}

// NewHTTPSource creates an HTTP source. A nil client gets a 10s timeout client.
func NewHTTPSource(url string, client *http.Client) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPSource{URL: url, httpClient: client}
}

// Fetch implements Source.
func (s *HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrUnavailable, err)
	}
	req.Header.Set("User-Agent", "lessonboard/1.0")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %d", ErrUnavailable, s.URL, resp.StatusCode)
	}

	return readDocument(resp.Body, s.URL)
}

// Name implements Source.
func (s *HTTPSource) Name() string { return s.URL }
