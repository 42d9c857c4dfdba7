/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package slides

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/friendsincode/lessonboard/internal/deck"
)

// FilesystemDiscoverer finds slides in a local directory that the server also exposes under PublicPath.
type FilesystemDiscoverer struct {
	rootDir    string
	publicPath string
	extensions []string
	logger     zerolog.Logger
}

// NewFilesystemDiscoverer creates a filesystem discoverer. URLs are publicPath/slideN.ext.
func NewFilesystemDiscoverer(rootDir, publicPath string, extensions []string, logger zerolog.Logger) *FilesystemDiscoverer {
	return &FilesystemDiscoverer{
		rootDir:    rootDir,
		publicPath: publicPath,
		extensions: NormalizeExtensions(extensions),
		logger:     logger.With().Str("component", "slides").Str("backend", "fs").Logger(),
	}
}

// Discover implements Discoverer. A missing directory yields an empty deck.
func (d *FilesystemDiscoverer) Discover(ctx context.Context) ([]deck.SlideRef, error) {
	info, err := os.Stat(d.rootDir)
	if errors.Is(err, fs.ErrNotExist) {
		d.logger.Warn().Str("dir", d.rootDir).Msg("slides directory does not exist")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stat slides dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("slides dir %s is not a directory", d.rootDir)
	}
	return scan(ctx, d, d.extensions, d.logger)
}

// Root returns the directory being scanned.
func (d *FilesystemDiscoverer) Root() string { return d.rootDir }

func (d *FilesystemDiscoverer) probe(_ context.Context, name string) (string, bool, error) {
	fullPath := filepath.Join(d.rootDir, name)
	info, err := os.Stat(fullPath)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("stat %s: %w", fullPath, err)
	}
	if !info.Mode().IsRegular() {
		return "", false, nil
	}
	d.logger.Debug().Str("path", fullPath).Msg("slide found")
	return joinURL(d.publicPath, name), true, nil
}

func (d *FilesystemDiscoverer) backend() string { return "fs" }
