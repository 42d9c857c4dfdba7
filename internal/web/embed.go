/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package web holds the built-in renderer page served when no WEB_ROOT is configured.
package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed all:static
var StaticFS embed.FS

// Handler serves the embedded renderer files.
func Handler() http.Handler {
	sub, err := fs.Sub(StaticFS, "static")
	if err != nil {
		// The embed directive guarantees the directory exists.
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}
