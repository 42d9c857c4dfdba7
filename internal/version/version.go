/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package version reports build information.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version is the current version of lessonboard.
// This is set at build time via ldflags:
//
//	-X github.com/friendsincode/lessonboard/internal/version.Version=X.Y.Z
var Version = "0.3.0"

// String returns the version line printed by the version command.
func String() string {
	return fmt.Sprintf("lessonboard %s (%s, %s/%s)", Version, revision(), runtime.GOOS, runtime.GOARCH)
}

func revision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 7 {
			return s.Value[:7]
		}
	}
	return "devel"
}
