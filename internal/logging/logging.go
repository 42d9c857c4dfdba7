/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures zerolog with console output only.
func Setup(environment string) zerolog.Logger {
	return SetupWithWriter(environment, nil)
}

// SetupWithWriter writes human-readable lines to stdout and, when capture is non-nil,
// the raw JSON lines to capture as well. Development gets debug level, everything else info.
func SetupWithWriter(environment string, capture io.Writer) zerolog.Logger {
	return setup(environment, os.Stdout, capture)
}

func setup(environment string, out, capture io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var writer io.Writer = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
	if capture != nil {
		writer = zerolog.MultiLevelWriter(writer, capture)
	}

	logger := zerolog.New(writer).With().Timestamp().Logger().Level(LevelFor(environment))
	log.Logger = logger
	return logger
}

// LevelFor maps an environment name to a log level.
func LevelFor(environment string) zerolog.Level {
	switch environment {
	case "development", "dev":
		return zerolog.DebugLevel
	case "test":
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}
