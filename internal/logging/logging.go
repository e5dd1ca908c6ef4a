// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging configures the process-wide zerolog logger and hands out
// component-scoped children.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global logger. level is a zerolog level name
// (debug, info, warn, error); unknown names fall back to warn. format "json"
// emits one JSON object per event, anything else a human-readable console
// line. If w is nil, os.Stderr is used.
func Init(level, format string, w io.Writer) {
	if w == nil {
		w = os.Stderr
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.WarnLevel
	}

	zerolog.TimeFieldFormat = time.RFC3339

	var out io.Writer = w
	if format != "json" {
		out = zerolog.ConsoleWriter{
			Out:        w,
			NoColor:    w != os.Stderr,
			TimeFormat: time.Kitchen,
		}
	}

	log.Logger = zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

// New returns a logger tagged with component=<name>.
func New(component string) zerolog.Logger {
	return log.Logger.With().Str("component", component).Logger()
}
