// Truckmap - Truck Position Marker Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/truckmap

package logging

import (
	"context"
	"log/slog"
	"strings"

	"github.com/rs/zerolog"
)

// slogHandler routes slog records into zerolog. sutureslog only speaks slog,
// so the supervisor tree logs through this bridge.
type slogHandler struct {
	logger zerolog.Logger
	prefix string
}

// NewSlogLogger returns an *slog.Logger writing to the global zerolog logger
// under the given component name.
//
//	tree, err := supervisor.NewTree(logging.NewSlogLogger("supervisor"), cfg)
func NewSlogLogger(component string) *slog.Logger {
	return slog.New(&slogHandler{logger: WithComponent(component)})
}

func (h *slogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return zerolog.GlobalLevel() <= toZerologLevel(level) && h.logger.GetLevel() <= toZerologLevel(level)
}

//nolint:gocritic // slog.Record is passed by value per slog.Handler interface
func (h *slogHandler) Handle(_ context.Context, record slog.Record) error {
	event := h.logger.WithLevel(toZerologLevel(record.Level))
	record.Attrs(func(attr slog.Attr) bool {
		event = event.Interface(h.prefix+attr.Key, attr.Value.Resolve().Any())
		return true
	})
	event.Msg(record.Message)
	return nil
}

func (h *slogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	logCtx := h.logger.With()
	for _, attr := range attrs {
		logCtx = logCtx.Interface(h.prefix+attr.Key, attr.Value.Resolve().Any())
	}
	return &slogHandler{logger: logCtx.Logger(), prefix: h.prefix}
}

func (h *slogHandler) WithGroup(name string) slog.Handler {
	if strings.TrimSpace(name) == "" {
		return h
	}
	return &slogHandler{logger: h.logger, prefix: h.prefix + name + "."}
}

func toZerologLevel(level slog.Level) zerolog.Level {
	switch {
	case level < slog.LevelInfo:
		return zerolog.DebugLevel
	case level < slog.LevelWarn:
		return zerolog.InfoLevel
	case level < slog.LevelError:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}
