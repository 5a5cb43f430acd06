// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxutil provides helpers for interacting with values stored in [context.Context].
package ctxutil

import (
	"context"
	"log/slog"

	"github.com/taibuivan/farmgate/internal/platform/ctxkey"
	"github.com/taibuivan/farmgate/internal/platform/sec"
)

// # Request Tracing

// WithRequestID returns a new context with the provided request ID attached.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxkey.KeyRequestID, id)
}

// GetRequestID retrieves the request ID from the context.
// Returns an empty string if not found.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxkey.KeyRequestID).(string)
	return id
}

// # Structured Logging

// WithLogger returns a new context with the provided logger attached.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxkey.KeyLogger, logger)
}

// GetLogger retrieves the logger from the context.
// If no logger is found, it returns the global default logger.
func GetLogger(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(ctxkey.KeyLogger).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return logger
}

// # Identity & Access

// WithSession returns a new context carrying a copy of the session snapshot.
//
// The value is copied so that no reader can mutate what the others observe.
func WithSession(ctx context.Context, session *sec.Session) context.Context {
	if session == nil {
		return ctx
	}
	snapshot := *session
	return context.WithValue(ctx, ctxkey.KeySession, snapshot)
}

// GetSession retrieves the session snapshot from the [context.Context].
// It returns nil for anonymous requests. Each call returns a fresh copy.
func GetSession(ctx context.Context) *sec.Session {
	snapshot, ok := ctx.Value(ctxkey.KeySession).(sec.Session)
	if !ok {
		return nil
	}
	return &snapshot
}

// # Cache Control

// WithRefetch marks ctx so that cached reads issued under it fetch again.
func WithRefetch(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxkey.KeyRefetch, true)
}

// WantsRefetch reports whether ctx was marked by [WithRefetch].
func WantsRefetch(ctx context.Context) bool {
	refetch, _ := ctx.Value(ctxkey.KeyRefetch).(bool)
	return refetch
}
