// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package middleware provides the HTTP middleware chain for the Farmgate web server.
//
// # Architecture
//
// Middleware intercepts incoming HTTP requests to apply global policies
// before they reach the domain handlers. This includes cross-cutting concerns
// like Logging, Session decoding, Rate Limiting, and CORS.
package middleware

import (
	"log/slog"
	"net/http"

	"github.com/taibuivan/farmgate/internal/platform/apperr"
	"github.com/taibuivan/farmgate/internal/platform/ctxutil"
	"github.com/taibuivan/farmgate/internal/platform/respond"
	"github.com/taibuivan/farmgate/internal/platform/sec"
)

// SessionDecoder defines the interface needed to decode the session cookie.
//
// # Why an interface?
//
// Defining SessionDecoder here decouples the middleware from the codec
// implementation, allowing us to easily inject fakes during unit testing.
type SessionDecoder interface {
	Decode(token string) (*sec.Session, error)
}

// LoadSession decodes the session cookie once per request.
//
// # Flow
//  1. Read the session cookie.
//  2. If absent, request proceeds as anonymous.
//  3. If present but invalid or expired, it is treated as absent.
//  4. Inject the immutable [sec.Session] snapshot into the request context.
//
// Invalid cookies never produce an error response: authorization failures are
// handled by the route guard (pages) and [RequireSession] (API).
func LoadSession(decoder SessionDecoder, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			cookie, err := request.Cookie(cookieName)

			// ── 1. Anonymous Access ───────────────────────────────────────────
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 2. Token Verification ─────────────────────────────────────────
			session, err := decoder.Decode(cookie.Value)
			if err != nil {
				ctxutil.GetLogger(request.Context()).DebugContext(request.Context(), "session_cookie_rejected",
					slog.String("reason", err.Error()),
				)
				next.ServeHTTP(writer, request)
				return
			}

			// ── 3. Context Injection ──────────────────────────────────────────
			if recorder, ok := writer.(identityRecorder); ok {
				recorder.recordUser(session.UserID)
			}

			ctx := ctxutil.WithSession(request.Context(), session)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireSession blocks API requests that carry no valid session.
//
// # Usage
//
// Must be registered in the router AFTER [LoadSession].
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if ctxutil.GetSession(request.Context()) == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RequireRole blocks API requests whose session does not hold the given role.
//
// # Usage
//
// Must be registered in the router AFTER [LoadSession]. It implies
// [RequireSession] so you don't need to mount both.
func RequireRole(role sec.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			session := ctxutil.GetSession(request.Context())

			// ── 1. Authentication Check ───────────────────────────────────────
			if session == nil {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}

			// ── 2. Authorization Check ────────────────────────────────────────
			if session.Role != role {
				respond.Error(writer, request, apperr.Forbidden("Insufficient permissions"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
