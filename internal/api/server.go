// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api wires together the HTTP router, middleware chain, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition root for the HTTP transport framework (chi router).
  - Only this package and cmd/web are allowed to import net/http server primitives.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taibuivan/farmgate/internal/blog"
	"github.com/taibuivan/farmgate/internal/contact"
	"github.com/taibuivan/farmgate/internal/dashboard"
	"github.com/taibuivan/farmgate/internal/flags"
	"github.com/taibuivan/farmgate/internal/guard"
	"github.com/taibuivan/farmgate/internal/location"
	"github.com/taibuivan/farmgate/internal/otp"
	"github.com/taibuivan/farmgate/internal/platform/config"
	"github.com/taibuivan/farmgate/internal/platform/constants"
	"github.com/taibuivan/farmgate/internal/platform/middleware"
	"github.com/taibuivan/farmgate/internal/platform/sec"
	"github.com/taibuivan/farmgate/internal/profile"
	"github.com/taibuivan/farmgate/internal/review"
	"github.com/taibuivan/farmgate/internal/session"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
type Handlers struct {
	// Liveness is the /health handler. Always 200 while the process runs.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler. 200 when Redis and the backend answer.
	Readiness http.HandlerFunc

	// Session handles sign-in, sign-out and the current identity.
	Session *session.Handler

	// OTP handles the forgot-password challenge.
	OTP *otp.Handler

	Profile   *profile.Handler
	Blog      *blog.Handler
	Review    *review.Handler
	Contact   *contact.Handler
	Dashboard *dashboard.Handler
	Flags     *flags.Handler

	// Location serves reverse geocoding and the live picker socket.
	Location *location.Handler

	// Pages serves the static browser pages behind the route guard.
	Pages http.Handler
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
func NewServer(context context.Context, cfg *config.Config, log *slog.Logger, decoder middleware.SessionDecoder, h Handlers) *Server {
	r := chi.NewRouter()

	// # Middleware Chain
	// Global middleware applied in order of execution. The request timeout is
	// applied per group so the picker socket can outlive it.
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(middleware.RateLimit(context))
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.LoadSession(decoder, constants.SessionCookieName))
	r.Use(middleware.CORS(cfg))
	r.Use(chimw.CleanPath)

	// # Infrastructure Endpoints
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)

	// # Long-lived Connections
	r.Get("/api/location/picker", h.Location.Picker)

	// # Application API
	r.Group(func(timed chi.Router) {
		timed.Use(chimw.Timeout(constants.GlobalRequestTimeout))
		timed.Use(middleware.Refetch)

		timed.Route("/api", func(api chi.Router) {
			api.Mount("/auth", h.Session.Routes())
			api.Mount("/password", h.OTP.Routes())
			api.Get("/session", h.Session.Current)
			api.Mount("/blogs", h.Blog.Routes())
			api.Mount("/contact", h.Contact.Routes())
			api.Mount("/flags", h.Flags.Routes())
			api.Mount("/location", h.Location.Routes())

			api.Group(func(private chi.Router) {
				private.Use(middleware.RequireSession)
				private.Mount("/me", h.Profile.Routes())
				private.Mount("/reviews", h.Review.Routes())
			})

			api.With(middleware.RequireRole(sec.RoleSeller)).Get("/dashboard", h.Dashboard.Overview)
		})

		// # Pages
		// Everything else is a page or an asset; the guard decides navigation.
		timed.With(guard.Middleware).Handle("/*", h.Pages)
	})

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// ServeHTTP exposes the router for in-process tests.
func (s *Server) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	s.router.ServeHTTP(writer, request)
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	context, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(context)
}
