// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command web is the entry point for the Farmgate marketplace web server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to Redis.
//  4. Build the session codec, backend client and query cache.
//  5. Wire HTTP handlers.
//  6. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taibuivan/farmgate/internal/api"
	"github.com/taibuivan/farmgate/internal/blog"
	"github.com/taibuivan/farmgate/internal/contact"
	"github.com/taibuivan/farmgate/internal/dashboard"
	"github.com/taibuivan/farmgate/internal/flags"
	"github.com/taibuivan/farmgate/internal/location"
	"github.com/taibuivan/farmgate/internal/otp"
	"github.com/taibuivan/farmgate/internal/platform/backend"
	"github.com/taibuivan/farmgate/internal/platform/config"
	"github.com/taibuivan/farmgate/internal/platform/constants"
	redisstore "github.com/taibuivan/farmgate/internal/platform/redis"
	"github.com/taibuivan/farmgate/internal/platform/sec"
	"github.com/taibuivan/farmgate/internal/profile"
	"github.com/taibuivan/farmgate/internal/query"
	"github.com/taibuivan/farmgate/internal/review"
	"github.com/taibuivan/farmgate/internal/session"
	"github.com/taibuivan/farmgate/internal/web"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("service_initializing", slog.String("version", constants.AppVersion))

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("backend", cfg.APIBaseURL),
	)

	// Root context lives as long as the process; background workers stop with it.
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	startupCtx, startupCancel := context.WithTimeout(rootCtx, 30*time.Second)
	defer startupCancel()

	// ── 3. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, redisstore.Options{
		URL:          cfg.RedisURL,
		PoolSize:     cfg.RedisPoolSize,
		MinIdleConns: cfg.RedisMinIdleConns,
	}, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 4. Core Services ──────────────────────────────────────────────────
	codec, err := sec.NewSessionCodec(cfg.SessionSecret, constants.SessionIssuer, cfg.SessionMaxAge)
	must(log, err, "initialize session codec")

	backendClient := backend.NewClient(cfg.APIBaseURL, cfg.BackendTimeout)

	queries := query.NewClient(rootCtx, query.Options{
		StaleTime:  cfg.QueryStaleTime,
		ErrorTime:  cfg.QueryErrorTime,
		GCTime:     cfg.QueryGCTime,
		MaxEntries: cfg.QueryMaxEntries,
		Logger:     log.With(slog.String("component", "query")),
	})

	geocoder := location.NewCachedGeocoder(
		location.NewHTTPGeocoder(cfg.GeocoderURL, cfg.BackendTimeout),
		rdb, cfg.GeocodeCacheTTL, log.With(slog.String("component", "geocoder")),
	)

	cookies := session.Cookies{Secure: !cfg.IsDevelopment()}

	// ── 5. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckCache: func(ctx context.Context) error {
			return redisstore.Ping(ctx, rdb)
		},
		CheckBackend: backendClient.Reachable,
	}, log)

	// ── 6. Domain Wiring ──────────────────────────────────────────────────
	sessionService := session.NewService(backendClient, codec)
	otpService := otp.NewService(backendClient, otp.NewCooldownRepository(rdb), codec, cfg.OTPResendCooldown, constants.ResetTicketTTL)
	profileService := profile.NewService(backendClient, queries)
	reviewService := review.NewService(backendClient, queries)

	originPatterns := cfg.AllowedOrigins()
	if cfg.IsDevelopment() {
		originPatterns = append(originPatterns, "*")
	}

	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Session:   session.NewHandler(sessionService, cookies),
		OTP:       otp.NewHandler(otpService, cookies, constants.ResetTicketTTL),
		Profile:   profile.NewHandler(profileService),
		Blog:      blog.NewHandler(blog.NewService(backendClient, queries)),
		Review:    review.NewHandler(reviewService),
		Contact:   contact.NewHandler(backendClient),
		Dashboard: dashboard.NewHandler(dashboard.NewService(profileService, reviewService)),
		Flags:     flags.NewHandler(flags.NewRepository(rdb), cookies),
		Location:  location.NewHandler(geocoder, cfg.GeocodeDebounce, originPatterns, log.With(slog.String("component", "picker"))),
		Pages:     web.NewHandler(os.DirFS(cfg.StaticDir)),
	}

	server := api.NewServer(rootCtx, cfg, log, codec, handlers)

	// ── 7. Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
