// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package redis provides the shared Redis client of the Farmgate web tier.

Three features keep short-lived state here so that every replica observes
the same values:

  - OTP resend countdowns (SET NX with a TTL).
  - Reverse-geocoding results keyed by geohash cell.
  - Session-scoped UI flags, expiring with the session.

None of it is durable; losing Redis degrades those features and the
readiness probe, never the pages themselves.
*/
package redis

import (
	stdctx "context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Connection timeouts and pool defaults.
const (
	dialTimeout  = 3 * time.Second
	readTimeout  = 2 * time.Second
	writeTimeout = 2 * time.Second
	pingTimeout  = 2 * time.Second

	DefaultPoolSize     = 10
	DefaultMinIdleConns = 2
)

// Options configure [NewClient].
type Options struct {
	// URL is a redis:// or rediss:// connection URL.
	URL string

	// PoolSize caps open connections per replica. Zero uses [DefaultPoolSize].
	PoolSize int

	// MinIdleConns are kept warm for the geocode and flag lookups on the hot path.
	MinIdleConns int
}

func (o *Options) applyDefaults() {
	if o.PoolSize <= 0 {
		o.PoolSize = DefaultPoolSize
	}
	if o.MinIdleConns < 0 || o.MinIdleConns > o.PoolSize {
		o.MinIdleConns = min(DefaultMinIdleConns, o.PoolSize)
	}
}

// NewClient parses options.URL, sizes the pool and pings the server.
//
// # Parameters
//   - context: Context for the initial ping.
//   - options: Connection URL and pool sizing.
//   - logger: Structured logger for connection events.
func NewClient(context stdctx.Context, options Options, logger *slog.Logger) (*redis.Client, error) {
	options.applyDefaults()

	parsed, err := redis.ParseURL(options.URL)
	if err != nil {
		return nil, fmt.Errorf("redis: invalid URL: %w", err)
	}

	parsed.PoolSize = options.PoolSize
	parsed.MinIdleConns = options.MinIdleConns
	parsed.MaxIdleConns = max(options.MinIdleConns, options.PoolSize/2)

	parsed.DialTimeout = dialTimeout
	parsed.ReadTimeout = readTimeout
	parsed.WriteTimeout = writeTimeout

	client := redis.NewClient(parsed)

	// Validate connectivity immediately at startup.
	if err := Ping(context, client); err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.Info("redis client connected",
		slog.String("addr", parsed.Addr),
		slog.Int("db", parsed.DB),
		slog.Int("pool_size", parsed.PoolSize),
		slog.Int("min_idle_conns", parsed.MinIdleConns),
	)

	return client, nil
}

// Ping verifies that the Redis client is healthy. Used by the readiness probe.
func Ping(context stdctx.Context, client *redis.Client) error {
	pingCtx, cancel := stdctx.WithTimeout(context, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		stats := client.PoolStats()
		return fmt.Errorf("redis: ping failed (pool total=%d idle=%d timeouts=%d): %w",
			stats.TotalConns, stats.IdleConns, stats.Timeouts, err)
	}

	return nil
}
