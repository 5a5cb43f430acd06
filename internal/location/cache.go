// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package location

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mmcloughlin/geohash"
	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/farmgate/internal/platform/constants"
)

// CachePrecision is the geohash length of a cache cell (about 5 m x 5 m).
const CachePrecision = 9

// CachedGeocoder serves place names from Redis, keyed by the geohash cell of
// the point, and falls through to the wrapped [Geocoder] on a miss.
//
// Redis failures are logged and never fail a lookup. Only successes are cached.
type CachedGeocoder struct {
	next   Geocoder
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedGeocoder wraps next with a Redis cache.
func NewCachedGeocoder(next Geocoder, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedGeocoder {
	return &CachedGeocoder{next: next, client: client, ttl: ttl, logger: logger}
}

// CacheKey returns the Redis key of the cell containing point.
func CacheKey(point Point) string {
	return constants.RedisPrefixGeocode + geohash.EncodeWithPrecision(point.Latitude, point.Longitude, CachePrecision)
}

// Reverse implements [Geocoder].
func (geocoder *CachedGeocoder) Reverse(ctx context.Context, point Point) (string, error) {
	key := CacheKey(point)

	name, err := geocoder.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		return name, nil
	case errors.Is(err, redis.Nil):
	case ctx.Err() != nil:
		return "", ctx.Err()
	default:
		geocoder.logger.WarnContext(ctx, "geocode_cache_read_failed", slog.Any("error", err))
	}

	name, err = geocoder.next.Reverse(ctx, point)
	if err != nil {
		return "", err
	}

	if err := geocoder.client.Set(ctx, key, name, geocoder.ttl).Err(); err != nil {
		geocoder.logger.WarnContext(ctx, "geocode_cache_write_failed", slog.Any("error", err))
	}
	return name, nil
}
