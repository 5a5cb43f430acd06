// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package flags keeps per-session UI flags such as "the welcome modal was shown".

Signed-in visitors store their flags in Redis under the session, expiring
together with it. Anonymous visitors get a browser-session cookie per flag.
*/
package flags

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/farmgate/internal/platform/constants"
	"github.com/taibuivan/farmgate/internal/platform/sec"
)

// Repository persists the flags of signed-in sessions.
type Repository interface {
	// Get reports whether name is set for the session.
	Get(ctx context.Context, session *sec.Session, name string) (bool, error)

	// Set raises name until the session expires.
	Set(ctx context.Context, session *sec.Session, name string) error

	// Clear lowers name.
	Clear(ctx context.Context, session *sec.Session, name string) error
}

// RedisRepository implements [Repository] with one hash per session.
type RedisRepository struct {
	client *redis.Client
}

// NewRepository creates a new Redis-backed Repository.
func NewRepository(client *redis.Client) *RedisRepository {
	return &RedisRepository{client: client}
}

// Get reads one hash field.
func (repository *RedisRepository) Get(ctx context.Context, session *sec.Session, name string) (bool, error) {
	exists, err := repository.client.HExists(ctx, SessionKey(session), name).Result()
	if err != nil {
		return false, fmt.Errorf("redis_flag_get_failed: %w", err)
	}
	return exists, nil
}

// Set writes the field and pins the hash expiry to the session's.
func (repository *RedisRepository) Set(ctx context.Context, session *sec.Session, name string) error {
	key := SessionKey(session)

	_, err := repository.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, name, time.Now().UTC().Format(time.RFC3339))
		pipe.ExpireAt(ctx, key, session.ExpiresAt)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis_flag_set_failed: %w", err)
	}
	return nil
}

// Clear deletes the field.
func (repository *RedisRepository) Clear(ctx context.Context, session *sec.Session, name string) error {
	if err := repository.client.HDel(ctx, SessionKey(session), name).Err(); err != nil {
		return fmt.Errorf("redis_flag_clear_failed: %w", err)
	}
	return nil
}

// SessionKey scopes flags to one sign-in: a new login starts with no flags.
func SessionKey(session *sec.Session) string {
	return constants.RedisPrefixFlags + session.UserID + ":" + strconv.FormatInt(session.IssuedAt.Unix(), 10)
}
