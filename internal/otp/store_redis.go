// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package otp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/farmgate/internal/platform/constants"
)

// RedisCooldownRepository implements [CooldownRepository] with one expiring key per email.
type RedisCooldownRepository struct {
	client *redis.Client
}

// NewCooldownRepository creates a new Redis-backed CooldownRepository.
func NewCooldownRepository(client *redis.Client) *RedisCooldownRepository {
	return &RedisCooldownRepository{client: client}
}

/*
Start begins the countdown with SET NX so concurrent requests cannot both win.

Parameters:
  - ctx: context.Context
  - email: string
  - ttl: time.Duration

Returns:
  - started: bool (false when a countdown was already running)
  - remaining: time.Duration left on the running countdown
  - error: Connectivity errors
*/
func (repository *RedisCooldownRepository) Start(ctx context.Context, email string, ttl time.Duration) (bool, time.Duration, error) {
	key := cooldownKey(email)

	// The running key may expire between SET NX and PTTL; one retry covers it.
	for attempt := 0; attempt < 2; attempt++ {
		started, err := repository.client.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
		if err != nil {
			return false, 0, fmt.Errorf("redis_otp_cooldown_start_failed: %w", err)
		}
		if started {
			return true, 0, nil
		}

		remaining, err := repository.Remaining(ctx, email)
		if err != nil {
			return false, 0, err
		}
		if remaining > 0 {
			return false, remaining, nil
		}
	}

	return false, time.Second, nil
}

/*
Remaining returns the time left on the countdown.

Parameters:
  - ctx: context.Context
  - email: string

Returns:
  - time.Duration: Zero when no countdown is running
  - error: Connectivity errors
*/
func (repository *RedisCooldownRepository) Remaining(ctx context.Context, email string) (time.Duration, error) {
	remaining, err := repository.client.PTTL(ctx, cooldownKey(email)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis_otp_cooldown_ttl_failed: %w", err)
	}

	// PTTL reports -2 (missing) and -1 (no expiry) as negative durations.
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}

// Clear deletes the countdown key.
func (repository *RedisCooldownRepository) Clear(ctx context.Context, email string) error {
	if err := repository.client.Del(ctx, cooldownKey(email)).Err(); err != nil {
		return fmt.Errorf("redis_otp_cooldown_clear_failed: %w", err)
	}
	return nil
}

func cooldownKey(email string) string {
	return constants.RedisPrefixOTPCooldown + strings.ToLower(strings.TrimSpace(email))
}
