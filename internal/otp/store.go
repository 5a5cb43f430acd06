// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package otp

import (
	"context"
	"time"
)

// CooldownRepository tracks the resend countdown of each email address.
//
// Implementations must be safe to share between server replicas so that a
// visitor cannot bypass the countdown by hitting another instance.
type CooldownRepository interface {
	// Start begins a countdown of length ttl unless one is already running.
	// It returns started=false and the time left when a countdown is active.
	Start(ctx context.Context, email string, ttl time.Duration) (started bool, remaining time.Duration, err error)

	// Remaining returns the time left on the countdown, zero when none runs.
	Remaining(ctx context.Context, email string) (time.Duration, error)

	// Clear stops the countdown.
	Clear(ctx context.Context, email string) error
}
