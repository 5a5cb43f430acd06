// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ctxutil_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/farmgate/internal/platform/ctxutil"
	"github.com/taibuivan/farmgate/internal/platform/sec"
)

/*
TestContext_RequestID verifies that Request IDs can be injected and retrieved.
*/
func TestContext_RequestID(t *testing.T) {
	ctx := context.Background()
	requestID := "test-request-id"

	// 1. Initially should be empty
	assert.Empty(t, ctxutil.GetRequestID(ctx))

	// 2. Inject and retrieve
	ctx = ctxutil.WithRequestID(ctx, requestID)
	assert.Equal(t, requestID, ctxutil.GetRequestID(ctx))
}

/*
TestContext_Logger verifies that a custom logger can be stored in context.
*/
func TestContext_Logger(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// 1. Initially should return the default logger
	assert.Equal(t, slog.Default(), ctxutil.GetLogger(ctx))

	// 2. Inject and retrieve
	ctx = ctxutil.WithLogger(ctx, logger)
	assert.Equal(t, logger, ctxutil.GetLogger(ctx))
}

/*
TestContext_Session verifies that the session snapshot cannot be mutated by readers.
*/
func TestContext_Session(t *testing.T) {
	ctx := context.Background()
	session := &sec.Session{UserID: "user-123", Role: sec.RoleBuyer}

	// 1. Initially should be nil
	assert.Nil(t, ctxutil.GetSession(ctx))

	// 2. Inject and retrieve
	ctx = ctxutil.WithSession(ctx, session)
	first := ctxutil.GetSession(ctx)
	require.NotNil(t, first)
	assert.Equal(t, "user-123", first.UserID)

	// 3. Mutations by one reader are invisible to the next
	first.Role = sec.RoleSeller
	session.UserID = "changed"

	second := ctxutil.GetSession(ctx)
	assert.Equal(t, sec.RoleBuyer, second.Role)
	assert.Equal(t, "user-123", second.UserID)
}
