// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package flags_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/farmgate/internal/flags"
	"github.com/taibuivan/farmgate/internal/platform/constants"
	"github.com/taibuivan/farmgate/internal/platform/ctxutil"
	"github.com/taibuivan/farmgate/internal/platform/sec"
	"github.com/taibuivan/farmgate/internal/session"
)

func newHandler(t *testing.T) (*miniredis.Miniredis, http.Handler) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return server, flags.NewHandler(flags.NewRepository(client), session.Cookies{}).Routes()
}

func call(router http.Handler, method, path string, current *sec.Session, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	request := httptest.NewRequest(method, path, nil)
	if current != nil {
		request = request.WithContext(ctxutil.WithSession(request.Context(), current))
	}
	for _, cookie := range cookies {
		request.AddCookie(cookie)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder
}

func value(t *testing.T, recorder *httptest.ResponseRecorder) bool {
	t.Helper()
	require.Equal(t, http.StatusOK, recorder.Code)
	var envelope struct {
		Data flags.Flag `json:"data"`
	}
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&envelope))
	return envelope.Data.Value
}

/*
TestSessionFlags live in Redis and expire with the session.
*/
func TestSessionFlags(t *testing.T) {
	server, router := newHandler(t)
	now := time.Now()
	current := &sec.Session{UserID: "u1", Role: sec.RoleBuyer, IssuedAt: now, ExpiresAt: now.Add(time.Hour)}

	assert.False(t, value(t, call(router, http.MethodGet, "/welcome-modal", current)))
	assert.True(t, value(t, call(router, http.MethodPut, "/welcome-modal", current)))
	assert.True(t, value(t, call(router, http.MethodGet, "/welcome-modal", current)))

	ttl := server.TTL(flags.SessionKey(current))
	assert.True(t, ttl > 59*time.Minute && ttl <= time.Hour, "ttl %s", ttl)

	// A new sign-in starts clean.
	next := *current
	next.IssuedAt = now.Add(time.Minute)
	assert.False(t, value(t, call(router, http.MethodGet, "/welcome-modal", &next)))

	assert.False(t, value(t, call(router, http.MethodDelete, "/welcome-modal", current)))
	assert.False(t, value(t, call(router, http.MethodGet, "/welcome-modal", current)))
}

/*
TestAnonymousFlags use browser-session cookies.
*/
func TestAnonymousFlags(t *testing.T) {
	_, router := newHandler(t)

	recorder := call(router, http.MethodPut, "/welcome-modal", nil)
	assert.True(t, value(t, recorder))

	cookies := recorder.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, constants.FlagCookiePrefix+"welcome-modal", cookies[0].Name)
	assert.Zero(t, cookies[0].MaxAge)
	assert.True(t, cookies[0].HttpOnly)

	assert.True(t, value(t, call(router, http.MethodGet, "/welcome-modal", nil, cookies[0])))
	assert.False(t, value(t, call(router, http.MethodGet, "/welcome-modal", nil)))
}

/*
TestFlagName rejects names that are not slugs.
*/
func TestFlagName(t *testing.T) {
	_, router := newHandler(t)
	assert.Equal(t, http.StatusBadRequest, call(router, http.MethodGet, "/Bad_Name", nil).Code)
}

/*
TestRedisDown surfaces a server error for signed-in visitors.
*/
func TestRedisDown(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	server.Close()

	repository := flags.NewRepository(client)
	_, err := repository.Get(context.Background(), &sec.Session{UserID: "u1"}, "x")
	assert.ErrorContains(t, err, "redis_flag_get_failed")
}
