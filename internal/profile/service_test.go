// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package profile_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/farmgate/internal/platform/backend"
	"github.com/taibuivan/farmgate/internal/platform/constants"
	"github.com/taibuivan/farmgate/internal/platform/ctxutil"
	"github.com/taibuivan/farmgate/internal/platform/sec"
	"github.com/taibuivan/farmgate/internal/profile"
	"github.com/taibuivan/farmgate/internal/query"
)

func newHandler(t *testing.T, calls *atomic.Int32, body string) *profile.Handler {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("Authorization") != "Bearer access-xyz" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	service := profile.NewService(backend.NewClient(server.URL, time.Second), query.NewClient(ctx, query.Options{}))
	return profile.NewHandler(service)
}

func me(handler *profile.Handler, session *sec.Session) *httptest.ResponseRecorder {
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	if session != nil {
		request = request.WithContext(ctxutil.WithSession(request.Context(), session))
	}
	recorder := httptest.NewRecorder()
	handler.Routes().ServeHTTP(recorder, request)
	return recorder
}

/*
TestMe_PlaceholderAvatarAndCache degrades a missing avatar and caches the profile.
*/
func TestMe_PlaceholderAvatarAndCache(t *testing.T) {
	var calls atomic.Int32
	handler := newHandler(t, &calls, `{"success":true,"data":{"name":"Lan","role":"seller"}}`)
	session := &sec.Session{UserID: "u1", Role: sec.RoleSeller, AccessToken: "access-xyz"}

	recorder := me(handler, session)
	require.Equal(t, http.StatusOK, recorder.Code)

	var envelope struct {
		Data profile.Profile `json:"data"`
	}
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&envelope))
	assert.Equal(t, profile.Profile{Name: "Lan", Role: sec.RoleSeller, Avatar: constants.PlaceholderAvatar}, envelope.Data)

	require.Equal(t, http.StatusOK, me(handler, session).Code)
	assert.Equal(t, int32(1), calls.Load())
}

/*
TestMe_Anonymous never calls the backend.
*/
func TestMe_Anonymous(t *testing.T) {
	var calls atomic.Int32
	handler := newHandler(t, &calls, `{}`)

	assert.Equal(t, http.StatusUnauthorized, me(handler, nil).Code)
	assert.Equal(t, int32(0), calls.Load())
}

/*
TestMe_RevokedBearer passes the backend 401 through.
*/
func TestMe_RevokedBearer(t *testing.T) {
	var calls atomic.Int32
	handler := newHandler(t, &calls, `{}`)

	recorder := me(handler, &sec.Session{UserID: "u2", Role: sec.RoleBuyer, AccessToken: "revoked"})
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}
