// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/farmgate/internal/platform/constants"
	"github.com/taibuivan/farmgate/internal/platform/ctxutil"
	"github.com/taibuivan/farmgate/internal/platform/middleware"
	"github.com/taibuivan/farmgate/internal/platform/sec"
)

// stubDecoder accepts exactly one token.
type stubDecoder struct{}

func (stubDecoder) Decode(token string) (*sec.Session, error) {
	if token != "good" {
		return nil, errors.New("bad token")
	}
	return &sec.Session{UserID: "u1", Role: sec.RoleSeller, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

type stubConfig struct {
	development bool
	origins     []string
}

func (c stubConfig) IsDevelopment() bool      { return c.development }
func (c stubConfig) AllowedOrigins() []string { return c.origins }

func serve(handler http.Handler, request *http.Request) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}

/*
TestRequestID keeps a client ID and generates one otherwise.
*/
func TestRequestID(t *testing.T) {
	var seen string
	handler := middleware.RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ctxutil.GetRequestID(r.Context())
	}))

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set(constants.HeaderXRequestID, "client-id")
	recorder := serve(handler, request)
	assert.Equal(t, "client-id", seen)
	assert.Equal(t, "client-id", recorder.Header().Get(constants.HeaderXRequestID))

	recorder = serve(handler, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, seen, 36)
	assert.Equal(t, seen, recorder.Header().Get(constants.HeaderXRequestID))
}

/*
TestLoadSession_AccessLog injects the session and reports its user to the access log.
*/
func TestLoadSession_AccessLog(t *testing.T) {
	var buffer bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buffer, nil))

	var session *sec.Session
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session = ctxutil.GetSession(r.Context())
		w.WriteHeader(http.StatusAccepted)
	})
	handler := middleware.StructuredLogger(logger)(middleware.LoadSession(stubDecoder{}, constants.SessionCookieName)(inner))

	request := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	request.AddCookie(&http.Cookie{Name: constants.SessionCookieName, Value: "good"})
	serve(handler, request)

	require.NotNil(t, session)
	assert.Equal(t, "u1", session.UserID)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buffer.Bytes(), &line))
	assert.Equal(t, "http_request_finished", line["msg"])
	assert.Equal(t, "u1", line["user_id"])
	assert.EqualValues(t, http.StatusAccepted, line["status"])
}

/*
TestLoadSession_InvalidCookieIsAnonymous never rejects the request.
*/
func TestLoadSession_InvalidCookieIsAnonymous(t *testing.T) {
	called := false
	handler := middleware.LoadSession(stubDecoder{}, constants.SessionCookieName)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Nil(t, ctxutil.GetSession(r.Context()))
	}))

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.AddCookie(&http.Cookie{Name: constants.SessionCookieName, Value: "forged"})
	recorder := serve(handler, request)

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, recorder.Code)
}

/*
TestRequireRole answers 401 then 403 before reaching the handler.
*/
func TestRequireRole(t *testing.T) {
	handler := middleware.RequireRole(sec.RoleSeller)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name    string
		session *sec.Session
		want    int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"buyer", &sec.Session{UserID: "b", Role: sec.RoleBuyer}, http.StatusForbidden},
		{"seller", &sec.Session{UserID: "s", Role: sec.RoleSeller}, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.session != nil {
				request = request.WithContext(ctxutil.WithSession(request.Context(), tt.session))
			}
			assert.Equal(t, tt.want, serve(handler, request).Code)
		})
	}
}

/*
TestCORS allows listed origins with credentials and answers preflight.
*/
func TestCORS(t *testing.T) {
	handler := middleware.CORS(stubConfig{origins: []string{"https://farmgate.vn"}})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	request := httptest.NewRequest(http.MethodOptions, "/api/blogs", nil)
	request.Header.Set(constants.HeaderOrigin, "https://farmgate.vn")
	recorder := serve(handler, request)
	assert.Equal(t, http.StatusNoContent, recorder.Code)
	assert.Equal(t, "https://farmgate.vn", recorder.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", recorder.Header().Get("Access-Control-Allow-Credentials"))

	request = httptest.NewRequest(http.MethodGet, "/api/blogs", nil)
	request.Header.Set(constants.HeaderOrigin, "https://evil.example")
	recorder = serve(handler, request)
	assert.Empty(t, recorder.Header().Get("Access-Control-Allow-Origin"))
}

/*
TestPanicRecovery turns a panic into a 500 envelope.
*/
func TestPanicRecovery(t *testing.T) {
	handler := middleware.PanicRecovery(slog.Default())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	recorder := serve(handler, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "INTERNAL_SERVER_ERROR")
}

/*
TestRateLimit rejects bursts above the limit per client.
*/
func TestRateLimit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := middleware.RateLimit(ctx)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	limited := false
	for i := 0; i < constants.DefaultRateLimitBurst*2; i++ {
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request.RemoteAddr = "203.0.113.9:1234"
		if serve(handler, request).Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	assert.True(t, limited)
}

/*
TestRefetch marks the context only when the client asks for a fresh read.
*/
func TestRefetch(t *testing.T) {
	tests := []struct {
		name   string
		target string
		header http.Header
		want   bool
	}{
		{"plain", "/api/blogs", nil, false},
		{"cache_control", "/api/blogs", http.Header{"Cache-Control": {"No-Cache"}}, true},
		{"pragma", "/api/blogs", http.Header{"Pragma": {"no-cache"}}, true},
		{"max_age", "/api/blogs", http.Header{"Cache-Control": {"max-age=0"}}, false},
		{"param", "/api/blogs?page=2&refetch=1", nil, true},
		{"param_off", "/api/blogs?refetch=0", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var marked bool
			handler := middleware.Refetch(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				marked = ctxutil.WantsRefetch(r.Context())
			}))

			request := httptest.NewRequest(http.MethodGet, tt.target, nil)
			for name, values := range tt.header {
				request.Header[name] = values
			}
			serve(handler, request)

			assert.Equal(t, tt.want, marked)
		})
	}
}
