// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/farmgate/internal/platform/backend"
	"github.com/taibuivan/farmgate/internal/platform/constants"
	"github.com/taibuivan/farmgate/internal/platform/ctxutil"
	"github.com/taibuivan/farmgate/internal/platform/respond"
	"github.com/taibuivan/farmgate/internal/platform/sec"
	"github.com/taibuivan/farmgate/internal/session"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type fixture struct {
	handler *session.Handler
	codec   *sec.SessionCodec
	calls   atomic.Int32
}

func newFixture(t *testing.T, backendResponse func(w http.ResponseWriter, r *http.Request)) *fixture {
	t.Helper()

	f := &fixture{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		backendResponse(w, r)
	}))
	t.Cleanup(server.Close)

	codec, err := sec.NewSessionCodec(testSecret, constants.SessionIssuer, 24*time.Hour)
	require.NoError(t, err)

	f.codec = codec
	service := session.NewService(backend.NewClient(server.URL, time.Second), codec)
	f.handler = session.NewHandler(service, session.Cookies{})
	return f
}

func postLogin(f *fixture, body string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	recorder := httptest.NewRecorder()
	f.handler.Routes().ServeHTTP(recorder, request)
	return recorder
}

/*
TestLogin_RejectedCredentials shows the backend message and sets no cookie.
*/
func TestLogin_RejectedCredentials(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"message":"Invalid credentials"}`))
	})

	recorder := postLogin(f, `{"email":"a@b.com","password":"wrong"}`)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Empty(t, recorder.Result().Cookies())

	var envelope respond.ErrorEnvelope
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&envelope))
	assert.Equal(t, "Invalid credentials", envelope.Error)
	assert.Equal(t, "UNAUTHORIZED", envelope.Code)
	assert.Equal(t, int32(1), f.calls.Load())
}

/*
TestLogin_FallbackMessage uses the default text when the backend sends none.
*/
func TestLogin_FallbackMessage(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	recorder := postLogin(f, `{"email":"a@b.com","password":"wrong"}`)

	var envelope respond.ErrorEnvelope
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&envelope))
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Equal(t, session.DefaultLoginFailure, envelope.Error)
}

/*
TestLogin_BackendDown keeps the 502 instead of blaming the credentials.
*/
func TestLogin_BackendDown(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	recorder := postLogin(f, `{"email":"a@b.com","password":"pw"}`)
	assert.Equal(t, http.StatusBadGateway, recorder.Code)
}

/*
TestLogin_ValidationBeforeNetwork never calls the backend for a bad form.
*/
func TestLogin_ValidationBeforeNetwork(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("backend must not be called")
	})

	recorder := postLogin(f, `{"email":"not-an-email","password":""}`)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, int32(0), f.calls.Load())
}

/*
TestLogin_Success sets a cookie that decodes back into the backend identity.
*/
func TestLogin_Success(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":{"_id":"u9","data":{"role":"seller","user":{"farm":"f9","stripeAccountId":"acct_9"},"accessToken":"access-xyz","refreshToken":"refresh-xyz"}}}`))
	})

	recorder := postLogin(f, `{"email":"a@b.com","password":"pw"}`)
	require.Equal(t, http.StatusOK, recorder.Code)

	cookies := recorder.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, constants.SessionCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	decoded, err := f.codec.Decode(cookies[0].Value)
	require.NoError(t, err)
	assert.Equal(t, "u9", decoded.UserID)
	assert.Equal(t, sec.RoleSeller, decoded.Role)
	assert.Equal(t, "f9", decoded.Farm)
	assert.Equal(t, "access-xyz", decoded.AccessToken)

	var envelope struct {
		Data struct {
			User       sec.Identity `json:"user"`
			RedirectTo string       `json:"redirect_to"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&envelope))
	assert.Equal(t, "u9", envelope.Data.User.UserID)
	assert.Equal(t, "/dashboard", envelope.Data.RedirectTo)
	assert.NotContains(t, recorder.Body.String(), "access-xyz")
}

/*
TestLogin_UnknownRole refuses accounts the marketplace does not serve.
*/
func TestLogin_UnknownRole(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":{"_id":"u1","data":{"role":"admin"}}}`))
	})

	recorder := postLogin(f, `{"email":"a@b.com","password":"pw"}`)
	assert.Equal(t, http.StatusForbidden, recorder.Code)
	assert.Empty(t, recorder.Result().Cookies())
}

/*
TestLogout expires the cookie.
*/
func TestLogout(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {})

	request := httptest.NewRequest(http.MethodPost, "/logout", nil)
	recorder := httptest.NewRecorder()
	f.handler.Routes().ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusNoContent, recorder.Code)
	cookies := recorder.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, constants.SessionCookieName, cookies[0].Name)
	assert.Less(t, cookies[0].MaxAge, 0)
	assert.Equal(t, int32(0), f.calls.Load())
}

/*
TestCurrent returns the identity snapshot or 401.
*/
func TestCurrent(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {})

	anonymous := httptest.NewRecorder()
	f.handler.Current(anonymous, httptest.NewRequest(http.MethodGet, "/api/session", nil))
	assert.Equal(t, http.StatusUnauthorized, anonymous.Code)

	request := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	request = request.WithContext(ctxutil.WithSession(request.Context(), &sec.Session{
		UserID: "u1", Role: sec.RoleBuyer, AccessToken: "secret-token",
	}))
	recorder := httptest.NewRecorder()
	f.handler.Current(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"id":"u1"`)
	assert.NotContains(t, recorder.Body.String(), "secret-token")
}
