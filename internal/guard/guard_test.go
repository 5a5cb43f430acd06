// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package guard_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/farmgate/internal/guard"
	"github.com/taibuivan/farmgate/internal/platform/ctxutil"
	"github.com/taibuivan/farmgate/internal/platform/sec"
)

var (
	buyer  = &sec.Session{UserID: "u1", Role: sec.RoleBuyer}
	seller = &sec.Session{UserID: "u2", Role: sec.RoleSeller}
)

/*
TestDecide_DashboardRequiresSeller checks every dashboard path against every session kind.
*/
func TestDecide_DashboardRequiresSeller(t *testing.T) {
	paths := []string{"/dashboard", "/dashboard/", "/dashboard/products", "/dashboard/orders/42"}

	for _, p := range paths {
		t.Run(p, func(t *testing.T) {
			assert.Equal(t, guard.RedirectTo("/"), guard.Decide(p, nil), "anonymous")
			assert.Equal(t, guard.RedirectTo("/"), guard.Decide(p, buyer), "buyer")
			assert.True(t, guard.Decide(p, seller).Allowed(), "seller")
		})
	}
}

/*
TestDecide_PublicOnlyPagesRedirectSignedIn checks the public-only page set.
*/
func TestDecide_PublicOnlyPagesRedirectSignedIn(t *testing.T) {
	paths := []string{"/login", "/forgot-password", "/update-password", "/verify-otp", "/login/"}

	for _, p := range paths {
		t.Run(p, func(t *testing.T) {
			assert.True(t, guard.Decide(p, nil).Allowed(), "anonymous")
			assert.Equal(t, guard.RedirectTo("/"), guard.Decide(p, buyer), "buyer")
			assert.Equal(t, guard.RedirectTo("/"), guard.Decide(p, seller), "seller")
		})
	}
}

/*
TestDecide_NonCanonicalPaths resolves each path to the page the server would serve.
*/
func TestDecide_NonCanonicalPaths(t *testing.T) {
	for _, p := range []string{
		"/./dashboard",
		"/dashboard/./",
		"/dashboard/../dashboard",
		"//dashboard",
		"/api/../dashboard",
		"/dashboard.html",
		"/dashboard.HTM",
		"/dashboard/index.html",
		"/dashboard/products.html",
	} {
		t.Run(p, func(t *testing.T) {
			assert.Equal(t, guard.RedirectTo("/"), guard.Decide(p, nil), "anonymous")
			assert.Equal(t, guard.RedirectTo("/"), guard.Decide(p, buyer), "buyer")
			assert.True(t, guard.Decide(p, seller).Allowed(), "seller")
		})
	}

	for _, p := range []string{"/login.html", "/./verify-otp", "/forgot-password/index.html"} {
		assert.Equal(t, guard.RedirectTo("/"), guard.Decide(p, buyer), p)
	}
}

/*
TestPagePath maps request paths to canonical pages.
*/
func TestPagePath(t *testing.T) {
	tests := map[string]string{
		"":                     "/",
		"/index.html":          "/",
		"/./dashboard/":        "/dashboard",
		"/dashboard.html":      "/dashboard",
		"/dashboard/index.htm": "/dashboard",
		"/blogs/../contact":    "/contact",
		"/images/logo.png":     "/images/logo.png",
	}

	for input, want := range tests {
		assert.Equal(t, want, guard.PagePath(input), input)
	}
}

/*
TestDecide_Bypass verifies that assets and API paths are never guarded.
*/
func TestDecide_Bypass(t *testing.T) {
	paths := []string{
		"/api/session",
		"/api",
		"/_next/static/chunk.js",
		"/images/logo.png",
		"/favicon.ico",
		"/dashboard/report.pdf",
		"/login/background.jpg",
	}

	for _, p := range paths {
		t.Run(p, func(t *testing.T) {
			assert.True(t, guard.Decide(p, nil).Allowed())
			assert.True(t, guard.Decide(p, buyer).Allowed())
		})
	}
}

/*
TestDecide_PassThrough covers the remaining pages.
*/
func TestDecide_PassThrough(t *testing.T) {
	for _, p := range []string{"/", "/blogs", "/blogs/abc", "/contact", "/loginx", "/dashboards"} {
		assert.True(t, guard.Decide(p, nil).Allowed(), p)
		assert.True(t, guard.Decide(p, buyer).Allowed(), p)
	}
}

/*
TestMiddleware issues a 307 on redirect and calls through otherwise.
*/
func TestMiddleware(t *testing.T) {
	reached := false
	handler := guard.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))

	t.Run("redirect", func(t *testing.T) {
		reached = false
		request := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		recorder := httptest.NewRecorder()

		handler.ServeHTTP(recorder, request)

		assert.False(t, reached)
		assert.Equal(t, http.StatusTemporaryRedirect, recorder.Code)
		assert.Equal(t, "/", recorder.Header().Get("Location"))
	})

	t.Run("allow", func(t *testing.T) {
		reached = false
		request := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		request = request.WithContext(ctxutil.WithSession(request.Context(), seller))
		recorder := httptest.NewRecorder()

		handler.ServeHTTP(recorder, request)

		assert.True(t, reached)
		assert.Equal(t, http.StatusOK, recorder.Code)
	})
}
