// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package guard decides, for every page navigation, whether the visitor may see
the requested path or must be redirected.

The decision is a pure function of the path and the decoded session (or its
absence). It is evaluated once per navigation, synchronously, with no retry.

Paths are first reduced to the page they resolve to: dot segments and
duplicate slashes are cleaned and "/x.html" or "/x/index.html" stand for "/x",
matching how the page server looks files up.

Rules:

  - Static assets and /api/ paths bypass every rule.
  - Public-only pages (/login, /forgot-password, /update-password, /verify-otp)
    redirect a signed-in visitor to /.
  - /dashboard redirects anyone who is not a signed-in seller to /.
  - Everything else passes through.
*/
package guard

import (
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/taibuivan/farmgate/internal/platform/ctxutil"
	"github.com/taibuivan/farmgate/internal/platform/sec"
)

// HomePath is where every redirect lands.
const HomePath = "/"

// # Route Tables

// publicOnlyPrefixes are the pages a signed-in visitor has no business on.
var publicOnlyPrefixes = []string{
	"/login",
	"/forgot-password",
	"/update-password",
	"/verify-otp",
}

// sellerPrefixes require a seller session.
var sellerPrefixes = []string{
	"/dashboard",
}

// bypassPrefixes are never guarded.
var bypassPrefixes = []string{
	"/api/",
	"/_next/",
	"/static/",
	"/assets/",
	"/images/",
	"/favicon.ico",
}

// # Decision

// Decision is the outcome of evaluating one navigation.
type Decision struct {
	// RedirectTo is empty when the navigation is allowed.
	RedirectTo string
}

// Allowed reports whether the navigation passes through unmodified.
func (d Decision) Allowed() bool {
	return d.RedirectTo == ""
}

// Allow is the pass-through decision.
var Allow = Decision{}

// RedirectTo builds a redirect decision.
func RedirectTo(target string) Decision {
	return Decision{RedirectTo: target}
}

/*
Decide evaluates the route rules for the page requestPath resolves to.

Parameters:
  - requestPath: string (URL path of the navigation)
  - session: *sec.Session (nil for anonymous or invalid cookies)

Returns:
  - Decision: Allow, or a redirect to [HomePath]
*/
func Decide(requestPath string, session *sec.Session) Decision {
	requestPath = PagePath(requestPath)

	if bypasses(requestPath) {
		return Allow
	}

	if matchesAny(requestPath, publicOnlyPrefixes) && session != nil {
		return RedirectTo(HomePath)
	}

	if matchesAny(requestPath, sellerPrefixes) && !session.IsSeller() {
		return RedirectTo(HomePath)
	}

	return Allow
}

// # Middleware

// Middleware applies [Decide] to every request using the session loaded earlier
// in the chain. Redirects use 307 so the method and body are preserved.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		decision := Decide(request.URL.Path, ctxutil.GetSession(request.Context()))

		if !decision.Allowed() {
			ctxutil.GetLogger(request.Context()).DebugContext(request.Context(), "navigation_redirected",
				slog.String("to", decision.RedirectTo),
			)
			http.Redirect(writer, request, decision.RedirectTo, http.StatusTemporaryRedirect)
			return
		}

		next.ServeHTTP(writer, request)
	})
}

// # Matching

// PagePath returns the canonical page for requestPath: "/./dashboard/",
// "/dashboard.html" and "/dashboard/index.html" all give "/dashboard".
// Paths with any other extension are returned cleaned.
func PagePath(requestPath string) string {
	cleaned := path.Clean("/" + requestPath)

	ext := path.Ext(cleaned)
	if !strings.EqualFold(ext, ".html") && !strings.EqualFold(ext, ".htm") {
		return cleaned
	}

	page := strings.TrimSuffix(cleaned, ext)
	if path.Base(page) == "index" {
		return path.Dir(page)
	}
	return page
}

func bypasses(requestPath string) bool {
	for _, prefix := range bypassPrefixes {
		if strings.HasPrefix(requestPath, prefix) {
			return true
		}
	}
	if requestPath == "/api" {
		return true
	}

	// Any file-like last segment (logo.svg, robots.txt) is an asset.
	return path.Ext(path.Base(requestPath)) != ""
}

// matchesAny reports whether requestPath is one of prefixes or lies beneath one.
// "/login" matches "/login" and "/login/x" but not "/loginx".
func matchesAny(requestPath string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if requestPath == prefix || strings.HasPrefix(requestPath, prefix+"/") {
			return true
		}
	}
	return false
}
