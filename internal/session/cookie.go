// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"net/http"
	"time"
)

// Cookies writes the httpOnly cookies Farmgate owns.
//
// Secure is off in development so the cookies survive plain-HTTP localhost.
type Cookies struct {
	Secure bool
}

// Set writes name=value until expiresAt.
func (cookies Cookies) Set(writer http.ResponseWriter, name, value string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}

	http.SetCookie(writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   maxAge,
		Secure:   cookies.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// SetBrowserSession writes a cookie without expiry that dies with the browser session.
func (cookies Cookies) SetBrowserSession(writer http.ResponseWriter, name, value string) {
	http.SetCookie(writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Secure:   cookies.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear expires name immediately.
func (cookies Cookies) Clear(writer http.ResponseWriter, name string) {
	http.SetCookie(writer, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   cookies.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
