// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package request provides utilities for extracting data from HTTP requests.

It abstracts away the underlying router's parameter extraction and common
body decoding patterns, ensuring consistent error handling and type safety.
*/
package requestutil

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/taibuivan/farmgate/internal/platform/apperr"
	"github.com/taibuivan/farmgate/internal/platform/ctxutil"
	"github.com/taibuivan/farmgate/internal/platform/sec"
	"github.com/taibuivan/farmgate/internal/platform/validate"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

/*
DecodeJSON reads the request body and decodes it into the target structure.

Parameters:
  - request: *http.Request
  - target: interface{} (Pointer to the destination struct)

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(request *http.Request, target interface{}) error {
	body := http.MaxBytesReader(nil, request.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
Param retrieves a named URL parameter from the request.
*/
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

/*
Session extracts the session snapshot from the request context.

Returns nil if the request is anonymous.
*/
func Session(request *http.Request) *sec.Session {
	return ctxutil.GetSession(request.Context())
}

/*
RequiredSession ensures the request carries a session and returns it.

Returns:
  - *sec.Session: The session snapshot
  - error: apperr.Unauthorized if the request is anonymous
*/
func RequiredSession(request *http.Request) (*sec.Session, error) {

	// Get the session snapshot
	session := ctxutil.GetSession(request.Context())

	// If the visitor is not signed in, return an error
	if session == nil {
		return nil, apperr.Unauthorized("Authentication required")
	}

	return session, nil
}
