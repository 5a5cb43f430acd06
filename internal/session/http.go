// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/farmgate/internal/platform/constants"
	"github.com/taibuivan/farmgate/internal/platform/ctxutil"
	requestutil "github.com/taibuivan/farmgate/internal/platform/request"
	"github.com/taibuivan/farmgate/internal/platform/respond"
	"github.com/taibuivan/farmgate/internal/platform/sec"
	"github.com/taibuivan/farmgate/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements the sign-in, sign-out and identity endpoints.
type Handler struct {
	sessionService *Service
	cookies        Cookies
}

// NewHandler constructs a new [Handler].
func NewHandler(service *Service, cookies Cookies) *Handler {
	return &Handler{sessionService: service, cookies: cookies}
}

// Routes returns the authentication routes.
//
// # Endpoints
//   - POST /login  : Signs in and sets the session cookie.
//   - POST /logout : Clears the session cookie.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Post("/login", handler.login)
	router.Post("/logout", handler.logout)
	return router
}

// # Request Payloads

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User       sec.Identity `json:"user"`
	RedirectTo string       `json:"redirect_to"`
}

/*
Login signs a visitor in.

POST /api/auth/login

Description: Validates the form, exchanges the credentials with the backend and
sets the signed session cookie. On failure nothing is set and the backend's
message is returned for display.

Request:
  - Body: loginRequest (Email, Password)

Response:
  - 200: loginResponse: Identity and landing path
  - 400: ErrValidation: Missing or malformed fields
  - 401: ErrUnauthorized: Backend rejected the credentials
  - 502: ErrUpstream: Backend unavailable
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	signedIn, err := handler.sessionService.SignIn(request.Context(), input.Email, input.Password)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.cookies.Set(writer, constants.SessionCookieName, signedIn.Token, signedIn.ExpiresAt)

	ctxutil.GetLogger(request.Context()).InfoContext(request.Context(), "session_signed_in",
		slog.String("user_id", signedIn.Session.UserID),
		slog.String("role", string(signedIn.Session.Role)),
	)

	respond.OK(writer, loginResponse{
		User:       signedIn.Session.Identity(),
		RedirectTo: LandingPath(&signedIn.Session),
	})
}

/*
Logout signs the visitor out.

POST /api/auth/logout

Response:
  - 204: No Content: Cookie cleared (idempotent)
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	handler.cookies.Clear(writer, constants.SessionCookieName)
	respond.NoContent(writer)
}

/*
Current returns the identity carried by the session cookie.

GET /api/session

Response:
  - 200: sec.Identity
  - 401: ErrUnauthorized: No valid session
*/
func (handler *Handler) Current(writer http.ResponseWriter, request *http.Request) {
	session, err := requestutil.RequiredSession(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, session.Identity())
}
