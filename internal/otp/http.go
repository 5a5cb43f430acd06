// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package otp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/farmgate/internal/platform/apperr"
	"github.com/taibuivan/farmgate/internal/platform/constants"
	requestutil "github.com/taibuivan/farmgate/internal/platform/request"
	"github.com/taibuivan/farmgate/internal/platform/respond"
	"github.com/taibuivan/farmgate/internal/platform/validate"
	"github.com/taibuivan/farmgate/internal/session"
)

// Form field identifiers.
const (
	FieldEmail           = "email"
	FieldOTP             = "otp"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirm_password"
)

// minPasswordLength mirrors the backend's password rule.
const minPasswordLength = 8

// # Definitions & Constructors

// Handler implements the password reset endpoints.
type Handler struct {
	otpService *Service
	cookies    session.Cookies
	ticketTTL  time.Duration
}

// NewHandler constructs a new [Handler].
func NewHandler(service *Service, cookies session.Cookies, ticketTTL time.Duration) *Handler {
	return &Handler{otpService: service, cookies: cookies, ticketTTL: ticketTTL}
}

// Routes returns the password reset routes, mounted at /api/password.
//
// # Endpoints
//   - POST /forgot-password : Emails a code.
//   - POST /resend-otp      : Emails a new code once the countdown ends.
//   - GET  /otp-status      : Countdown for ?email=.
//   - POST /verify-otp      : Checks the code and sets the reset ticket cookie.
//   - POST /reset-password  : Sets the new password.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Post("/forgot-password", handler.request)
	router.Post("/resend-otp", handler.resend)
	router.Get("/otp-status", handler.status)
	router.Post("/verify-otp", handler.verify)
	router.Post("/reset-password", handler.resetPassword)
	return router
}

// # Request Payloads

type emailRequest struct {
	Email string `json:"email"`
}

type verifyRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type resetPasswordRequest struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

/*
Request emails a password reset code.

POST /api/password/forgot-password

Request:
  - Body: emailRequest (Email)

Response:
  - 200: Countdown: Backend notice and seconds until resend
  - 400: ErrValidation: Invalid email
  - 429: ErrRateLimited: Countdown still running
*/
func (handler *Handler) request(writer http.ResponseWriter, request *http.Request) {
	email, ok := handler.decodeEmail(writer, request)
	if !ok {
		return
	}

	countdown, err := handler.otpService.Request(request.Context(), email)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, countdown)
}

/*
Resend emails a fresh code once the countdown has elapsed.

POST /api/password/resend-otp
*/
func (handler *Handler) resend(writer http.ResponseWriter, request *http.Request) {
	email, ok := handler.decodeEmail(writer, request)
	if !ok {
		return
	}

	countdown, err := handler.otpService.Resend(request.Context(), email)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, countdown)
}

/*
Status reports the resend countdown so the page can render it on load.

GET /api/password/otp-status?email=
*/
func (handler *Handler) status(writer http.ResponseWriter, request *http.Request) {
	email := request.URL.Query().Get(FieldEmail)

	validator := &validate.Validator{}
	validator.Required(FieldEmail, email).Email(FieldEmail, email)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	countdown, err := handler.otpService.Status(request.Context(), email)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, countdown)
}

/*
Verify checks the 6-digit code.

POST /api/password/verify-otp

Description: The code is pasted into a fresh [Challenge]; anything that is
not exactly six digits is rejected before the backend is called.

Request:
  - Body: verifyRequest (Email, OTP)

Response:
  - 200: Message: Code accepted, reset ticket cookie set
  - 400: ErrValidation: Malformed code or email
  - 422: ErrUnprocessable: Backend rejected the code
*/
func (handler *Handler) verify(writer http.ResponseWriter, request *http.Request) {
	var input verifyRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Digits(FieldOTP, input.OTP, Length)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	challenge := NewChallenge(input.Email)
	challenge.Paste(input.OTP)

	verified, err := handler.otpService.Verify(request.Context(), challenge)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.cookies.Set(writer, constants.ResetTicketCookieName, verified.Ticket, time.Now().Add(handler.ticketTTL))
	respond.Message(writer, verified.Message)
}

/*
ResetPassword sets the new password.

POST /api/password/reset-password

Request:
  - Cookie: reset ticket from /verify-otp
  - Body: resetPasswordRequest (Password, ConfirmPassword)

Response:
  - 200: Message: Password updated, ticket cookie cleared
  - 400: ErrValidation: Weak or mismatched password
  - 401: ErrUnauthorized: Missing or expired ticket
*/
func (handler *Handler) resetPassword(writer http.ResponseWriter, request *http.Request) {
	cookie, err := request.Cookie(constants.ResetTicketCookieName)
	if err != nil || cookie.Value == "" {
		respond.Error(writer, request, apperr.Unauthorized("Please verify your email before choosing a new password."))
		return
	}

	var input resetPasswordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, minPasswordLength).
		Custom(FieldConfirmPassword, input.Password != input.ConfirmPassword, "Passwords do not match")

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	message, err := handler.otpService.ResetPassword(request.Context(), cookie.Value, input.Password)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.cookies.Clear(writer, constants.ResetTicketCookieName)
	respond.Message(writer, message)
}

func (handler *Handler) decodeEmail(writer http.ResponseWriter, request *http.Request) (string, bool) {
	var input emailRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return "", false
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).Email(FieldEmail, input.Email)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return "", false
	}
	return input.Email, true
}
