// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package contact forwards the public contact form to the marketplace backend.
package contact

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/farmgate/internal/platform/backend"
	requestutil "github.com/taibuivan/farmgate/internal/platform/request"
	"github.com/taibuivan/farmgate/internal/platform/respond"
	"github.com/taibuivan/farmgate/internal/platform/validate"
)

// Form field identifiers.
const (
	FieldEmail   = "email"
	FieldName    = "name"
	FieldPhone   = "phone"
	FieldMessage = "message"
)

// Field limits.
const (
	maxNameLength    = 120
	maxPhoneLength   = 32
	maxMessageLength = 5000
)

// SentMessage confirms a delivered form.
const SentMessage = "Your message has been sent"

// Sender delivers a contact form.
type Sender interface {
	ContactUs(ctx context.Context, message backend.ContactMessage) error
}

// Handler implements the contact endpoint.
type Handler struct {
	sender Sender
}

// NewHandler constructs a new [Handler].
func NewHandler(sender Sender) *Handler {
	return &Handler{sender: sender}
}

// Routes returns the contact routes.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Post("/", handler.send)
	return router
}

/*
Send delivers the contact form.

POST /api/contact

Request:
  - email, name, phone, message: string (all required)

Response:
  - 200: {success, message}
  - 400: ErrValidation
  - 502: ErrUpstream
*/
func (handler *Handler) send(writer http.ResponseWriter, request *http.Request) {
	var input backend.ContactMessage
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	input.Email = strings.TrimSpace(input.Email)
	input.Name = strings.TrimSpace(input.Name)
	input.Phone = strings.TrimSpace(input.Phone)
	input.Message = strings.TrimSpace(input.Message)

	validator := &validate.Validator{}
	validator.
		Required(FieldEmail, input.Email).
		Required(FieldName, input.Name).
		MaxLen(FieldName, input.Name, maxNameLength).
		Required(FieldPhone, input.Phone).
		MaxLen(FieldPhone, input.Phone, maxPhoneLength).
		Required(FieldMessage, input.Message).
		MaxLen(FieldMessage, input.Message, maxMessageLength)

	if input.Email != "" {
		validator.Email(FieldEmail, input.Email)
	}

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.sender.ContactUs(request.Context(), input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Message(writer, SentMessage)
}
