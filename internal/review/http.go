// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package review

import (
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
	FieldText   = "text"
	FieldRating = "rating"
)

// Handler implements the review endpoints.
type Handler struct {
	reviewService *Service
}

// NewHandler constructs a new [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{reviewService: service}
}

// Routes returns the review routes. Both require a session.
//
// # Endpoints
//   - GET  / : Reviews visible to the caller.
//   - POST / : Submits a website review.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", handler.list)
	router.Post("/", handler.submit)
	return router
}

type submitRequest struct {
	Text   string `json:"text"`
	Rating int    `json:"rating"`
}

func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	session, err := requestutil.RequiredSession(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	reviews, err := handler.reviewService.List(request.Context(), session)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, reviews)
}

/*
Submit posts a website review.

POST /api/reviews

Request:
  - text: string
  - rating: int (1..5)

Response:
  - 201: {message}
  - 400: ErrValidation: Missing text or rating out of range
  - 401: ErrUnauthorized: Anonymous caller
*/
func (handler *Handler) submit(writer http.ResponseWriter, request *http.Request) {
	session, err := requestutil.RequiredSession(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input submitRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	input.Text = strings.TrimSpace(input.Text)

	validator := &validate.Validator{}
	validator.
		Required(FieldText, input.Text).
		MaxLen(FieldText, input.Text, MaxTextLength).
		Range(FieldRating, input.Rating, MinRating, MaxRating)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	review := backend.ReviewInput{Text: input.Text, Rating: input.Rating}
	if err := handler.reviewService.Submit(request.Context(), session, review); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.JSON(writer, http.StatusCreated, respond.MessageEnvelope{Success: true, Message: "Thank you for your review"})
}
