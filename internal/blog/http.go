// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package blog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/farmgate/internal/platform/request"
	"github.com/taibuivan/farmgate/internal/platform/respond"
	"github.com/taibuivan/farmgate/internal/platform/validate"
	"github.com/taibuivan/farmgate/pkg/pagination"
)

// Handler implements the blog endpoints.
type Handler struct {
	blogService *Service
}

// NewHandler constructs a new [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{blogService: service}
}

// Routes returns the blog routes.
//
// # Endpoints
//   - GET /      : One page of articles (?page=&limit=).
//   - GET /{id}  : A single article.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", handler.list)
	router.Get("/{id}", handler.get)
	return router
}

/*
List returns one page of articles.

GET /api/blogs?page=&limit=

Response:
  - 200: pagination.Page[Article]: Items plus total, pages and showing range
  - 502: ErrUpstream: Backend unavailable
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	page, err := handler.blogService.List(request.Context(), pagination.FromRequest(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, page)
}

/*
Get returns one article.

GET /api/blogs/{id}

Response:
  - 200: Article
  - 404: ErrNotFound
*/
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.Param(request, "id")
	if err := (&validate.Validator{}).MaxLen("id", id, 64).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	article, err := handler.blogService.Get(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, article)
}
