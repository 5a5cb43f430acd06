// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package flags

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/farmgate/internal/platform/constants"
	requestutil "github.com/taibuivan/farmgate/internal/platform/request"
	"github.com/taibuivan/farmgate/internal/platform/respond"
	"github.com/taibuivan/farmgate/internal/platform/validate"
	"github.com/taibuivan/farmgate/internal/session"
)

const (
	fieldName     = "name"
	maxNameLength = 64
	cookieValue   = "1"
)

// Flag is the state of one flag.
type Flag struct {
	Name  string `json:"name"`
	Value bool   `json:"value"`
}

// Handler implements the flag endpoints.
type Handler struct {
	repository Repository
	cookies    session.Cookies
}

// NewHandler constructs a new [Handler].
func NewHandler(repository Repository, cookies session.Cookies) *Handler {
	return &Handler{repository: repository, cookies: cookies}
}

// Routes returns the flag routes.
//
// # Endpoints
//   - GET    /{name} : Current value.
//   - PUT    /{name} : Raises the flag.
//   - DELETE /{name} : Lowers the flag.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/{name}", handler.get)
	router.Put("/{name}", handler.set)
	router.Delete("/{name}", handler.clear)
	return router
}

func (handler *Handler) name(request *http.Request) (string, error) {
	name := requestutil.Param(request, fieldName)
	err := (&validate.Validator{}).Slug(fieldName, name).MaxLen(fieldName, name, maxNameLength).Err()
	return name, err
}

func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	name, err := handler.name(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	current := requestutil.Session(request)
	if current == nil {
		cookie, err := request.Cookie(constants.FlagCookiePrefix + name)
		respond.OK(writer, Flag{Name: name, Value: err == nil && cookie.Value == cookieValue})
		return
	}

	value, err := handler.repository.Get(request.Context(), current, name)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, Flag{Name: name, Value: value})
}

func (handler *Handler) set(writer http.ResponseWriter, request *http.Request) {
	name, err := handler.name(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if current := requestutil.Session(request); current != nil {
		if err := handler.repository.Set(request.Context(), current, name); err != nil {
			respond.Error(writer, request, err)
			return
		}
	} else {
		handler.cookies.SetBrowserSession(writer, constants.FlagCookiePrefix+name, cookieValue)
	}

	respond.OK(writer, Flag{Name: name, Value: true})
}

func (handler *Handler) clear(writer http.ResponseWriter, request *http.Request) {
	name, err := handler.name(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if current := requestutil.Session(request); current != nil {
		if err := handler.repository.Clear(request.Context(), current, name); err != nil {
			respond.Error(writer, request, err)
			return
		}
	} else {
		handler.cookies.Clear(writer, constants.FlagCookiePrefix+name)
	}

	respond.OK(writer, Flag{Name: name, Value: false})
}
