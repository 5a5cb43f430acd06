// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package profile exposes the signed-in user's marketplace profile.
package profile

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/farmgate/internal/platform/backend"
	"github.com/taibuivan/farmgate/internal/platform/constants"
	requestutil "github.com/taibuivan/farmgate/internal/platform/request"
	"github.com/taibuivan/farmgate/internal/platform/respond"
	"github.com/taibuivan/farmgate/internal/platform/sec"
	"github.com/taibuivan/farmgate/internal/query"
)

// ResourceProfile is the query resource of profiles.
const ResourceProfile = "profile"

// Backend fetches the bearer's profile.
type Backend interface {
	Profile(ctx context.Context, bearer string) (*backend.Profile, error)
}

// Profile is the browser view of the signed-in user.
type Profile struct {
	Name   string       `json:"name"`
	Role   sec.UserRole `json:"role"`
	Avatar string       `json:"avatar"`
}

// Service reads profiles through the query cache. Staleness follows the client default.
type Service struct {
	backend Backend
	queries *query.Client
}

// NewService constructs a new [Service].
func NewService(client Backend, queries *query.Client) *Service {
	return &Service{backend: client, queries: queries}
}

// Get returns the profile of the session's user.
func (service *Service) Get(ctx context.Context, session *sec.Session) (*Profile, error) {
	result := query.Do(ctx, service.queries, query.Query[*Profile]{
		Key: query.NewKey(ResourceProfile, url.Values{"user": {session.UserID}}),
		Fetch: func(ctx context.Context) (*Profile, error) {
			profile, err := service.backend.Profile(ctx, session.AccessToken)
			if err != nil {
				return nil, err
			}

			avatar := constants.PlaceholderAvatar
			if profile.Avatar != nil && profile.Avatar.URL != "" {
				avatar = profile.Avatar.URL
			}

			role := sec.UserRole(profile.Role)
			if !role.Valid() {
				role = session.Role
			}
			return &Profile{Name: profile.Name, Role: role, Avatar: avatar}, nil
		},
	})
	return result.Value()
}

// # HTTP

// Handler implements GET /api/me.
type Handler struct {
	profileService *Service
}

// NewHandler constructs a new [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{profileService: service}
}

// Me returns the caller's profile; anonymous callers get 401.
func (handler *Handler) Me(writer http.ResponseWriter, request *http.Request) {
	session, err := requestutil.RequiredSession(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	profile, err := handler.profileService.Get(request.Context(), session)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, profile)
}

// Routes returns the profile routes.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", handler.Me)
	return router
}
