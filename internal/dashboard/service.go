// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package dashboard assembles the seller dashboard shell.

The shell needs the seller's profile and the website reviews. Both are
independent reads, so they run in parallel and the first failure cancels the
other.
*/
package dashboard

import (
	"context"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/taibuivan/farmgate/internal/platform/ctxutil"
	requestutil "github.com/taibuivan/farmgate/internal/platform/request"
	"github.com/taibuivan/farmgate/internal/platform/respond"
	"github.com/taibuivan/farmgate/internal/platform/sec"
	"github.com/taibuivan/farmgate/internal/profile"
	"github.com/taibuivan/farmgate/internal/review"
)

// ProfileReader reads the caller's profile.
type ProfileReader interface {
	Get(ctx context.Context, session *sec.Session) (*profile.Profile, error)
}

// ReviewReader lists reviews visible to the caller.
type ReviewReader interface {
	List(ctx context.Context, session *sec.Session) ([]review.Review, error)
}

// Overview is the dashboard shell.
type Overview struct {
	Profile         *profile.Profile `json:"profile"`
	Farm            string           `json:"farm,omitempty"`
	StripeAccountID string           `json:"stripe_account_id,omitempty"`
	Reviews         []review.Review  `json:"reviews"`
	AverageRating   float64          `json:"average_rating"`
}

// Service builds the dashboard overview.
type Service struct {
	profiles ProfileReader
	reviews  ReviewReader
}

// NewService constructs a new [Service].
func NewService(profiles ProfileReader, reviews ReviewReader) *Service {
	return &Service{profiles: profiles, reviews: reviews}
}

// Overview fetches the profile and reviews concurrently.
func (service *Service) Overview(ctx context.Context, session *sec.Session) (*Overview, error) {
	overview := &Overview{Farm: session.Farm, StripeAccountID: session.StripeAccountID}
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		p, err := service.profiles.Get(groupCtx, session)
		overview.Profile = p
		return err
	})

	group.Go(func() error {
		reviews, err := service.reviews.List(groupCtx, session)
		overview.Reviews = reviews
		return err
	})

	if err := group.Wait(); err != nil {
		return nil, err
	}

	if len(overview.Reviews) > 0 {
		sum := 0
		for _, r := range overview.Reviews {
			sum += r.Rating
		}
		overview.AverageRating = float64(sum) / float64(len(overview.Reviews))
	}

	return overview, nil
}

// # HTTP

// Handler implements GET /api/dashboard. Mount it behind RequireRole(seller).
type Handler struct {
	dashboardService *Service
}

// NewHandler constructs a new [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{dashboardService: service}
}

// Overview renders the dashboard shell.
func (handler *Handler) Overview(writer http.ResponseWriter, request *http.Request) {
	session, err := requestutil.RequiredSession(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	overview, err := handler.dashboardService.Overview(request.Context(), session)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	ctxutil.GetLogger(request.Context()).Debug("dashboard_assembled")
	respond.OK(writer, overview)
}
