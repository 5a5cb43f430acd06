// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package review lets signed-in users rate the marketplace website and read the
reviews left so far.

Listings are cached per user through [query.Client]. A successful submission
invalidates every cached listing so the next read sees the new review.
*/
package review

import (
	"context"
	"net/url"
	"time"

	"github.com/taibuivan/farmgate/internal/platform/backend"
	"github.com/taibuivan/farmgate/internal/platform/constants"
	"github.com/taibuivan/farmgate/internal/platform/sec"
	"github.com/taibuivan/farmgate/internal/query"
)

// ResourceReviews is the query resource of review listings.
const ResourceReviews = "reviews"

// Rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// MaxTextLength bounds the review body.
const MaxTextLength = 2000

// # Contracts

// Backend is the subset of the marketplace API reviews use.
type Backend interface {
	SubmitReview(ctx context.Context, bearer string, input backend.ReviewInput) error
	Reviews(ctx context.Context, bearer string) ([]backend.Review, error)
}

// Author is the public face of a reviewer.
type Author struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// Review is the browser view of one website review.
type Review struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
	Author    *Author   `json:"author,omitempty"`
}

// # Service

// Service submits and lists website reviews.
type Service struct {
	backend Backend
	queries *query.Client
}

// NewService constructs a new [Service].
func NewService(client Backend, queries *query.Client) *Service {
	return &Service{backend: client, queries: queries}
}

// ListKey is the cache key of the listing seen by userID.
func ListKey(userID string) query.Key {
	return query.NewKey(ResourceReviews, url.Values{"user": {userID}})
}

// List returns the reviews visible to the session.
func (service *Service) List(ctx context.Context, session *sec.Session) ([]Review, error) {
	result := query.Do(ctx, service.queries, query.Query[[]Review]{
		Key:   ListKey(session.UserID),
		Fetch: func(ctx context.Context) ([]Review, error) {
			reviews, err := service.backend.Reviews(ctx, session.AccessToken)
			if err != nil {
				return nil, err
			}
			return toReviews(reviews), nil
		},
	})
	return result.Value()
}

/*
Submit posts a review and drops every cached listing.

The input must already be validated; the backend is called exactly once.
*/
func (service *Service) Submit(ctx context.Context, session *sec.Session, input backend.ReviewInput) error {
	if err := service.backend.SubmitReview(ctx, session.AccessToken, input); err != nil {
		return err
	}

	service.queries.InvalidateResource(ResourceReviews)
	return nil
}

// # Mapping

func toReviews(reviews []backend.Review) []Review {
	out := make([]Review, 0, len(reviews))
	for _, review := range reviews {
		item := Review{
			ID:        review.ID,
			Text:      review.Text,
			Rating:    review.Rating,
			CreatedAt: review.CreatedAt,
		}

		if review.User != nil {
			avatar := constants.PlaceholderAvatar
			if review.User.Avatar != nil && review.User.Avatar.URL != "" {
				avatar = review.User.Avatar.URL
			}
			item.Author = &Author{Name: review.User.Name, Avatar: avatar}
		}

		out = append(out, item)
	}
	return out
}
