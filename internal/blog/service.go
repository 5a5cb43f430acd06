// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package blog serves the marketing blog through the query cache.

Listings and articles are read-only views of the backend's /admin/blogs
resources. Every read goes through [query.Client], so concurrent page loads
share one backend request and repeat visits within the stale window never hit
the network.
*/
package blog

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/taibuivan/farmgate/internal/platform/apperr"
	"github.com/taibuivan/farmgate/internal/platform/backend"
	"github.com/taibuivan/farmgate/internal/platform/constants"
	"github.com/taibuivan/farmgate/internal/query"
	"github.com/taibuivan/farmgate/pkg/pagination"
	"github.com/taibuivan/farmgate/pkg/slug"
)

// Query resources.
const (
	ResourceBlogs = "blogs"
	ResourceBlog  = "blog"
)

// # Contracts

// Backend is the subset of the marketplace API the blog reads.
type Backend interface {
	ListBlogs(ctx context.Context, page, limit int) (*backend.BlogList, error)
	GetBlog(ctx context.Context, id string) (*backend.Blog, error)
}

// Article is the browser view of one blog post.
type Article struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Thumbnail   string    `json:"thumbnail"`
	CreatedAt   time.Time `json:"created_at"`
}

// # Service

// Service reads blog posts through the query cache.
type Service struct {
	backend Backend
	queries *query.Client
}

// NewService constructs a new [Service].
func NewService(client Backend, queries *query.Client) *Service {
	return &Service{backend: client, queries: queries}
}

// ListKey is the cache key of one listing page, e.g. "blogs?limit=5&page=2".
func ListKey(params pagination.Params) query.Key {
	return query.NewKey(ResourceBlogs, url.Values{
		"page":  {strconv.Itoa(params.Page)},
		"limit": {strconv.Itoa(params.Limit)},
	})
}

/*
List returns one page of articles with its "showing X to Y of Z" range.

Parameters:
  - ctx: context.Context
  - params: pagination.Params (already clamped)

Returns:
  - *pagination.Page[Article]
  - error: Upstream failure stored for the key
*/
func (service *Service) List(ctx context.Context, params pagination.Params) (*pagination.Page[Article], error) {
	result := query.Do(ctx, service.queries, query.Query[*pagination.Page[Article]]{
		Key:   ListKey(params),
		Fetch: func(ctx context.Context) (*pagination.Page[Article], error) {
			list, err := service.backend.ListBlogs(ctx, params.Page, params.Limit)
			if err != nil {
				return nil, err
			}
			return toPage(list, params), nil
		},
	})
	return result.Value()
}

// Get returns a single article.
func (service *Service) Get(ctx context.Context, id string) (*Article, error) {
	result := query.Do(ctx, service.queries, query.Query[*Article]{
		Key:   query.NewKey(ResourceBlog, url.Values{"id": {id}}),
		Fetch: func(ctx context.Context) (*Article, error) {
			blog, err := service.backend.GetBlog(ctx, id)
			if err != nil {
				return nil, err
			}
			if blog.ID == "" {
				return nil, apperr.NotFound("Article")
			}
			article := toArticle(*blog)
			return &article, nil
		},
	})
	return result.Value()
}

// # Mapping

func toPage(list *backend.BlogList, params pagination.Params) *pagination.Page[Article] {
	items := make([]Article, 0, len(list.Blogs))
	for _, blog := range list.Blogs {
		items = append(items, toArticle(blog))
	}

	// The backend echoes page/limit; trust the request when it omits them.
	page, limit := list.Pagination.Page, list.Pagination.Limit
	if page < 1 {
		page = params.Page
	}
	if limit < 1 {
		limit = params.Limit
	}

	return &pagination.Page[Article]{
		Items: items,
		Meta:  pagination.NewMeta(page, limit, list.Pagination.Total),
	}
}

func toArticle(blog backend.Blog) Article {
	thumbnail := constants.PlaceholderThumbnail
	if blog.Thumbnail != nil && blog.Thumbnail.URL != "" {
		thumbnail = blog.Thumbnail.URL
	}

	return Article{
		ID:          blog.ID,
		Slug:        slug.From(blog.Title),
		Title:       blog.Title,
		Description: blog.Description,
		Thumbnail:   thumbnail,
		CreatedAt:   blog.CreatedAt,
	}
}
