// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// # Endpoint Paths

const (
	PathLogin         = "/auth/login"
	PathForget        = "/auth/forget"
	PathVerifyOTP     = "/auth/verify-otp"
	PathResetPassword = "/auth/reset-password"
	PathContactUs     = "/user/contact-us"
	PathBlogs         = "/admin/blogs"
	PathBlog          = "/admin/blog/"
	PathProfile       = "/user/profile"
	PathWriteReview   = "/user/write-review-website"
	PathReviews       = "/user/get-review-website"
)

// # Contracts

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is the "data" member of a successful login.
//
// The backend nests the role and tokens one level below the account id.
type LoginResult struct {
	ID   string `json:"_id"`
	Data struct {
		Role string `json:"role"`
		User struct {
			Farm            string `json:"farm"`
			StripeAccountID string `json:"stripeAccountId"`
		} `json:"user"`
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	} `json:"data"`
}

// ContactMessage is the contact form body.
type ContactMessage struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// Image is an uploaded asset reference.
type Image struct {
	URL string `json:"url"`
}

// Blog is one article of the marketing blog.
type Blog struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Thumbnail   *Image    `json:"thumbnail,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// BlogPagination is the backend's pagination block. Note "totalPage" (singular).
type BlogPagination struct {
	Total     int `json:"total"`
	Page      int `json:"page"`
	Limit     int `json:"limit"`
	TotalPage int `json:"totalPage"`
}

// BlogList is the "data" member of the blog listing.
type BlogList struct {
	Blogs      []Blog         `json:"blogs"`
	Pagination BlogPagination `json:"pagination"`
}

// Profile is the signed-in user's profile.
type Profile struct {
	Name   string `json:"name"`
	Role   string `json:"role"`
	Avatar *Image `json:"avatar,omitempty"`
}

// ReviewInput is the website review body.
type ReviewInput struct {
	Text   string `json:"text"`
	Rating int    `json:"rating"`
}

// Review is one website review.
type Review struct {
	ID        string    `json:"_id"`
	Text      string    `json:"text"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"createdAt"`
	User      *struct {
		Name   string `json:"name"`
		Avatar *Image `json:"avatar,omitempty"`
	} `json:"user,omitempty"`
}

// reviewGroup is one element of the review listing's "data" array.
type reviewGroup struct {
	Review []Review `json:"review"`
}

// # Authentication

// Login exchanges credentials for the backend token pair.
func (client *Client) Login(ctx context.Context, credentials Credentials) (*LoginResult, error) {
	var result LoginResult
	_, err := client.Do(ctx, Call{Method: http.MethodPost, Path: PathLogin, Body: credentials}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// RequestOTP asks the backend to email a password-reset code.
func (client *Client) RequestOTP(ctx context.Context, email string) (string, error) {
	return client.Do(ctx, Call{
		Method: http.MethodPost,
		Path:   PathForget,
		Body:   map[string]string{"email": email},
	}, nil)
}

// VerifyOTP checks a password-reset code.
func (client *Client) VerifyOTP(ctx context.Context, email, code string) (string, error) {
	return client.Do(ctx, Call{
		Method: http.MethodPost,
		Path:   PathVerifyOTP,
		Body:   map[string]string{"email": email, "otp": code},
	}, nil)
}

// ResetPassword sets a new password using a verified code.
func (client *Client) ResetPassword(ctx context.Context, email, code, password string) (string, error) {
	return client.Do(ctx, Call{
		Method: http.MethodPost,
		Path:   PathResetPassword,
		Body:   map[string]string{"email": email, "otp": code, "password": password},
	}, nil)
}

// # Public Content

// ContactUs forwards a contact form submission.
func (client *Client) ContactUs(ctx context.Context, message ContactMessage) error {
	_, err := client.Do(ctx, Call{Method: http.MethodPost, Path: PathContactUs, Body: message}, nil)
	return err
}

// ListBlogs fetches one page of blog articles.
func (client *Client) ListBlogs(ctx context.Context, page, limit int) (*BlogList, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))

	var list BlogList
	if _, err := client.Do(ctx, Call{Method: http.MethodGet, Path: PathBlogs, Query: query}, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// GetBlog fetches a single article.
func (client *Client) GetBlog(ctx context.Context, id string) (*Blog, error) {
	var blog Blog
	if _, err := client.Do(ctx, Call{Method: http.MethodGet, Path: PathBlog + url.PathEscape(id)}, &blog); err != nil {
		return nil, err
	}
	return &blog, nil
}

// # Authenticated

// Profile fetches the profile of the bearer.
func (client *Client) Profile(ctx context.Context, bearer string) (*Profile, error) {
	var profile Profile
	if _, err := client.Do(ctx, Call{Method: http.MethodGet, Path: PathProfile, Bearer: bearer}, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// SubmitReview posts a website review on behalf of the bearer.
func (client *Client) SubmitReview(ctx context.Context, bearer string, input ReviewInput) error {
	_, err := client.Do(ctx, Call{Method: http.MethodPost, Path: PathWriteReview, Bearer: bearer, Body: input}, nil)
	return err
}

// Reviews fetches the website reviews visible to the bearer, flattened.
func (client *Client) Reviews(ctx context.Context, bearer string) ([]Review, error) {
	var groups []reviewGroup
	if _, err := client.Do(ctx, Call{Method: http.MethodGet, Path: PathReviews, Bearer: bearer}, &groups); err != nil {
		return nil, err
	}

	reviews := make([]Review, 0)
	for _, group := range groups {
		reviews = append(reviews, group.Review...)
	}
	return reviews, nil
}
