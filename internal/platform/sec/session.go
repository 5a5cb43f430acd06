// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import "time"

// Session is the authenticated identity of one browser context.
//
// It is an immutable snapshot re-derived from the signed cookie on every
// request. Handlers receive it by value through the request context and never
// mutate it; only sign-in and sign-out rewrite the cookie.
type Session struct {
	UserID          string
	Role            UserRole
	Farm            string
	StripeAccountID string
	AccessToken     string
	RefreshToken    string
	IssuedAt        time.Time
	ExpiresAt       time.Time
}

// IsSeller reports whether the session may enter the seller dashboard.
func (s *Session) IsSeller() bool {
	return s != nil && s.Role.IsSeller()
}

// Identity is the browser-safe projection of a [Session]. Bearer tokens are
// deliberately absent.
type Identity struct {
	UserID          string    `json:"id"`
	Role            UserRole  `json:"role"`
	Farm            string    `json:"farm,omitempty"`
	StripeAccountID string    `json:"stripe_account_id,omitempty"`
	ExpiresAt       time.Time `json:"expires_at"`
}

// Identity returns the browser-safe view of the session.
func (s *Session) Identity() Identity {
	return Identity{
		UserID:          s.UserID,
		Role:            s.Role,
		Farm:            s.Farm,
		StripeAccountID: s.StripeAccountID,
		ExpiresAt:       s.ExpiresAt,
	}
}
