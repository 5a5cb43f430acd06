// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package session implements the Session Provider: signing visitors in against the
marketplace backend and turning the result into the signed session cookie.

Architecture:

  - Service: Exchanges credentials for a backend token pair and encodes the
    resulting [sec.Session] with the session codec.
  - Handler: Sets and clears the httpOnly cookie and exposes the current identity.

The session is stateless. Sign-out clears the cookie only; the backend offers no
revocation endpoint, so its tokens stay valid until they expire on their own.
*/
package session

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/taibuivan/farmgate/internal/platform/apperr"
	"github.com/taibuivan/farmgate/internal/platform/backend"
	"github.com/taibuivan/farmgate/internal/platform/sec"
)

// DefaultLoginFailure is shown when the backend rejects a login without a message.
const DefaultLoginFailure = "Invalid credentials"

// # Contracts

// Authenticator exchanges credentials with the marketplace backend.
type Authenticator interface {
	Login(ctx context.Context, credentials backend.Credentials) (*backend.LoginResult, error)
}

// Codec encodes session artifacts.
type Codec interface {
	Encode(s sec.Session) (string, time.Time, error)
}

// SignedIn is the outcome of a successful sign-in.
type SignedIn struct {
	Session   sec.Session
	Token     string
	ExpiresAt time.Time
}

// # Service

// Service implements the sign-in use case.
type Service struct {
	authenticator Authenticator
	codec         Codec
}

// NewService constructs a new [Service].
func NewService(authenticator Authenticator, codec Codec) *Service {
	return &Service{authenticator: authenticator, codec: codec}
}

/*
SignIn authenticates email/password against the backend and encodes a session.

Description: A single backend round-trip; never retried. Backend rejections are
surfaced as 401 with the backend's own message so the login form can show it.
Backend outages keep their 502 status.

Parameters:
  - ctx: context.Context
  - email: string
  - password: string

Returns:
  - *SignedIn: The decoded session and its signed token
  - error: Unauthorized, Forbidden (unsupported role) or upstream failures
*/
func (service *Service) SignIn(ctx context.Context, email, password string) (*SignedIn, error) {
	result, err := service.authenticator.Login(ctx, backend.Credentials{Email: email, Password: password})
	if err != nil {
		if appError := apperr.As(err); appError != nil && appError.HTTPStatus >= http.StatusInternalServerError {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, apperr.Unauthorized(backend.Message(err, DefaultLoginFailure))
	}

	role := sec.UserRole(result.Data.Role)
	if result.ID == "" || !role.Valid() {
		return nil, apperr.Forbidden("This account cannot sign in to the marketplace")
	}

	session := sec.Session{
		UserID:          result.ID,
		Role:            role,
		Farm:            result.Data.User.Farm,
		StripeAccountID: result.Data.User.StripeAccountID,
		AccessToken:     result.Data.AccessToken,
		RefreshToken:    result.Data.RefreshToken,
	}

	token, expiresAt, err := service.codec.Encode(session)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("session: encode: %w", err))
	}
	session.ExpiresAt = expiresAt

	return &SignedIn{Session: session, Token: token, ExpiresAt: expiresAt}, nil
}

// LandingPath is where the browser goes after signing in.
func LandingPath(s *sec.Session) string {
	if s.IsSeller() {
		return "/dashboard"
	}
	return "/"
}
