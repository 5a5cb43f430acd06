// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, and cross-cutting keys that are shared
between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Session: Cookie names, issuers and lifetimes of the signed session artifact.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "farmgate"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 15 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 50.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 100

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Session

const (
	// SessionIssuer is the standard 'iss' claim of the session artifact.
	SessionIssuer = "farmgate"

	// SessionCookieName is the httpOnly cookie carrying the signed session token.
	SessionCookieName = "fg_session"

	// ResetTicketCookieName carries the verified email and code between the
	// OTP verification step and the password update step.
	ResetTicketCookieName = "fg_reset_ticket"

	// ResetTicketTTL bounds how long a verified OTP may be used to set a new password.
	ResetTicketTTL = 15 * time.Minute

	// FlagCookiePrefix namespaces browser-session flag cookies of anonymous visitors.
	FlagCookiePrefix = "fg_flag_"
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
	HeaderAuthorization = "Authorization"
	HeaderCacheControl  = "Cache-Control"
	HeaderPragma        = "Pragma"
)

// # JSON Field Identifiers

const (
	FieldData    = "data"
	FieldMeta    = "meta"
	FieldError   = "error"
	FieldCode    = "code"
	FieldDetails = "details"
	FieldItems   = "items"
	FieldTotal   = "total"
	FieldMessage = "message"
	FieldStatus  = "status"
	FieldApp     = "app"
	FieldVersion = "version"
	FieldChecks  = "checks"
)

// # Redis Prefixes (Cache Taxonomy)

const (
	RedisPrefixOTPCooldown = "otp:cooldown:"
	RedisPrefixGeocode     = "geo:reverse:"
	RedisPrefixFlags       = "session:flags:"
)

// # Placeholders

const (
	// PlaceholderThumbnail replaces missing blog thumbnails.
	PlaceholderThumbnail = "/images/placeholder-thumbnail.png"

	// PlaceholderAvatar replaces missing profile avatars.
	PlaceholderAvatar = "/images/placeholder-avatar.png"

	// UnknownLocation is shown when reverse geocoding fails.
	UnknownLocation = "Unknown location"
)
