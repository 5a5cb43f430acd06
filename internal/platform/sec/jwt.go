// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (key derivation, JWT signing,
// token sealing) from the domain logic. It acts as an Infrastructure service
// injected into the session provider and the route guard.
package sec

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// Audiences separate session cookies from reset tickets signed with the same key.
const (
	audienceSession     = "session"
	audienceResetTicket = "reset-ticket"
)

// HKDF info labels for the two derived keys.
const (
	infoSigning = "farmgate/session/signing"
	infoSealing = "farmgate/session/sealing"
)

// ErrInvalidToken is returned for any token that fails signature, expiry or shape checks.
var ErrInvalidToken = errors.New("sec: invalid token")

// SessionClaims represents the payload embedded inside the session artifact.
//
// # Why custom claims?
//
// By embedding the identity directly inside the JWT, the route guard and every
// handler can reconstruct the session WITHOUT consulting a server-side store.
// The backend bearer tokens travel sealed in [SessionClaims.Tokens].
type SessionClaims struct {
	jwt.RegisteredClaims

	// Custom application claims are abbreviated to keep the cookie small.
	UserID          string `json:"uid"`
	Role            string `json:"rol"`
	Farm            string `json:"frm,omitempty"`
	StripeAccountID string `json:"sai,omitempty"`
	Tokens          string `json:"tkn"`
}

// ResetTicketClaims carries a verified OTP to the password update step.
type ResetTicketClaims struct {
	jwt.RegisteredClaims

	Email string `json:"eml"`
	Code  string `json:"otp"`
}

// sealedTokens is the plaintext of [SessionClaims.Tokens].
type sealedTokens struct {
	Access  string `json:"a"`
	Refresh string `json:"r"`
}

// SessionCodec signs and verifies session artifacts using HS256.
type SessionCodec struct {
	signingKey []byte
	aead       cipher.AEAD
	issuer     string
	maxAge     time.Duration
	now        func() time.Time
}

// NewSessionCodec creates a new SessionCodec.
// Signing and sealing keys are derived from secret with HKDF-SHA256.
func NewSessionCodec(secret, issuer string, maxAge time.Duration) (*SessionCodec, error) {
	if secret == "" {
		return nil, errors.New("sec: empty session secret")
	}

	signingKey, err := deriveKey(secret, infoSigning)
	if err != nil {
		return nil, err
	}

	sealingKey, err := deriveKey(secret, infoSealing)
	if err != nil {
		return nil, err
	}

	aead, err := chacha20poly1305.NewX(sealingKey)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to create sealing cipher: %w", err)
	}

	return &SessionCodec{
		signingKey: signingKey,
		aead:       aead,
		issuer:     issuer,
		maxAge:     maxAge,
		now:        time.Now,
	}, nil
}

// WithClock returns a copy of the codec that reads time from now. Used by tests.
func (codec *SessionCodec) WithClock(now func() time.Time) *SessionCodec {
	clone := *codec
	clone.now = now
	return &clone
}

// Encode signs a session artifact for s. IssuedAt and ExpiresAt are set by the codec.
func (codec *SessionCodec) Encode(s Session) (string, time.Time, error) {
	sealed, err := codec.seal(sealedTokens{Access: s.AccessToken, Refresh: s.RefreshToken})
	if err != nil {
		return "", time.Time{}, err
	}

	issuedAt := codec.now()
	expiresAt := issuedAt.Add(codec.maxAge)

	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.UserID,
			Issuer:    codec.issuer,
			Audience:  jwt.ClaimStrings{audienceSession},
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID:          s.UserID,
		Role:            string(s.Role),
		Farm:            s.Farm,
		StripeAccountID: s.StripeAccountID,
		Tokens:          sealed,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(codec.signingKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sec: failed to sign session: %w", err)
	}

	return signed, expiresAt, nil
}

// Decode verifies a session artifact and rebuilds the [Session] it carries.
//
// It is a pure function of the token and the codec keys: no store is consulted.
func (codec *SessionCodec) Decode(token string) (*Session, error) {
	claims := &SessionClaims{}
	if err := codec.parse(token, claims, audienceSession); err != nil {
		return nil, err
	}

	role := UserRole(claims.Role)
	if claims.UserID == "" || !role.Valid() {
		return nil, fmt.Errorf("%w: missing identity claims", ErrInvalidToken)
	}

	var tokens sealedTokens
	if err := codec.open(claims.Tokens, &tokens); err != nil {
		return nil, err
	}

	return &Session{
		UserID:          claims.UserID,
		Role:            role,
		Farm:            claims.Farm,
		StripeAccountID: claims.StripeAccountID,
		AccessToken:     tokens.Access,
		RefreshToken:    tokens.Refresh,
		IssuedAt:        claims.IssuedAt.Time,
		ExpiresAt:       claims.ExpiresAt.Time,
	}, nil
}

// IssueResetTicket signs the transfer state produced by a successful OTP verification.
func (codec *SessionCodec) IssueResetTicket(email, code string, ttl time.Duration) (string, error) {
	sealedCode, err := codec.seal(code)
	if err != nil {
		return "", err
	}

	issuedAt := codec.now()
	claims := ResetTicketClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			Issuer:    codec.issuer,
			Audience:  jwt.ClaimStrings{audienceResetTicket},
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		},
		Email: email,
		Code:  sealedCode,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(codec.signingKey)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign reset ticket: %w", err)
	}
	return signed, nil
}

// VerifyResetTicket returns the email and OTP code carried by a reset ticket.
func (codec *SessionCodec) VerifyResetTicket(token string) (email, code string, err error) {
	claims := &ResetTicketClaims{}
	if err := codec.parse(token, claims, audienceResetTicket); err != nil {
		return "", "", err
	}
	if err := codec.open(claims.Code, &code); err != nil {
		return "", "", err
	}
	return claims.Email, code, nil
}

// # Internals

func (codec *SessionCodec) parse(token string, claims jwt.Claims, audience string) error {
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", t.Header["alg"])
		}
		return codec.signingKey, nil
	},
		jwt.WithIssuer(codec.issuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(codec.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return nil
}

func (codec *SessionCodec) seal(value any) (string, error) {
	plaintext, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("sec: failed to encode sealed payload: %w", err)
	}

	nonce := make([]byte, codec.aead.NonceSize(), codec.aead.NonceSize()+len(plaintext)+codec.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("sec: failed to read nonce: %w", err)
	}

	sealed := codec.aead.Seal(nonce, nonce, plaintext, nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

func (codec *SessionCodec) open(encoded string, target any) error {
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil || len(raw) < codec.aead.NonceSize() {
		return fmt.Errorf("%w: malformed sealed payload", ErrInvalidToken)
	}

	nonce, ciphertext := raw[:codec.aead.NonceSize()], raw[codec.aead.NonceSize():]
	plaintext, err := codec.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return fmt.Errorf("%w: sealed payload rejected", ErrInvalidToken)
	}

	if err := json.Unmarshal(plaintext, target); err != nil {
		return fmt.Errorf("%w: sealed payload unreadable", ErrInvalidToken)
	}
	return nil
}

func deriveKey(secret, info string) ([]byte, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	reader := hkdf.New(sha256.New, []byte(secret), nil, []byte(info))
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("sec: failed to derive key: %w", err)
	}
	return key, nil
}
