// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/farmgate/internal/platform/sec"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newCodec(t *testing.T, now time.Time) *sec.SessionCodec {
	t.Helper()
	codec, err := sec.NewSessionCodec(testSecret, "farmgate", 24*time.Hour)
	require.NoError(t, err)
	return codec.WithClock(func() time.Time { return now })
}

func sampleSession() sec.Session {
	return sec.Session{
		UserID:          "u-1",
		Role:            sec.RoleSeller,
		Farm:            "farm-9",
		StripeAccountID: "acct_123",
		AccessToken:     "access-secret-value",
		RefreshToken:    "refresh-secret-value",
	}
}

/*
TestSessionCodec_EncodeDecode verifies that the decoded session equals what was signed.
*/
func TestSessionCodec_EncodeDecode(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	codec := newCodec(t, now)

	token, expiresAt, err := codec.Encode(sampleSession())
	require.NoError(t, err)
	assert.Equal(t, now.Add(24*time.Hour), expiresAt)

	decoded, err := codec.Decode(token)
	require.NoError(t, err)

	assert.Equal(t, "u-1", decoded.UserID)
	assert.Equal(t, sec.RoleSeller, decoded.Role)
	assert.Equal(t, "farm-9", decoded.Farm)
	assert.Equal(t, "acct_123", decoded.StripeAccountID)
	assert.Equal(t, "access-secret-value", decoded.AccessToken)
	assert.Equal(t, "refresh-secret-value", decoded.RefreshToken)
	assert.True(t, decoded.ExpiresAt.Equal(expiresAt))
}

/*
TestSessionCodec_TokensAreSealed checks that bearer tokens never appear in the readable payload.
*/
func TestSessionCodec_TokensAreSealed(t *testing.T) {
	codec := newCodec(t, time.Now())

	token, _, err := codec.Encode(sampleSession())
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)

	assert.NotContains(t, string(payload), "access-secret-value")
	assert.NotContains(t, string(payload), "refresh-secret-value")
	assert.Contains(t, string(payload), `"rol":"seller"`)
}

/*
TestSessionCodec_Rejects covers tampering, expiry and foreign keys.
*/
func TestSessionCodec_Rejects(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	codec := newCodec(t, issued)

	token, _, err := codec.Encode(sampleSession())
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		later := codec.WithClock(func() time.Time { return issued.Add(25 * time.Hour) })
		_, err := later.Decode(token)
		assert.ErrorIs(t, err, sec.ErrInvalidToken)
	})

	t.Run("tampered", func(t *testing.T) {
		_, err := codec.Decode(token[:len(token)-2] + "xx")
		assert.ErrorIs(t, err, sec.ErrInvalidToken)
	})

	t.Run("other_secret", func(t *testing.T) {
		other, err := sec.NewSessionCodec("ffffffffffffffffffffffffffffffff", "farmgate", time.Hour)
		require.NoError(t, err)
		_, err = other.WithClock(func() time.Time { return issued }).Decode(token)
		assert.ErrorIs(t, err, sec.ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := codec.Decode("not-a-token")
		assert.ErrorIs(t, err, sec.ErrInvalidToken)
	})

	t.Run("unknown_role", func(t *testing.T) {
		session := sampleSession()
		session.Role = "admin"
		bad, _, err := codec.Encode(session)
		require.NoError(t, err)
		_, err = codec.Decode(bad)
		assert.ErrorIs(t, err, sec.ErrInvalidToken)
	})
}

/*
TestSessionCodec_ResetTicket verifies the OTP transfer state and audience separation.
*/
func TestSessionCodec_ResetTicket(t *testing.T) {
	codec := newCodec(t, time.Now())

	ticket, err := codec.IssueResetTicket("a@b.com", "123456", 15*time.Minute)
	require.NoError(t, err)

	email, code, err := codec.VerifyResetTicket(ticket)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", email)
	assert.Equal(t, "123456", code)

	// A reset ticket is never accepted as a session and vice versa.
	_, err = codec.Decode(ticket)
	assert.ErrorIs(t, err, sec.ErrInvalidToken)

	sessionToken, _, err := codec.Encode(sampleSession())
	require.NoError(t, err)
	_, _, err = codec.VerifyResetTicket(sessionToken)
	assert.ErrorIs(t, err, sec.ErrInvalidToken)
}
