package service

import (
	"testing"
	"time"

	"survive/internal/common/clock"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	c := clock.NewFake(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	svc := NewAuthService("secret", time.Hour, c)

	token, err := svc.IssueSessionToken("ROOM01", "Alice", "sid-1")
	require.NoError(t, err)

	claims, err := svc.ValidateSessionToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ROOM01", claims.RoomID)
	assert.Equal(t, "Alice", claims.PlayerName)
	assert.Equal(t, "sid-1", claims.SessionID)

	c.Advance(time.Hour + time.Second)
	_, err = svc.ValidateSessionToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessionTokenRejectsForeignTokens(t *testing.T) {
	c := clock.NewFake(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	svc := NewAuthService("secret", time.Hour, c)

	other, err := NewAuthService("other", time.Hour, c).IssueSessionToken("ROOM01", "Alice", "sid-1")
	require.NoError(t, err)
	_, err = svc.ValidateSessionToken(other)
	assert.ErrorIs(t, err, ErrInvalidToken)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"roomId": "ROOM01"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.ValidateSessionToken(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
