package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func TestParseRoundTrip(t *testing.T) {
	token, err := Sign(Identity{UserID: "u1", Email: "ada@example.com", FullName: "Ada"}, secret, time.Hour)
	require.NoError(t, err)

	id, err := Parse(token, secret)
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, "u1", id.UserID)
	assert.Equal(t, "ada@example.com", id.Email)
	assert.Equal(t, "Ada", id.DisplayName())
}

func TestParseEmptyToken(t *testing.T) {
	id, err := Parse("", secret)
	assert.NoError(t, err)
	assert.Nil(t, id)
}

func TestParseRejects(t *testing.T) {
	t.Run("wrong secret", func(t *testing.T) {
		token, err := Sign(Identity{UserID: "u1"}, secret, time.Hour)
		require.NoError(t, err)
		_, err = Parse(token, []byte("other"))
		assert.ErrorIs(t, err, jwt.ErrSignatureInvalid)
	})

	t.Run("expired", func(t *testing.T) {
		token, err := Sign(Identity{UserID: "u1"}, secret, -time.Minute)
		require.NoError(t, err)
		_, err = Parse(token, secret)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("no subject", func(t *testing.T) {
		token, err := Sign(Identity{Email: "x@example.com"}, secret, time.Hour)
		require.NoError(t, err)
		_, err = Parse(token, secret)
		assert.True(t, errors.Is(err, ErrNoSubject))
	})
}

func TestDisplayNameFallsBackToEmail(t *testing.T) {
	assert.Equal(t, "grace", Identity{Email: "grace@example.com"}.DisplayName())
}
