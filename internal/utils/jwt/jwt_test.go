package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	token, err := CreateToken("user-42", "secret")
	require.NoError(t, err)

	userID, err := ExtractUserIDFromToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "user-42", userID)
}

func TestWrongSecret(t *testing.T) {
	token, err := CreateToken("user-42", "secret")
	require.NoError(t, err)

	_, err = ExtractUserIDFromToken(token, "other")
	assert.Error(t, err)
}

func TestExpiredToken(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "user-42",
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = ExtractUserIDFromToken(signed, "secret")
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestMissingUserID(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = ExtractUserIDFromToken(signed, "secret")
	assert.ErrorIs(t, err, ErrMissingUserID)
}
