package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer([]byte("secret"), time.Hour)

	token, err := issuer.GenerateJWT("u1", "a@example.com")
	require.NoError(t, err)

	claims, err := issuer.ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "a@example.com", claims.Email)
}

func TestValidateJWT_Rejects(t *testing.T) {
	issuer := NewTokenIssuer([]byte("secret"), time.Hour)

	other, err := NewTokenIssuer([]byte("other"), time.Hour).GenerateJWT("u1", "a@example.com")
	require.NoError(t, err)
	_, err = issuer.ValidateJWT(other)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := NewTokenIssuer([]byte("secret"), -time.Minute).GenerateJWT("u1", "a@example.com")
	require.NoError(t, err)
	_, err = issuer.ValidateJWT(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.ValidateJWT("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("password123")
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash("password123", hash))
	assert.False(t, CheckPasswordHash("password124", hash))
}
