package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWT_RoundTrip(t *testing.T) {
	a := NewJWTAuthenticator("s3cret", "storefront")

	signed, err := a.GenerateToken("shopper-42", time.Hour)
	require.NoError(t, err)

	token, err := a.ValidateToken(signed)
	require.NoError(t, err)
	sub, err := Subject(token)
	require.NoError(t, err)
	assert.Equal(t, "shopper-42", sub)
}

func TestJWT_Rejects(t *testing.T) {
	a := NewJWTAuthenticator("s3cret", "storefront")

	t.Run("wrong secret", func(t *testing.T) {
		signed, err := NewJWTAuthenticator("other", "storefront").GenerateToken("x", time.Hour)
		require.NoError(t, err)
		_, err = a.ValidateToken(signed)
		assert.Error(t, err)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		signed, err := NewJWTAuthenticator("s3cret", "elsewhere").GenerateToken("x", time.Hour)
		require.NoError(t, err)
		_, err = a.ValidateToken(signed)
		assert.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)
	})

	t.Run("expired", func(t *testing.T) {
		past := NewJWTAuthenticator("s3cret", "storefront")
		past.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		signed, err := past.GenerateToken("x", time.Hour)
		require.NoError(t, err)
		_, err = a.ValidateToken(signed)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("none algorithm", func(t *testing.T) {
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "x"}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = a.ValidateToken(unsigned)
		assert.Error(t, err)
	})
}

func TestSubject_Missing(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{})
	_, err := Subject(token)
	assert.ErrorIs(t, err, ErrNoSubject)
}
