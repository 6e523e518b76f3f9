package identity

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret-that-is-long-enough-for-hs256")

func signToken(t *testing.T, secret []byte, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return token
}

func TestPassthrough(t *testing.T) {
	owner, err := Passthrough{}.Resolve(context.Background(), Claim{Username: "testuser", Email: "testuser@example.com"})
	require.NoError(t, err)
	assert.Equal(t, Owner{Username: "testuser", Email: "testuser@example.com"}, owner)

	_, err = Passthrough{}.Resolve(context.Background(), Claim{Username: "testuser"})
	assert.ErrorIs(t, err, ErrMissingIdentity)
}

func TestJWTResolve(t *testing.T) {
	resolver, err := NewJWT(testSecret, "framepro-auth")
	require.NoError(t, err)

	token := signToken(t, testSecret, tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "framepro-auth",
			Subject:   "subject-user",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Email: "testuser@example.com",
	})

	owner, err := resolver.Resolve(context.Background(), Claim{Token: token, Username: "ignored"})
	require.NoError(t, err)
	assert.Equal(t, Owner{Username: "subject-user", Email: "testuser@example.com"}, owner)
}

func TestJWTResolveRejects(t *testing.T) {
	resolver, err := NewJWT(testSecret, "framepro-auth")
	require.NoError(t, err)

	valid := jwt.RegisteredClaims{Issuer: "framepro-auth", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}

	t.Run("missing token", func(t *testing.T) {
		_, err := resolver.Resolve(context.Background(), Claim{Username: "testuser", Email: "testuser@example.com"})
		assert.ErrorIs(t, err, ErrMissingToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token := signToken(t, []byte("another-secret-entirely-not-the-one"), tokenClaims{RegisteredClaims: valid, Username: "u", Email: "u@example.com"})
		_, err := resolver.Resolve(context.Background(), Claim{Token: token})
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		expired := valid
		expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
		token := signToken(t, testSecret, tokenClaims{RegisteredClaims: expired, Username: "u", Email: "u@example.com"})
		_, err := resolver.Resolve(context.Background(), Claim{Token: token})
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := valid
		other.Issuer = "someone-else"
		token := signToken(t, testSecret, tokenClaims{RegisteredClaims: other, Username: "u", Email: "u@example.com"})
		_, err := resolver.Resolve(context.Background(), Claim{Token: token})
		assert.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)
	})

	t.Run("missing email", func(t *testing.T) {
		token := signToken(t, testSecret, tokenClaims{RegisteredClaims: valid, Username: "u"})
		_, err := resolver.Resolve(context.Background(), Claim{Token: token})
		assert.ErrorIs(t, err, ErrMissingIdentity)
	})
}

func TestNewJWTRequiresSecret(t *testing.T) {
	_, err := NewJWT(nil, "")
	assert.Error(t, err)
}
