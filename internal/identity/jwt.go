package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

type tokenClaims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Email    string `json:"email"`
}

// JWT resolves the owner from an HMAC-signed bearer token issued by the
// identity provider. The username falls back to the subject claim.
type JWT struct {
	secret []byte
	issuer string
}

func NewJWT(secret []byte, issuer string) (*JWT, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwt identity resolver requires a secret")
	}
	return &JWT{secret: secret, issuer: issuer}, nil
}

func (j *JWT) Resolve(_ context.Context, claim Claim) (Owner, error) {
	if claim.Token == "" {
		return Owner{}, ErrMissingToken
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}

	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(claim.Token, claims, func(*jwt.Token) (any, error) {
		return j.secret, nil
	}, opts...)
	if err != nil {
		return Owner{}, fmt.Errorf("invalid identity token: %w", err)
	}

	owner := Owner{Username: claims.Username, Email: claims.Email}
	if owner.Username == "" {
		owner.Username = claims.Subject
	}
	if owner.Username == "" || owner.Email == "" {
		return Owner{}, fmt.Errorf("identity token: %w", ErrMissingIdentity)
	}
	return owner, nil
}
