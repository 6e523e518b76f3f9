// Package identity resolves who is asking for an ingestion. The gateway never
// authenticates on its own; it either trusts the fields of the triggering
// event or reads them from a token issued by an upstream identity provider.
package identity

import (
	"context"
	"errors"
)

var (
	ErrMissingIdentity = errors.New("username and email are required")
	ErrMissingToken    = errors.New("identity token is required")
)

// Owner is the requester of an ingestion.
type Owner struct {
	Username string
	Email    string
}

// Claim is the raw identity material carried by a request.
type Claim struct {
	Username string
	Email    string
	Token    string
}

// Resolver turns a Claim into an Owner.
type Resolver interface {
	Resolve(ctx context.Context, claim Claim) (Owner, error)
}

// Passthrough trusts the username and email already present on the request.
type Passthrough struct{}

func (Passthrough) Resolve(_ context.Context, claim Claim) (Owner, error) {
	if claim.Username == "" || claim.Email == "" {
		return Owner{}, ErrMissingIdentity
	}
	return Owner{Username: claim.Username, Email: claim.Email}, nil
}
