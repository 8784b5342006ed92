package auth

import (
	"context"
	"errors"
)

var ErrUnauthenticated = errors.New("unauthenticated")

// Principal is the caller identity attached to an authenticated request.
type Principal struct {
	Subject string `json:"sub"`
	Email   string `json:"email,omitempty"`
	Role    string `json:"role,omitempty"`
	Issuer  string `json:"iss,omitempty"`
}

// Verifier validates a bearer token.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Principal, error)
}

// Chain accepts a token when any of its verifiers does. Verifiers are tried
// in order and the last error is returned.
type Chain []Verifier

func (c Chain) Verify(ctx context.Context, token string) (*Principal, error) {
	err := ErrUnauthenticated
	for _, v := range c {
		if v == nil {
			continue
		}
		principal, verr := v.Verify(ctx, token)
		if verr == nil {
			return principal, nil
		}
		err = verr
	}
	return nil, err
}
