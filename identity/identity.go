// Package identity holds the caller identity resolved from a bearer token.
package identity

import "context"

type Identity struct {
	UserID string
	Email  string
}

// Provider exchanges an access token for the identity it was issued to.
type Provider interface {
	Authenticate(ctx context.Context, token string) (Identity, error)
}

// Greeting is the name used in outgoing mail.
func (i Identity) Greeting() string {
	if i.Email == "" {
		return "there"
	}
	return i.Email
}
