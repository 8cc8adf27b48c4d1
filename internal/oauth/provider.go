package oauth

import (
	"context"
	"errors"
)

var ErrMissingIDToken = errors.New("provider did not return id_token")

// Profile is what a provider asserts about the user after consent. Email may be empty.
type Profile struct {
	Provider       string
	ProviderUserID string
	Email          string
	EmailVerified  bool
	DisplayName    string
}

// Provider returns identity facts only; it never creates or links accounts.
type Provider interface {
	Name() string
	AuthCodeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*Profile, error)
}
