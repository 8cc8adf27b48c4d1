package service

import (
	"context"
	"fmt"
	"time"

	"github.com/oshxona/backend/internal/oauth"
	"github.com/oshxona/backend/internal/repository"
	"github.com/oshxona/backend/pkg/otp"
)

// oauthStateLength is bytes of entropy in the state, the encoded value is longer.
const oauthStateLength = 32

type oauthService struct {
	stateRepository repository.OAuthStates
	provider        oauth.Provider
	otpGenerator    otp.Generator
	stateTTL        time.Duration
}

func newOAuthService(stateRepository repository.OAuthStates,
	provider oauth.Provider,
	otpGenerator otp.Generator,
	stateTTL time.Duration,
) *oauthService {
	return &oauthService{
		stateRepository: stateRepository,
		provider:        provider,
		otpGenerator:    otpGenerator,
		stateTTL:        stateTTL,
	}
}

// LoginURL returns the consent page URL and the state the callback must echo back.
func (s *oauthService) LoginURL(ctx context.Context) (string, string, error) {
	state := s.otpGenerator.RandomSecret(oauthStateLength)

	if err := s.stateRepository.Save(ctx, state, s.stateTTL); err != nil {
		return "", "", fmt.Errorf("save oauth state failed: %w", err)
	}

	return s.provider.AuthCodeURL(state), state, nil
}

// exchange consumes state so every callback can be used once.
func (s *oauthService) exchange(ctx context.Context, state string, code string) (*oauth.Profile, error) {
	if state == "" || code == "" {
		return nil, ErrInvalidOAuthState
	}

	ok, err := s.stateRepository.Consume(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("consume oauth state failed: %w", err)
	}
	if !ok {
		return nil, ErrInvalidOAuthState
	}

	profile, err := s.provider.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAssertion, err)
	}

	return profile, nil
}
