package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oshxona/backend/internal/domain"
	"github.com/oshxona/backend/internal/repository"
	"github.com/oshxona/backend/pkg/email"
	"github.com/oshxona/backend/pkg/logger"

	"go.uber.org/zap"
)

type Outcome string

const (
	// OutcomeAuthenticated: the email belongs to a verified user, nothing was sent.
	OutcomeAuthenticated Outcome = "authenticated"
	// OutcomeReverify: the email belongs to an unverified user, a new code was stored and sent.
	OutcomeReverify Outcome = "reverify"
	// OutcomeNewCandidate: no user has the email, a candidate token was issued and a code sent.
	OutcomeNewCandidate Outcome = "new-candidate"

	OutcomeVerified    Outcome = "verified"
	OutcomeMaterialize Outcome = "materialize"
)

// Assertion is what an identity provider vouches for. EmailVerified is the provider's own
// claim that the caller controls Email; without it an existing account is never signed in.
type Assertion struct {
	ProviderID    string
	Email         string
	EmailVerified bool
	DisplayName   string
}

type Resolution struct {
	Outcome            Outcome
	User               *domain.User
	Candidate          *domain.Candidate
	CandidateToken     string
	ChallengeExpiresAt time.Time
}

type resolveMode int

const (
	// resolveProvider trusts a verified account only when the provider verified the email.
	resolveProvider resolveMode = iota
	resolveSignup
)

type identityResolver struct {
	userRepository repository.Users
	verification   *verificationService
}

func newIdentityResolver(userRepository repository.Users, verification *verificationService) *identityResolver {
	return &identityResolver{
		userRepository: userRepository,
		verification:   verification,
	}
}

func (r *identityResolver) Resolve(ctx context.Context, assertion Assertion) (*Resolution, error) {
	providerID := strings.TrimSpace(assertion.ProviderID)
	if providerID == "" {
		return nil, fmt.Errorf("%w: empty provider id", ErrInvalidAssertion)
	}

	address := email.Normalize(assertion.Email)
	if !email.IsEmailValid(address) {
		return nil, fmt.Errorf("%w: invalid email", ErrInvalidAssertion)
	}

	return r.resolve(ctx, domain.Candidate{
		Email:           address,
		Name:            strings.TrimSpace(assertion.DisplayName),
		GoogleID:        providerID,
		IsGoogleAccount: true,
	}, resolveProvider, assertion.EmailVerified)
}

// ResolveSignup starts a password signup. A verified user is a conflict here since
// nothing proves the caller owns the address.
func (r *identityResolver) ResolveSignup(ctx context.Context, address string, name string) (*Resolution, error) {
	address = email.Normalize(address)
	if !email.IsEmailValid(address) {
		return nil, fmt.Errorf("%w: invalid email", ErrInvalidRequest)
	}

	return r.resolve(ctx, domain.Candidate{
		Email: address,
		Name:  strings.TrimSpace(name),
	}, resolveSignup, false)
}

func (r *identityResolver) resolve(ctx context.Context, candidate domain.Candidate, mode resolveMode, emailVerified bool) (*Resolution, error) {
	user, err := r.userRepository.GetByEmail(ctx, candidate.Email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get user by email failed: %w", err)
	}

	if user != nil {
		if user.IsEmailVerified {
			return r.verifiedUser(user, mode, emailVerified)
		}

		challenge, err := r.verification.issueForUser(ctx, user)
		if errors.Is(err, ErrAlreadyVerified) {
			// verified concurrently after the lookup
			current, err := r.userRepository.GetOneByID(ctx, user.ID)
			if err != nil {
				return nil, fmt.Errorf("reload user failed: %w", err)
			}
			return r.verifiedUser(current, mode, emailVerified)
		}
		if err != nil {
			return nil, err
		}

		logger.Info("verification code reissued", zap.String("user_id", user.ID.String()))

		return &Resolution{
			Outcome:            OutcomeReverify,
			User:               user,
			ChallengeExpiresAt: challenge.ExpiresAt,
		}, nil
	}

	challenge, err := r.verification.issueForCandidate(ctx, candidate)
	if err != nil {
		return nil, err
	}

	return &Resolution{
		Outcome:            OutcomeNewCandidate,
		Candidate:          &candidate,
		CandidateToken:     challenge.Token,
		ChallengeExpiresAt: challenge.ExpiresAt,
	}, nil
}

func (r *identityResolver) verifiedUser(user *domain.User, mode resolveMode, emailVerified bool) (*Resolution, error) {
	if mode == resolveSignup {
		return nil, ErrConflict
	}

	if !emailVerified {
		logger.Warn("provider did not verify email of an existing user", zap.String("user_id", user.ID.String()))
		return nil, fmt.Errorf("%w: email not verified by provider", ErrInvalidAssertion)
	}

	return &Resolution{Outcome: OutcomeAuthenticated, User: user}, nil
}
