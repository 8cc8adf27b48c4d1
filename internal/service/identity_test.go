package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/oshxona/backend/internal/domain"
	"github.com/oshxona/backend/pkg/email"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func sentCode(t *testing.T, env *testEnv, call int) string {
	t.Helper()

	var sends []email.SendEmailInput
	for _, c := range env.sender.Calls {
		if c.Method == "Send" {
			sends = append(sends, c.Arguments.Get(0).(email.SendEmailInput))
		}
	}
	require.Greater(t, len(sends), call)

	return strings.TrimPrefix(sends[call].Body, "code ")
}

func TestResolve_VerifiedUserIsAuthenticatedWithoutMail(t *testing.T) {
	env := newTestEnv(t)
	user := env.users.put(verifiedUser("a@x.com"))

	res, err := env.userService().identity.Resolve(context.Background(), Assertion{
		ProviderID:    "google-1",
		Email:         "  A@X.com ",
		EmailVerified: true,
	})
	require.NoError(t, err)

	assert.Equal(t, OutcomeAuthenticated, res.Outcome)
	assert.Equal(t, user.ID, res.User.ID)
	assert.Empty(t, res.CandidateToken)
	env.sender.AssertNotCalled(t, "Send", mock.Anything)
	assert.Zero(t, env.users.writeCount())
}

func TestResolve_UnverifiedUserGetsExactlyOneNewCode(t *testing.T) {
	env := newTestEnv(t, "222222")
	env.sender.On("Send", mock.Anything).Return(nil)
	user := env.users.put(unverifiedUser("b@x.com", "123456", time.Now()))

	res, err := env.userService().identity.Resolve(context.Background(), Assertion{
		ProviderID: "google-2",
		Email:      "b@x.com",
	})
	require.NoError(t, err)

	assert.Equal(t, OutcomeReverify, res.Outcome)
	assert.Equal(t, user.ID, res.User.ID)
	env.sender.AssertNumberOfCalls(t, "Send", 1)
	assert.Equal(t, "222222", sentCode(t, env, 0))
	assert.Equal(t, "222222", env.users.get(user.ID).EmailVerificationCode.String)

	_, err = env.services.Users.Verify(context.Background(), ConfirmInput{Code: "123456", UserID: &user.ID}, SessionMeta{})
	assert.ErrorIs(t, err, ErrCodeMismatch)
	assert.False(t, env.users.get(user.ID).IsEmailVerified)
}

func TestResolve_UnknownEmailIssuesCandidateWithoutStoreWrite(t *testing.T) {
	env := newTestEnv(t, "333333")
	env.sender.On("Send", mock.Anything).Return(nil)

	res, err := env.userService().identity.Resolve(context.Background(), Assertion{
		ProviderID:  "google-3",
		Email:       "new@x.com",
		DisplayName: " New User ",
	})
	require.NoError(t, err)

	assert.Equal(t, OutcomeNewCandidate, res.Outcome)
	require.NotNil(t, res.Candidate)
	assert.Equal(t, "new@x.com", res.Candidate.Email)
	assert.Equal(t, "New User", res.Candidate.Name)
	assert.Equal(t, "google-3", res.Candidate.GoogleID)
	assert.True(t, res.Candidate.IsGoogleAccount)
	assert.NotEmpty(t, res.CandidateToken)
	assert.False(t, res.ChallengeExpiresAt.IsZero())

	env.sender.AssertNumberOfCalls(t, "Send", 1)
	assert.Zero(t, env.users.writeCount())
	_, err = env.users.GetByEmail(context.Background(), "new@x.com")
	assert.Error(t, err)

	claims, err := env.candidate.ParseChallengeToken(res.CandidateToken)
	require.NoError(t, err)
	assert.NotEqual(t, "333333", claims.CodeHash)
	assert.True(t, env.candidate.CodeMatches(claims, sentCode(t, env, 0)))
}

func TestResolve_InvalidAssertion(t *testing.T) {
	tests := []struct {
		name      string
		assertion Assertion
	}{
		{name: "empty provider id", assertion: Assertion{ProviderID: " ", Email: "a@x.com"}},
		{name: "empty email", assertion: Assertion{ProviderID: "g"}},
		{name: "malformed email", assertion: Assertion{ProviderID: "g", Email: "not-an-email"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			_, err := env.userService().identity.Resolve(context.Background(), tt.assertion)
			assert.ErrorIs(t, err, ErrInvalidAssertion)
			env.sender.AssertNotCalled(t, "Send", mock.Anything)
		})
	}
}

func TestResolve_DeliveryFailure(t *testing.T) {
	transportErr := errors.New("smtp unavailable")

	t.Run("candidate", func(t *testing.T) {
		env := newTestEnv(t)
		env.sender.On("Send", mock.Anything).Return(transportErr)

		res, err := env.userService().identity.Resolve(context.Background(), Assertion{ProviderID: "g", Email: "c@x.com"})
		assert.Nil(t, res)
		assert.ErrorIs(t, err, ErrDeliveryFailure)
		assert.ErrorIs(t, err, transportErr)
		assert.Zero(t, env.users.writeCount())
	})

	t.Run("unverified user keeps the new code", func(t *testing.T) {
		env := newTestEnv(t, "444444")
		env.sender.On("Send", mock.Anything).Return(transportErr).Once()
		user := env.users.put(unverifiedUser("d@x.com", "123456", time.Now()))

		_, err := env.userService().identity.Resolve(context.Background(), Assertion{ProviderID: "g", Email: "d@x.com"})
		assert.ErrorIs(t, err, ErrDeliveryFailure)
		assert.Equal(t, "444444", env.users.get(user.ID).EmailVerificationCode.String)
	})
}

func TestResolveSignup(t *testing.T) {
	t.Run("verified email is a conflict", func(t *testing.T) {
		env := newTestEnv(t)
		env.users.put(verifiedUser("a@x.com"))

		_, err := env.services.Users.SignUp(context.Background(), SignUpInput{Email: "a@x.com"})
		assert.ErrorIs(t, err, ErrConflict)
		env.sender.AssertNotCalled(t, "Send", mock.Anything)
	})

	t.Run("new email issues a password candidate", func(t *testing.T) {
		env := newTestEnv(t)
		env.sender.On("Send", mock.Anything).Return(nil)

		res, err := env.services.Users.SignUp(context.Background(), SignUpInput{Email: "Signup@X.com", Name: "Ann"})
		require.NoError(t, err)
		assert.Equal(t, OutcomeNewCandidate, res.Outcome)
		assert.Equal(t, "signup@x.com", res.Candidate.Email)
		assert.False(t, res.Candidate.IsGoogleAccount)
		assert.Empty(t, res.Candidate.GoogleID)
	})

	t.Run("malformed email", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.services.Users.SignUp(context.Background(), SignUpInput{Email: "nope"})
		assert.ErrorIs(t, err, ErrInvalidRequest)
	})
}

func TestResolve_ProviderUnverifiedEmailNeverAuthenticates(t *testing.T) {
	env := newTestEnv(t)
	env.sender.On("Send", mock.Anything).Return(nil)
	env.users.put(verifiedUser("victim@x.com"))

	res, err := env.userService().identity.Resolve(context.Background(), Assertion{
		ProviderID: "other-account",
		Email:      "victim@x.com",
	})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrInvalidAssertion)
	env.sender.AssertNotCalled(t, "Send", mock.Anything)

	res, err = env.userService().identity.Resolve(context.Background(), Assertion{
		ProviderID: "other-account",
		Email:      "fresh@x.com",
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeNewCandidate, res.Outcome)
}

// staleEmailUsers serves a lookup taken before the user got verified.
type staleEmailUsers struct {
	*memUsers
	stale domain.User
}

func (s *staleEmailUsers) GetByEmail(context.Context, string) (*domain.User, error) {
	u := s.stale
	return &u, nil
}

func TestResolve_UserVerifiedAfterLookup(t *testing.T) {
	env := newTestEnv(t)
	user := env.users.put(verifiedUser("a@x.com"))

	stale := *user
	stale.IsEmailVerified = false
	stale.EmailVerificationCode.String, stale.EmailVerificationCode.Valid = "123456", true

	users := &staleEmailUsers{memUsers: env.users, stale: stale}
	verification := *env.userService().verification
	verification.userRepository = users
	resolver := newIdentityResolver(users, &verification)

	res, err := resolver.Resolve(context.Background(), Assertion{ProviderID: "g", Email: "a@x.com", EmailVerified: true})
	require.NoError(t, err)
	assert.Equal(t, OutcomeAuthenticated, res.Outcome)
	assert.Equal(t, user.ID, res.User.ID)
	env.sender.AssertNotCalled(t, "Send", mock.Anything)

	_, err = resolver.ResolveSignup(context.Background(), "a@x.com", "")
	assert.ErrorIs(t, err, ErrConflict)
}
