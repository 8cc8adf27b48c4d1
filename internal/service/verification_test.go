package service

import (
	"context"
	"testing"
	"time"

	"github.com/oshxona/backend/internal/config"
	"github.com/oshxona/backend/pkg/auth"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestConfirm_AccountScenario(t *testing.T) {
	env := newTestEnv(t)
	user := env.users.put(unverifiedUser("b@x.com", "123456", time.Now()))
	verification := env.userService().verification

	_, err := verification.Confirm(context.Background(), ConfirmInput{Code: "654321", UserID: &user.ID})
	require.ErrorIs(t, err, ErrCodeMismatch)

	row := env.users.get(user.ID)
	assert.False(t, row.IsEmailVerified)
	assert.Equal(t, "123456", row.EmailVerificationCode.String)
	assert.True(t, row.EmailVerificationCode.Valid)

	confirmation, err := verification.Confirm(context.Background(), ConfirmInput{Code: "123456", UserID: &user.ID})
	require.NoError(t, err)
	assert.Equal(t, OutcomeVerified, confirmation.Outcome)
	assert.False(t, confirmation.AlreadyVerified)

	row = env.users.get(user.ID)
	assert.True(t, row.IsEmailVerified)
	assert.False(t, row.EmailVerificationCode.Valid)
}

func TestConfirm_AccountIsIdempotentOnceVerified(t *testing.T) {
	env := newTestEnv(t)
	user := env.users.put(unverifiedUser("b@x.com", "123456", time.Now()))
	verification := env.userService().verification

	_, err := verification.Confirm(context.Background(), ConfirmInput{Code: "123456", UserID: &user.ID})
	require.NoError(t, err)
	writes := env.users.writeCount()

	for _, code := range []string{"123456", "999999"} {
		confirmation, err := verification.Confirm(context.Background(), ConfirmInput{Code: code, UserID: &user.ID})
		require.NoError(t, err)
		assert.Equal(t, OutcomeVerified, confirmation.Outcome)
		assert.True(t, confirmation.AlreadyVerified)
	}

	assert.Equal(t, writes, env.users.writeCount())
}

func TestConfirm_CandidateScenario(t *testing.T) {
	env := newTestEnv(t, "135790")
	env.sender.On("Send", mock.Anything).Return(nil)

	res, err := env.userService().identity.Resolve(context.Background(), Assertion{ProviderID: "g-a", Email: "a@x.com"})
	require.NoError(t, err)
	require.Equal(t, OutcomeNewCandidate, res.Outcome)

	c1 := sentCode(t, env, 0)
	require.Len(t, c1, 6)

	verification := env.userService().verification

	confirmation, err := verification.Confirm(context.Background(), ConfirmInput{Code: c1, CandidateToken: res.CandidateToken})
	require.NoError(t, err)
	assert.Equal(t, OutcomeMaterialize, confirmation.Outcome)
	require.NotNil(t, confirmation.Candidate)
	assert.Equal(t, "a@x.com", confirmation.Candidate.Email)
	assert.NotEmpty(t, confirmation.RegistrationToken)
	assert.Zero(t, env.users.writeCount())

	env.users.put(verifiedUser("a@x.com"))

	confirmation, err = verification.Confirm(context.Background(), ConfirmInput{Code: c1, CandidateToken: res.CandidateToken})
	require.NoError(t, err)
	assert.Equal(t, OutcomeVerified, confirmation.Outcome)
	assert.True(t, confirmation.AlreadyVerified)
}

func TestConfirm_InvalidRequest(t *testing.T) {
	env := newTestEnv(t)
	verification := env.userService().verification
	id := uuid.New()

	tests := []struct {
		name  string
		input ConfirmInput
	}{
		{name: "no reference", input: ConfirmInput{Code: "123456"}},
		{name: "both references", input: ConfirmInput{Code: "123456", UserID: &id, CandidateToken: "token"}},
		{name: "nil user id", input: ConfirmInput{Code: "123456", UserID: &uuid.Nil}},
		{name: "empty code", input: ConfirmInput{UserID: &id}},
		{name: "garbage token", input: ConfirmInput{Code: "123456", CandidateToken: "not-a-jwt"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := verification.Confirm(context.Background(), tt.input)
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}

func TestConfirm_UnknownUser(t *testing.T) {
	env := newTestEnv(t)
	id := uuid.New()

	_, err := env.userService().verification.Confirm(context.Background(), ConfirmInput{Code: "123456", UserID: &id})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestConfirm_AccountExpiredCode(t *testing.T) {
	env := newTestEnv(t)
	user := env.users.put(unverifiedUser("b@x.com", "123456", time.Now().Add(-time.Hour)))

	_, err := env.userService().verification.Confirm(context.Background(), ConfirmInput{Code: "123456", UserID: &user.ID})
	assert.ErrorIs(t, err, ErrChallengeExpired)
	assert.False(t, env.users.get(user.ID).IsEmailVerified)
}

func TestConfirm_AccountTooManyAttempts(t *testing.T) {
	env := newTestEnv(t)
	user := env.users.put(unverifiedUser("b@x.com", "123456", time.Now()))
	verification := env.userService().verification

	for i := 0; i < env.cfg.Auth.Verification.MaxAttempts; i++ {
		_, err := verification.Confirm(context.Background(), ConfirmInput{Code: "000001", UserID: &user.ID})
		require.ErrorIs(t, err, ErrCodeMismatch)
	}

	_, err := verification.Confirm(context.Background(), ConfirmInput{Code: "123456", UserID: &user.ID})
	assert.ErrorIs(t, err, ErrTooManyAttempts)

	row := env.users.get(user.ID)
	assert.False(t, row.IsEmailVerified)
	assert.Equal(t, "123456", row.EmailVerificationCode.String)
}

func TestConfirm_ReissueResetsAttempts(t *testing.T) {
	env := newTestEnv(t, "246810")
	env.sender.On("Send", mock.Anything).Return(nil)
	user := env.users.put(unverifiedUser("b@x.com", "123456", time.Now()))
	verification := env.userService().verification

	for i := 0; i < env.cfg.Auth.Verification.MaxAttempts; i++ {
		_, _ = verification.Confirm(context.Background(), ConfirmInput{Code: "000001", UserID: &user.ID})
	}

	_, err := verification.Resend(context.Background(), user.ID)
	require.NoError(t, err)

	confirmation, err := verification.Confirm(context.Background(), ConfirmInput{Code: "246810", UserID: &user.ID})
	require.NoError(t, err)
	assert.Equal(t, OutcomeVerified, confirmation.Outcome)
}

func TestConfirm_CandidateMismatchCountsAttemptsWithoutStoreWrite(t *testing.T) {
	env := newTestEnv(t, "112233")
	env.sender.On("Send", mock.Anything).Return(nil)

	res, err := env.userService().identity.Resolve(context.Background(), Assertion{ProviderID: "g", Email: "c@x.com"})
	require.NoError(t, err)

	verification := env.userService().verification

	for i := 0; i < env.cfg.Auth.Verification.MaxAttempts; i++ {
		_, err := verification.Confirm(context.Background(), ConfirmInput{Code: "445566", CandidateToken: res.CandidateToken})
		require.ErrorIs(t, err, ErrCodeMismatch)
	}
	assert.Zero(t, env.users.writeCount())

	_, err = verification.Confirm(context.Background(), ConfirmInput{Code: "112233", CandidateToken: res.CandidateToken})
	assert.ErrorIs(t, err, ErrTooManyAttempts)
}

func TestConfirm_CandidateExistingUnverifiedIsConflict(t *testing.T) {
	env := newTestEnv(t, "112233")
	env.sender.On("Send", mock.Anything).Return(nil)

	res, err := env.userService().identity.Resolve(context.Background(), Assertion{ProviderID: "g", Email: "c@x.com"})
	require.NoError(t, err)

	env.users.put(unverifiedUser("c@x.com", "999999", time.Now()))

	_, err = env.userService().verification.Confirm(context.Background(), ConfirmInput{Code: "112233", CandidateToken: res.CandidateToken})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestConfirm_CandidateExpiredToken(t *testing.T) {
	env := newTestEnv(t)

	shortLived, err := auth.NewCandidateManager(config.CandidateConfig{
		SigningKey:      env.cfg.Auth.Candidate.SigningKey,
		ChallengeTTL:    time.Nanosecond,
		RegistrationTTL: time.Nanosecond,
	})
	require.NoError(t, err)

	token, _, err := shortLived.NewChallengeToken(auth.Candidate{Email: "e@x.com"}, "123456")
	require.NoError(t, err)

	_, err = env.userService().verification.Confirm(context.Background(), ConfirmInput{Code: "123456", CandidateToken: token})
	assert.ErrorIs(t, err, ErrChallengeExpired)
}

func TestConfirm_RegistrationTokenIsNotAChallenge(t *testing.T) {
	env := newTestEnv(t)

	token, err := env.candidate.NewRegistrationToken(auth.Candidate{Email: "e@x.com"})
	require.NoError(t, err)

	_, err = env.userService().verification.Confirm(context.Background(), ConfirmInput{Code: "123456", CandidateToken: token})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestResend(t *testing.T) {
	t.Run("unverified user gets a new code", func(t *testing.T) {
		env := newTestEnv(t, "555555")
		env.sender.On("Send", mock.Anything).Return(nil)
		user := env.users.put(unverifiedUser("b@x.com", "123456", time.Now()))

		challenge, err := env.services.Users.ResendVerification(context.Background(), user.ID)
		require.NoError(t, err)
		assert.Equal(t, "b@x.com", challenge.Email)
		assert.Equal(t, "555555", env.users.get(user.ID).EmailVerificationCode.String)
		env.sender.AssertNumberOfCalls(t, "Send", 1)
	})

	t.Run("verified user", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.users.put(verifiedUser("a@x.com"))

		_, err := env.services.Users.ResendVerification(context.Background(), user.ID)
		assert.ErrorIs(t, err, ErrAlreadyVerified)
	})

	t.Run("cooldown", func(t *testing.T) {
		env := newTestEnv(t)
		env.sender.On("Send", mock.Anything).Return(nil)
		env.userService().verification.config.ResendCooldown = time.Minute
		user := env.users.put(unverifiedUser("b@x.com", "123456", time.Now()))

		_, err := env.services.Users.ResendVerification(context.Background(), user.ID)
		require.NoError(t, err)

		_, err = env.services.Users.ResendVerification(context.Background(), user.ID)
		assert.ErrorIs(t, err, ErrResendTooSoon)
		env.sender.AssertNumberOfCalls(t, "Send", 1)
	})

	t.Run("unknown user", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.services.Users.ResendVerification(context.Background(), uuid.New())
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}
