package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/oshxona/backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCandidateManager(t *testing.T) *CandidateManager {
	t.Helper()
	m, err := NewCandidateManager(config.CandidateConfig{
		SigningKey:      "candidate-key",
		ChallengeTTL:    15 * time.Minute,
		RegistrationTTL: 30 * time.Minute,
	})
	require.NoError(t, err)
	return m
}

func TestCandidateManager_ChallengeRoundTrip(t *testing.T) {
	m := newTestCandidateManager(t)
	candidate := Candidate{Email: "a@x.com", Name: "Aziz", GoogleID: "g-1", GoogleAccount: true}

	token, issued, err := m.NewChallengeToken(candidate, "123456")
	require.NoError(t, err)
	assert.NotContains(t, token, "123456")

	claims, err := m.ParseChallengeToken(token)
	require.NoError(t, err)
	assert.Equal(t, candidate, claims.Candidate)
	assert.Equal(t, issued.ID, claims.ID)

	assert.True(t, m.CodeMatches(claims, "123456"))
	assert.False(t, m.CodeMatches(claims, "654321"))
}

func TestCandidateManager_CodeHashBoundToToken(t *testing.T) {
	m := newTestCandidateManager(t)
	candidate := Candidate{Email: "a@x.com"}

	_, first, err := m.NewChallengeToken(candidate, "123456")
	require.NoError(t, err)
	_, second, err := m.NewChallengeToken(candidate, "123456")
	require.NoError(t, err)

	assert.NotEqual(t, first.CodeHash, second.CodeHash)
}

func TestCandidateManager_Expired(t *testing.T) {
	m := newTestCandidateManager(t)
	now := time.Now()
	m.now = func() time.Time { return now }

	token, _, err := m.NewChallengeToken(Candidate{Email: "a@x.com"}, "123456")
	require.NoError(t, err)

	m.now = func() time.Time { return now.Add(16 * time.Minute) }
	_, err = m.ParseChallengeToken(token)
	assert.ErrorIs(t, err, ErrCandidateTokenExpired)
}

func TestCandidateManager_RejectsTamperedAndForeignTokens(t *testing.T) {
	m := newTestCandidateManager(t)

	token, _, err := m.NewChallengeToken(Candidate{Email: "a@x.com"}, "123456")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))
	_, err = m.ParseChallengeToken(tampered)
	assert.ErrorIs(t, err, ErrCandidateTokenInvalid)

	other, err := NewCandidateManager(config.CandidateConfig{SigningKey: "other", ChallengeTTL: time.Minute, RegistrationTTL: time.Minute})
	require.NoError(t, err)
	_, err = other.ParseChallengeToken(token)
	assert.ErrorIs(t, err, ErrCandidateTokenInvalid)
}

func TestCandidateManager_TokenTypesAreNotInterchangeable(t *testing.T) {
	m := newTestCandidateManager(t)

	challenge, _, err := m.NewChallengeToken(Candidate{Email: "a@x.com"}, "123456")
	require.NoError(t, err)
	registration, err := m.NewRegistrationToken(Candidate{Email: "a@x.com"})
	require.NoError(t, err)

	_, err = m.ParseRegistrationToken(challenge)
	assert.ErrorIs(t, err, ErrCandidateTokenInvalid)

	_, err = m.ParseChallengeToken(registration)
	assert.ErrorIs(t, err, ErrCandidateTokenInvalid)

	claims, err := m.ParseRegistrationToken(registration)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Empty(t, claims.CodeHash)
}
