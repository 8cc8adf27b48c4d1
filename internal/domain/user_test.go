package domain

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUser_ChallengeExpired(t *testing.T) {
	now := time.Now()
	sent := now.Add(-10 * time.Minute)

	u := &User{EmailVerificationCode: sql.NullString{String: "123456", Valid: true}, VerificationSentAt: &sent}
	assert.True(t, u.HasOutstandingChallenge())
	assert.False(t, u.ChallengeExpired(now, 15*time.Minute))
	assert.True(t, u.ChallengeExpired(now, 5*time.Minute))
	assert.False(t, u.ChallengeExpired(now, 0))

	u.IsEmailVerified = true
	assert.False(t, u.HasOutstandingChallenge())
	assert.False(t, u.ChallengeExpired(now, time.Minute))
}

func TestCandidate_ToUser(t *testing.T) {
	u := Candidate{Email: "a@x.com", Name: "Aziz", GoogleID: "g-1", IsGoogleAccount: true}.ToUser()

	assert.Equal(t, "a@x.com", u.Email)
	assert.True(t, u.IsEmailVerified)
	assert.True(t, u.IsGoogleAccount)
	assert.Equal(t, sql.NullString{String: "g-1", Valid: true}, u.GoogleID)
	assert.False(t, u.EmailVerificationCode.Valid)

	plain := Candidate{Email: "b@x.com"}.ToUser()
	assert.False(t, plain.GoogleID.Valid)
	assert.False(t, plain.Name.Valid)
}
