package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const concurrentCallers = 32

func TestVerify_ConcurrentCorrectCodeVerifiesOnce(t *testing.T) {
	env := newTestEnv(t)
	user := env.users.put(unverifiedUser("b@x.com", "123456", time.Now()))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		fresh   int
		already int
		failed  []error
	)

	start := make(chan struct{})
	for i := 0; i < concurrentCallers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start

			res, err := env.services.Users.Verify(context.Background(), ConfirmInput{Code: "123456", UserID: &user.ID}, testMeta)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				failed = append(failed, err)
			case res.Confirmation.AlreadyVerified:
				already++
				assert.Nil(t, res.Tokens)
			default:
				fresh++
				assert.NotNil(t, res.Tokens)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Empty(t, failed)
	assert.Equal(t, 1, fresh)
	assert.Equal(t, concurrentCallers-1, already)
	assert.Equal(t, 1, env.sessions.count())

	row := env.users.get(user.ID)
	assert.True(t, row.IsEmailVerified)
	assert.False(t, row.EmailVerificationCode.Valid)
}

func TestVerify_ReissueRacingConfirmations(t *testing.T) {
	env := newTestEnv(t, "222222")
	env.sender.On("Send", mock.Anything).Return(nil)
	user := env.users.put(unverifiedUser("b@x.com", "123456", time.Now()))

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		fresh     int
		resendErr error
	)

	start := make(chan struct{})
	for i := 0; i < concurrentCallers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start

			res, err := env.services.Users.Verify(context.Background(), ConfirmInput{Code: "123456", UserID: &user.ID}, testMeta)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				assert.ErrorIs(t, err, ErrCodeMismatch)
				return
			}
			if !res.Confirmation.AlreadyVerified {
				fresh++
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-start
		_, resendErr = env.services.Users.ResendVerification(context.Background(), user.ID)
	}()

	close(start)
	wg.Wait()

	assert.LessOrEqual(t, fresh, 1)
	assert.Equal(t, fresh, env.sessions.count())

	row := env.users.get(user.ID)
	if fresh == 1 {
		assert.True(t, row.IsEmailVerified)
		assert.False(t, row.EmailVerificationCode.Valid)
		if resendErr != nil {
			assert.ErrorIs(t, resendErr, ErrAlreadyVerified)
		}
		return
	}

	require.NoError(t, resendErr)
	assert.False(t, row.IsEmailVerified)
	assert.Equal(t, "222222", row.EmailVerificationCode.String)

	res, err := env.services.Users.Verify(context.Background(), ConfirmInput{Code: "222222", UserID: &user.ID}, testMeta)
	require.NoError(t, err)
	assert.False(t, res.Confirmation.AlreadyVerified)
}

func TestConfirm_ConcurrentCandidateGuessesStayWithinCap(t *testing.T) {
	env := newTestEnv(t, "112233")
	env.sender.On("Send", mock.Anything).Return(nil)

	res, err := env.userService().identity.Resolve(context.Background(), Assertion{ProviderID: "g", Email: "c@x.com"})
	require.NoError(t, err)

	verification := env.userService().verification
	maxAttempts := env.cfg.Auth.Verification.MaxAttempts

	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		mismatches int
		capped     int
	)

	start := make(chan struct{})
	for i := 0; i < concurrentCallers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start

			_, err := verification.Confirm(context.Background(), ConfirmInput{Code: "445566", CandidateToken: res.CandidateToken})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, ErrCodeMismatch):
				mismatches++
			case errors.Is(err, ErrTooManyAttempts):
				capped++
			default:
				t.Errorf("unexpected result: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, maxAttempts, mismatches)
	assert.Equal(t, concurrentCallers-maxAttempts, capped)

	claims, err := env.candidate.ParseChallengeToken(res.CandidateToken)
	require.NoError(t, err)
	assert.Equal(t, concurrentCallers, env.attempts.get(claims.ID))
}
