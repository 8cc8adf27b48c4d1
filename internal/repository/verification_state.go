package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	verificationAttemptsKeyPrefix = "verification:attempts:"
	resendCooldownKeyPrefix       = "verification:resend:"
)

type verificationStateRepository struct {
	rdb redis.UniversalClient
}

func newVerificationStateRepository(rdb redis.UniversalClient) *verificationStateRepository {
	return &verificationStateRepository{
		rdb: rdb,
	}
}

// Increment returns the counter after adding one and refreshes its ttl.
func (r *verificationStateRepository) Increment(ctx context.Context, key string, ttl time.Duration) (int, error) {
	var incr *redis.IntCmd
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, verificationAttemptsKeyPrefix+key)
		pipe.Expire(ctx, verificationAttemptsKeyPrefix+key, ttl)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("redis increment verification attempts failed: %w", err)
	}

	return int(incr.Val()), nil
}

func (r *verificationStateRepository) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := r.rdb.SetNX(ctx, resendCooldownKeyPrefix+key, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis acquire resend cooldown failed: %w", err)
	}

	return ok, nil
}
