package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const oauthStateKeyPrefix = "oauth:state:"

type oauthStateRepository struct {
	rdb redis.UniversalClient
}

func newOAuthStateRepository(rdb redis.UniversalClient) *oauthStateRepository {
	return &oauthStateRepository{
		rdb: rdb,
	}
}

func (r *oauthStateRepository) Save(ctx context.Context, state string, ttl time.Duration) error {
	if err := r.rdb.Set(ctx, oauthStateKeyPrefix+state, 1, ttl).Err(); err != nil {
		return fmt.Errorf("redis save oauth state failed: %w", err)
	}

	return nil
}

func (r *oauthStateRepository) Consume(ctx context.Context, state string) (bool, error) {
	err := r.rdb.GetDel(ctx, oauthStateKeyPrefix+state).Err()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis consume oauth state failed: %w", err)
	}

	return true, nil
}
