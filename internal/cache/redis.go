package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oshxona/backend/internal/config"

	"github.com/redis/go-redis/v9"
)

const (
	RedisTypeSingle  = "redis"
	RedisTypeCluster = "redisCluster"

	pingTimeout = 1500 * time.Millisecond
	ioTimeout   = time.Second
)

var (
	ErrUnknownRedisType = errors.New("unknown redis type")
	ErrNoRedisAddress   = errors.New("redis address is not configured")
)

// NewRedis connects the store holding OAuth states, verification attempt counters and
// resend cooldowns. The client is closed again if the first ping fails.
func NewRedis(cfg config.Cache) (redis.UniversalClient, error) {
	var client redis.UniversalClient

	switch cfg.Type {
	case RedisTypeSingle:
		if cfg.Redis.Address == "" {
			return nil, ErrNoRedisAddress
		}
		client = redis.NewClient(&redis.Options{
			Addr:            cfg.Redis.Address,
			Password:        cfg.Redis.Password,
			PoolSize:        cfg.Redis.PoolSize,
			ConnMaxIdleTime: 170 * time.Second,
			DialTimeout:     ioTimeout,
			ReadTimeout:     ioTimeout,
			WriteTimeout:    ioTimeout,
		})
	case RedisTypeCluster:
		if len(cfg.RedisCluster.Addresses) == 0 {
			return nil, ErrNoRedisAddress
		}
		client = redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:           cfg.RedisCluster.Addresses,
			Password:        cfg.RedisCluster.Password,
			PoolSize:        cfg.RedisCluster.PoolSize,
			ConnMaxLifetime: 15 * time.Minute,
			DialTimeout:     ioTimeout,
			ReadTimeout:     ioTimeout,
			WriteTimeout:    ioTimeout,
		})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownRedisType, cfg.Type)
	}

	if err := ping(client); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Type, err)
	}

	return client, nil
}

func ping(client redis.UniversalClient) error {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	return client.Ping(ctx).Err()
}
