package asynqserver

import (
	"testing"

	"github.com/oshxona/backend/internal/cache"
	"github.com/oshxona/backend/internal/config"
	"github.com/oshxona/backend/internal/queue/task"
	"github.com/oshxona/backend/internal/worker"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisOptions(t *testing.T) {
	var single config.Cache
	single.Type = cache.RedisTypeSingle
	single.Redis.Address = "localhost:6379"
	single.Redis.PoolSize = 5

	opt, ok := RedisOptions(single).(asynq.RedisClientOpt)
	require.True(t, ok)
	assert.Equal(t, "localhost:6379", opt.Addr)
	assert.Equal(t, 5, opt.PoolSize)

	var cluster config.Cache
	cluster.Type = cache.RedisTypeCluster
	cluster.RedisCluster.Addresses = []string{"n1:7000", "n2:7001"}

	clusterOpt, ok := RedisOptions(cluster).(asynq.RedisClusterClientOpt)
	require.True(t, ok)
	assert.Equal(t, []string{"n1:7000", "n2:7001"}, clusterOpt.Addrs)
}

func TestGetQueues_RoutesWelcomeEmail(t *testing.T) {
	mux, queues := getQueues(&worker.Workers{})

	assert.Equal(t, map[string]int{task.SendEmailQueueName: welcomeEmailQueuePriority}, queues)

	_, pattern := mux.Handler(asynq.NewTask(task.SendWelcomeEmailTaskName, nil))
	assert.Equal(t, task.SendWelcomeEmailTaskName, pattern)
}
