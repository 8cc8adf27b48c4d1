package asynqserver

import (
	"context"

	"github.com/oshxona/backend/internal/cache"
	"github.com/oshxona/backend/internal/config"
	"github.com/oshxona/backend/internal/queue/processor"
	"github.com/oshxona/backend/internal/queue/task"
	"github.com/oshxona/backend/internal/worker"
	"github.com/oshxona/backend/pkg/logger"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const welcomeEmailQueuePriority = 1

// New builds the worker server and its handler mux. Failed tasks are logged and left to asynq retries.
func New(cfg *config.Config, workers *worker.Workers) (*asynq.Server, *asynq.ServeMux) {
	mux, queues := getQueues(workers)
	srv := asynq.NewServer(
		RedisOptions(cfg.Cache),
		asynq.Config{
			Concurrency:     cfg.Queue.Concurrency,
			LogLevel:        asynq.ErrorLevel,
			Queues:          queues,
			ShutdownTimeout: cfg.Queue.ShutdownTimeout,
			ErrorHandler:    asynq.ErrorHandlerFunc(logTaskFailure),
		},
	)

	return srv, mux
}

// RedisOptions is shared by the enqueueing client in the API and the worker server.
func RedisOptions(cfg config.Cache) asynq.RedisConnOpt {
	if cfg.Type == cache.RedisTypeCluster {
		return asynq.RedisClusterClientOpt{Addrs: cfg.RedisCluster.Addresses, Password: cfg.RedisCluster.Password}
	}
	return asynq.RedisClientOpt{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, PoolSize: cfg.Redis.PoolSize}
}

func logTaskFailure(_ context.Context, t *asynq.Task, err error) {
	logger.Error("queue task failed", zap.String("task", t.Type()), zap.Error(err))
}

func getQueues(workers *worker.Workers) (*asynq.ServeMux, map[string]int) {
	mux := asynq.NewServeMux()
	mux.Handle(task.SendWelcomeEmailTaskName, processor.NewSendWelcomeEmailProcessor(workers))
	queues := map[string]int{
		task.SendEmailQueueName: welcomeEmailQueuePriority,
	}
	return mux, queues
}
