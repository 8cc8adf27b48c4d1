package client

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
)

// Enqueuer puts tasks on the background queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, task *asynq.Task) error
}

type Client struct {
	client *asynq.Client
}

func New(opt asynq.RedisConnOpt) *Client {
	return &Client{client: asynq.NewClient(opt)}
}

// Enqueue is a no-op on a nil Client.
func (c *Client) Enqueue(ctx context.Context, task *asynq.Task) error {
	if c == nil || c.client == nil {
		return nil
	}

	if _, err := c.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("enqueue %s task failed: %w", task.Type(), err)
	}

	return nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
