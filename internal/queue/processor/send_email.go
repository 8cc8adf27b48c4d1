package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/oshxona/backend/internal/queue/task"
	"github.com/oshxona/backend/internal/worker"
	"github.com/oshxona/backend/pkg/logger"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

var errNoRecipient = errors.New("welcome email task has no recipient")

type sendWelcomeEmailProcessor struct {
	workers *worker.Workers
}

func NewSendWelcomeEmailProcessor(workers *worker.Workers) *sendWelcomeEmailProcessor {
	return &sendWelcomeEmailProcessor{
		workers: workers,
	}
}

// ProcessTask sends the welcome email for a verified user. Malformed payloads are never retried.
func (p *sendWelcomeEmailProcessor) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var data task.SendWelcomeEmail
	if err := json.Unmarshal(t.Payload(), &data); err != nil {
		return fmt.Errorf("decode welcome email payload: %v: %w", err, asynq.SkipRetry)
	}
	if data.Email == "" {
		return fmt.Errorf("%w: %w", errNoRecipient, asynq.SkipRetry)
	}

	if err := p.workers.EmailSender.SendWelcomeEmail(ctx, data.Email, data.Name); err != nil {
		return fmt.Errorf("send welcome email to %s: %w", data.Email, err)
	}

	logger.Debug("welcome email sent", zap.String("email", data.Email))
	return nil
}
