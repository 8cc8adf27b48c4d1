package worker

import (
	"context"

	"github.com/oshxona/backend/internal/config"
	emailProvider "github.com/oshxona/backend/pkg/email"
)

type Workers struct {
	EmailSender EmailSender
}

type Deps struct {
	EmailProvider emailProvider.Sender
	Config        *config.Config
}

type EmailSender interface {
	SendWelcomeEmail(ctx context.Context, email string, name string) error
}

func NewWorkers(deps Deps) *Workers {
	return &Workers{
		EmailSender: newEmailSender(deps.EmailProvider, deps.Config.Email),
	}
}
