package worker

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/oshxona/backend/internal/config"
	emailProvider "github.com/oshxona/backend/pkg/email"
	"github.com/oshxona/backend/pkg/logger"

	"go.uber.org/zap"
)

type emailSender struct {
	sender emailProvider.Sender
	config config.EmailConfig
}

func newEmailSender(
	sender emailProvider.Sender,
	config config.EmailConfig,
) *emailSender {
	return &emailSender{
		sender: sender,
		config: config,
	}
}

const welcomeSubject = "Oshxonaga xush kelibsiz"

type welcomeEmailInput struct {
	Name string
}

func (s *emailSender) SendWelcomeEmail(ctx context.Context, email string, name string) error {
	if !s.config.Enabled {
		logger.Debug("email disabled, welcome email skipped", zap.String("email", email))
		return nil
	}

	templatePath := filepath.Join(s.config.TemplatesDir, s.config.Templates.Welcome)
	sendInput, err := emailProvider.NewTemplateInput(email, welcomeSubject, templatePath, welcomeEmailInput{Name: name})
	if err != nil {
		return fmt.Errorf("generate email failed: %w", err)
	}

	if err := s.sender.Send(sendInput); err != nil {
		return fmt.Errorf("send email failed: %w", err)
	}

	return nil
}
