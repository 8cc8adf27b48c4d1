package service

import (
	"fmt"
	"path/filepath"

	"github.com/oshxona/backend/internal/config"
	emailProvider "github.com/oshxona/backend/pkg/email"
	"github.com/oshxona/backend/pkg/logger"

	"go.uber.org/zap"
)

type EmailService struct {
	sender  emailProvider.Sender
	config  config.EmailConfig
	enabled bool
}

func NewEmailService(sender emailProvider.Sender, config config.EmailConfig) *EmailService {
	return &EmailService{
		enabled: config.Enabled,
		sender:  sender,
		config:  config,
	}
}

type verificationEmailInput struct {
	VerificationCode string
}

const verificationSubject = "Tasdiqlash kodi"

type VerificationEmailInput struct {
	Email            string
	VerificationCode string
}

func (s *EmailService) SendUserVerificationEmail(input VerificationEmailInput) error {
	if !s.enabled {
		logger.Warn("email disabled, verification email skipped", zap.String("email", input.Email))
		return nil
	}

	templatePath := filepath.Join(s.config.TemplatesDir, s.config.Templates.Verification)
	sendInput, err := emailProvider.NewTemplateInput(input.Email, verificationSubject,
		templatePath, verificationEmailInput{input.VerificationCode})
	if err != nil {
		return fmt.Errorf("generate email failed: %w", err)
	}

	return s.sender.Send(sendInput)
}
