package email

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"strings"
)

var (
	ErrEmptyRecipient = errors.New("email recipient is empty")
	ErrInvalidAddress = errors.New("email recipient is not a valid address")
	ErrEmptyContent   = errors.New("email subject or body is empty")
	ErrHeaderInjected = errors.New("email subject contains a line break")
)

// SendEmailInput is one HTML message to a single customer.
type SendEmailInput struct {
	To      string
	Subject string
	Body    string
}

type Sender interface {
	Send(input SendEmailInput) error
}

// NewTemplateInput renders the template at templatePath with data into a ready message.
func NewTemplateInput(to string, subject string, templatePath string, data any) (SendEmailInput, error) {
	input := SendEmailInput{To: to, Subject: subject}
	if err := input.GenerateBodyFromHTML(templatePath, data); err != nil {
		return SendEmailInput{}, err
	}

	return input, nil
}

func (e *SendEmailInput) GenerateBodyFromHTML(templatePath string, data any) error {
	t, err := template.ParseFiles(templatePath)
	if err != nil {
		return fmt.Errorf("parse email template %s: %w", templatePath, err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return fmt.Errorf("render email template %s: %w", templatePath, err)
	}

	e.Body = buf.String()

	return nil
}

func (e *SendEmailInput) Validate() error {
	if e.To == "" {
		return ErrEmptyRecipient
	}

	if !IsEmailValid(e.To) {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, e.To)
	}

	if strings.TrimSpace(e.Subject) == "" || strings.TrimSpace(e.Body) == "" {
		return ErrEmptyContent
	}

	if strings.ContainsAny(e.Subject, "\r\n") {
		return ErrHeaderInjected
	}

	return nil
}
