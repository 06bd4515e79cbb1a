package email

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
	"github.com/sirupsen/logrus"
)

// ResendSender envía correos electrónicos usando la API de Resend
type ResendSender struct {
	client    *resend.Client
	fromEmail string
	logger    *logrus.Logger
}

// NewResendSender crea una nueva instancia de ResendSender
func NewResendSender(apiKey, fromEmail string, logger *logrus.Logger) *ResendSender {
	return NewResendSenderWithClient(resend.NewClient(apiKey), fromEmail, logger)
}

// NewResendSenderWithClient usa un cliente ya construido
func NewResendSenderWithClient(client *resend.Client, fromEmail string, logger *logrus.Logger) *ResendSender {
	return &ResendSender{
		client:    client,
		fromEmail: fromEmail,
		logger:    logger,
	}
}

// Send envía un correo HTML
func (s *ResendSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	request := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{to},
		Subject: subject,
		Html:    htmlBody,
	}

	result, err := s.client.Emails.SendWithContext(ctx, request)
	if err != nil {
		return fmt.Errorf("error sending email via Resend: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"email_id": result.Id,
		"to":       to,
		"subject":  subject,
	}).Info("Email sent successfully via Resend")

	return nil
}
