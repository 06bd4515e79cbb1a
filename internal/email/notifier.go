package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/hypernova-labs/retail-backoffice/internal/models"
	"github.com/sirupsen/logrus"
)

// Sender entrega un correo HTML a una dirección
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// LogSender solo registra el correo. Se usa cuando no hay proveedor configurado.
type LogSender struct {
	logger *logrus.Logger
}

// NewLogSender crea un LogSender
func NewLogSender(logger *logrus.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send registra el envío y nunca falla
func (s *LogSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	s.logger.WithFields(logrus.Fields{
		"to":      to,
		"subject": subject,
		"bytes":   len(htmlBody),
	}).Info("Email provider not configured, message logged instead of sent")
	return nil
}

// Notifier aísla los fallos de entrega: nunca devuelve error ni propaga panics.
type Notifier struct {
	sender Sender
	logger *logrus.Logger
}

// NewNotifier crea un Notifier sobre un Sender
func NewNotifier(sender Sender, logger *logrus.Logger) *Notifier {
	return &Notifier{sender: sender, logger: logger}
}

// Deliver intenta enviar el correo y retorna el resultado
func (n *Notifier) Deliver(ctx context.Context, to, subject, htmlBody string) (status models.NotificationStatus) {
	if strings.TrimSpace(to) == "" {
		return models.NotificationSkipped
	}

	log := n.logger.WithFields(logrus.Fields{
		"to":      to,
		"subject": subject,
	})

	defer func() {
		if p := recover(); p != nil {
			log.WithField("panic", fmt.Sprint(p)).Error("Email sender panicked")
			status = models.NotificationFailedLogged
		}
	}()

	if err := n.sender.Send(ctx, to, subject, htmlBody); err != nil {
		log.WithError(err).Error("Failed to deliver email")
		return models.NotificationFailedLogged
	}

	return models.NotificationDelivered
}
