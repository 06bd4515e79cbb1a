package workflows

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/hypernova-labs/retail-backoffice/internal/config"
	"github.com/hypernova-labs/retail-backoffice/internal/models"
	"github.com/inngest/inngestgo"
	"github.com/sirupsen/logrus"
)

// SaleCreatedEvent es el nombre del evento emitido tras confirmar una venta
const SaleCreatedEvent = "sales/sale.created"

// InngestClient publica eventos de dominio en Inngest
type InngestClient struct {
	client inngestgo.Client
	logger *logrus.Logger
}

// NewInngestClient crea una nueva instancia del cliente
func NewInngestClient(cfg *config.Config, logger *logrus.Logger) (*InngestClient, error) {
	if cfg.Inngest.EventKey == "" {
		return nil, fmt.Errorf("INNGEST_EVENT_KEY not configured")
	}

	opts := inngestgo.ClientOpts{
		EventKey: &cfg.Inngest.EventKey,
		AppID:    cfg.Inngest.AppID,
	}
	if cfg.Inngest.SigningKey != "" {
		opts.SigningKey = &cfg.Inngest.SigningKey
	}

	client, err := inngestgo.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("error creating Inngest client: %w", err)
	}

	return &InngestClient{
		client: client,
		logger: logger,
	}, nil
}

// SaleCreatedPayload construye los datos del evento de una venta
func SaleCreatedPayload(sale *models.Sale) map[string]any {
	lines := make([]map[string]any, 0, len(sale.Lines))
	for _, line := range sale.Lines {
		lines = append(lines, map[string]any{
			"product_id": line.ProductID,
			"quantity":   line.Quantity,
			"unit_price": line.UnitPrice.String(),
			"subtotal":   line.Subtotal.String(),
		})
	}

	return map[string]any{
		"sale_id": sale.ID,
		"user_id": sale.BuyerID,
		"date":    sale.Date.UTC().Format(time.RFC3339),
		"total":   sale.Total.String(),
		"vat":     sale.VAT.String(),
		"lines":   lines,
	}
}

// PublishSaleCreated emite sales/sale.created. El ID del evento es el de la venta,
// así un reenvío no duplica el evento.
func (c *InngestClient) PublishSaleCreated(ctx context.Context, sale *models.Sale) error {
	eventID := "sale-" + strconv.FormatInt(sale.ID, 10)

	id, err := c.client.Send(ctx, inngestgo.Event{
		ID:   &eventID,
		Name: SaleCreatedEvent,
		Data: SaleCreatedPayload(sale),
	})
	if err != nil {
		return fmt.Errorf("error sending %s event: %w", SaleCreatedEvent, err)
	}

	c.logger.WithFields(logrus.Fields{
		"event_id": id,
		"sale_id":  sale.ID,
	}).Debug("Sale event published")

	return nil
}
