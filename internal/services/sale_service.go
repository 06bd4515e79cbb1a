package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hypernova-labs/retail-backoffice/internal/email"
	"github.com/hypernova-labs/retail-backoffice/internal/models"
	"github.com/hypernova-labs/retail-backoffice/internal/store"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const notificationTimeout = 15 * time.Second

// Notifier entrega el comprobante de una venta. Nunca falla: reporta el resultado.
type Notifier interface {
	Deliver(ctx context.Context, to, subject, htmlBody string) models.NotificationStatus
}

// SaleEventPublisher publica la confirmación de una venta a sistemas externos
type SaleEventPublisher interface {
	PublishSaleCreated(ctx context.Context, sale *models.Sale) error
}

// SaleService registra ventas: valida todas las líneas, descuenta stock y
// persiste la venta en una sola transacción.
type SaleService struct {
	userRepo store.UserStore
	saleRepo store.SaleStore
	notifier Notifier
	events   SaleEventPublisher
	vatRate  decimal.Decimal
	pageSize int
	now      func() time.Time
	logger   *logrus.Logger
}

// NewSaleService crea una nueva instancia del servicio. events puede ser nil.
func NewSaleService(
	userRepo store.UserStore,
	saleRepo store.SaleStore,
	notifier Notifier,
	events SaleEventPublisher,
	vatRate decimal.Decimal,
	pageSize int,
	logger *logrus.Logger,
) *SaleService {
	return &SaleService{
		userRepo: userRepo,
		saleRepo: saleRepo,
		notifier: notifier,
		events:   events,
		vatRate:  vatRate,
		pageSize: pageSize,
		now:      time.Now,
		logger:   logger,
	}
}

// plannedLine es una línea ya validada contra el producto bloqueado
type plannedLine struct {
	product  *models.Product
	quantity int
}

// CreateSale registra una venta completa o no cambia nada
func (s *SaleService) CreateSale(ctx context.Context, req *models.CreateSaleRequest) (*models.Sale, error) {
	if err := validateSaleRequest(req); err != nil {
		return nil, err
	}

	buyer, err := s.resolveBuyer(ctx, req)
	if err != nil {
		return nil, err
	}

	sale := &models.Sale{
		BuyerID:       buyer.ID,
		BuyerUsername: buyer.Username,
	}

	err = s.saleRepo.WithinTx(ctx, func(tx store.SaleTx) error {
		planned, err := s.validateLines(ctx, tx, req.Details)
		if err != nil {
			return err
		}
		return s.applySale(ctx, tx, sale, planned)
	})
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"buyer_id": buyer.ID,
			"lines":    len(req.Details),
		}).WithError(err).Warn("Sale rejected")
		return nil, fmt.Errorf("error creating sale: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"sale_id":  sale.ID,
		"buyer_id": sale.BuyerID,
		"total":    sale.Total.String(),
		"vat":      sale.VAT.String(),
		"lines":    len(sale.Lines),
	}).Info("Sale created successfully")

	// La venta ya está confirmada; lo que sigue no puede hacerla fallar
	afterCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notificationTimeout)
	defer cancel()

	sale.NotificationStatus = s.sendReceipt(afterCtx, buyer, sale)
	s.publishCreated(afterCtx, sale)

	return sale, nil
}

func validateSaleRequest(req *models.CreateSaleRequest) error {
	verr := &models.ValidationError{}

	if len(req.Details) == 0 {
		verr.Add("details", "must contain at least one line")
	}
	for i, line := range req.Details {
		if line.ProductID <= 0 {
			verr.Add(fmt.Sprintf("details[%d].product_id", i), "must be a positive integer")
		}
		if line.Quantity <= 0 {
			verr.Add(fmt.Sprintf("details[%d].quantity", i), "must be greater than 0")
		}
	}

	return verr.OrNil()
}

// resolveBuyer busca al comprador por ID o, si no se indicó, por nombre de usuario
func (s *SaleService) resolveBuyer(ctx context.Context, req *models.CreateSaleRequest) (*models.User, error) {
	userID := strings.TrimSpace(req.UserID)
	username := strings.TrimSpace(req.Username)

	var (
		user *models.User
		err  error
		ref  string
	)
	switch {
	case userID != "":
		ref = userID
		user, err = s.userRepo.GetByID(ctx, userID)
	case username != "":
		ref = username
		user, err = s.userRepo.GetByUsername(ctx, username)
	default:
		return nil, &models.InvalidBuyerError{}
	}

	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, &models.InvalidBuyerError{Ref: ref}
		}
		return nil, fmt.Errorf("error resolving buyer: %w", err)
	}

	return user, nil
}

// validateLines es la primera fase: bloquea los productos y comprueba todas las
// líneas sin modificar nada. El primer fallo en orden de entrada es el que se reporta.
func (s *SaleService) validateLines(ctx context.Context, tx store.SaleTx, details []models.SaleLineRequest) ([]plannedLine, error) {
	// Orden ascendente de bloqueo para que dos ventas no se interbloqueen
	ids := make([]int64, 0, len(details))
	seen := make(map[int64]bool, len(details))
	for _, line := range details {
		if !seen[line.ProductID] {
			seen[line.ProductID] = true
			ids = append(ids, line.ProductID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	products := make(map[int64]*models.Product, len(ids))
	for _, id := range ids {
		product, err := tx.LockProduct(ctx, id)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				continue
			}
			return nil, err
		}
		products[id] = product
	}

	requested := make(map[int64]int, len(ids))
	planned := make([]plannedLine, 0, len(details))
	for _, line := range details {
		product, ok := products[line.ProductID]
		if !ok {
			return nil, &models.ProductNotFoundError{ProductID: line.ProductID}
		}

		requested[line.ProductID] += line.Quantity
		if product.Quantity < requested[line.ProductID] {
			return nil, &models.InsufficientStockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Available:   product.Quantity,
				Requested:   requested[line.ProductID],
			}
		}

		planned = append(planned, plannedLine{product: product, quantity: line.Quantity})
	}

	return planned, nil
}

// applySale es la segunda fase: descuenta stock, calcula totales e inserta la venta
func (s *SaleService) applySale(ctx context.Context, tx store.SaleTx, sale *models.Sale, planned []plannedLine) error {
	total := decimal.Zero
	sale.Lines = make([]models.SaleLine, 0, len(planned))

	for i, line := range planned {
		ok, err := tx.DecrementStock(ctx, line.product.ID, line.quantity)
		if err != nil {
			return err
		}
		if !ok {
			return &models.InsufficientStockError{
				ProductID:   line.product.ID,
				ProductName: line.product.Name,
				Available:   line.product.Quantity,
				Requested:   line.quantity,
			}
		}

		subtotal := line.product.Price.Mul(decimal.NewFromInt(int64(line.quantity)))
		sale.Lines = append(sale.Lines, models.SaleLine{
			LineNo:      i + 1,
			ProductID:   line.product.ID,
			ProductName: line.product.Name,
			Quantity:    line.quantity,
			UnitPrice:   line.product.Price,
			Subtotal:    subtotal,
		})
		total = total.Add(subtotal)
	}

	sale.Total = total
	sale.VAT = total.Mul(s.vatRate)
	sale.Date = s.now().UTC()

	return tx.InsertSale(ctx, sale)
}

func (s *SaleService) sendReceipt(ctx context.Context, buyer *models.User, sale *models.Sale) models.NotificationStatus {
	if strings.TrimSpace(buyer.Email) == "" {
		return models.NotificationSkipped
	}

	body, err := email.RenderReceipt(buyer, sale)
	if err != nil {
		s.logger.WithField("sale_id", sale.ID).WithError(err).Error("Failed to render receipt")
		return models.NotificationFailedLogged
	}

	status := s.notifier.Deliver(ctx, buyer.Email, email.ReceiptSubject(sale.ID), body)
	s.logger.WithFields(logrus.Fields{
		"sale_id": sale.ID,
		"status":  status,
	}).Info("Sale receipt processed")

	return status
}

func (s *SaleService) publishCreated(ctx context.Context, sale *models.Sale) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishSaleCreated(ctx, sale); err != nil {
		s.logger.WithField("sale_id", sale.ID).WithError(err).Warn("Failed to publish sale event")
	}
}

// GetSale obtiene una venta con sus líneas
func (s *SaleService) GetSale(ctx context.Context, id int64) (*models.Sale, error) {
	sale, err := s.saleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting sale: %w", err)
	}
	return sale, nil
}

// ListSales obtiene una página de ventas, las más recientes primero
func (s *SaleService) ListSales(ctx context.Context, page int) (models.Page[models.Sale], error) {
	page = normalizePage(page)

	sales, total, err := s.saleRepo.List(ctx, page, s.pageSize)
	if err != nil {
		return models.Page[models.Sale]{}, fmt.Errorf("error listing sales: %w", err)
	}

	return models.NewPage(sales, page, s.pageSize, total), nil
}
