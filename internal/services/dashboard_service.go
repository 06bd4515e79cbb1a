package services

import (
	"context"
	"fmt"
	"time"

	"github.com/hypernova-labs/retail-backoffice/internal/models"
	"github.com/hypernova-labs/retail-backoffice/internal/store"
	"github.com/sirupsen/logrus"
)

// DashboardService calcula los indicadores del panel
type DashboardService struct {
	productRepo store.ProductStore
	userRepo    store.UserStore
	saleRepo    store.SaleStore
	now         func() time.Time
	logger      *logrus.Logger
}

// NewDashboardService crea una nueva instancia del servicio
func NewDashboardService(productRepo store.ProductStore, userRepo store.UserStore, saleRepo store.SaleStore, logger *logrus.Logger) *DashboardService {
	return &DashboardService{
		productRepo: productRepo,
		userRepo:    userRepo,
		saleRepo:    saleRepo,
		now:         time.Now,
		logger:      logger,
	}
}

// Get obtiene los totales del catálogo y las ventas del mes en curso
func (s *DashboardService) Get(ctx context.Context) (*models.Dashboard, error) {
	now := s.now().UTC()

	products, err := s.productRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting dashboard: %w", err)
	}

	users, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting dashboard: %w", err)
	}

	sales, revenue, err := s.saleRepo.MonthSummary(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("error getting dashboard: %w", err)
	}

	return &models.Dashboard{
		Month:            now.Format("2006-01"),
		TotalProducts:    products,
		TotalUsers:       users,
		SalesThisMonth:   sales,
		RevenueThisMonth: revenue,
	}, nil
}
