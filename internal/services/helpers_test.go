package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/hypernova-labs/retail-backoffice/internal/memstore"
	"github.com/hypernova-labs/retail-backoffice/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var fixedNow = time.Date(2024, time.March, 15, 13, 30, 0, 0, time.FixedZone("COT", -5*60*60))

func newTestLogger() *logrus.Logger {
	logger, _ := test.NewNullLogger()
	return logger
}

func seedProduct(t *testing.T, mem *memstore.Store, name, price string, quantity int) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Quantity: quantity,
	}
	require.NoError(t, mem.Products().Create(context.Background(), product))
	return product
}

func seedUser(t *testing.T, mem *memstore.Store, username, email string) *models.User {
	t.Helper()
	user := &models.User{
		Username:       username,
		Email:          email,
		FullName:       "Test " + username,
		DocumentNumber: "12345678",
		Role:           models.RoleClient,
		RegisterDate:   fixedNow,
	}
	require.NoError(t, mem.Users().Create(context.Background(), user))
	return user
}

func stockOf(t *testing.T, mem *memstore.Store, id int64) int {
	t.Helper()
	product, err := mem.Products().GetByID(context.Background(), id)
	require.NoError(t, err)
	return product.Quantity
}

// recordingNotifier registra los comprobantes entregados
type recordingNotifier struct {
	mu     sync.Mutex
	status models.NotificationStatus
	sent   []string
}

func (n *recordingNotifier) Deliver(ctx context.Context, to, subject, htmlBody string) models.NotificationStatus {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, to+"|"+subject)
	if n.status == "" {
		return models.NotificationDelivered
	}
	return n.status
}

func (n *recordingNotifier) calls() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.sent...)
}

type recordingPublisher struct {
	err       error
	published []int64
}

func (p *recordingPublisher) PublishSaleCreated(ctx context.Context, sale *models.Sale) error {
	p.published = append(p.published, sale.ID)
	return p.err
}

func newTestUserService(mem *memstore.Store) *UserService {
	return NewUserServiceWithCost(mem.Users(), 10, bcrypt.MinCost, newTestLogger())
}
