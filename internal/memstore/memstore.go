// Package memstore es una implementación en memoria de los contratos de store.
// Se usa con DB_DRIVER=memory y en los tests de servicios y handlers.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hypernova-labs/retail-backoffice/internal/models"
	"github.com/hypernova-labs/retail-backoffice/internal/store"
	"github.com/shopspring/decimal"
)

// Store guarda productos, usuarios y ventas bajo un único mutex
type Store struct {
	mu       sync.Mutex
	products map[int64]models.Product
	users    map[string]models.User
	sales    map[int64]models.Sale

	nextProductID int64
	nextSaleID    int64
	nextLineID    int64
}

// New crea un Store vacío
func New() *Store {
	return &Store{
		products: map[int64]models.Product{},
		users:    map[string]models.User{},
		sales:    map[int64]models.Sale{},
	}
}

// Products retorna la vista de productos
func (s *Store) Products() *ProductStore { return &ProductStore{s: s} }

// Users retorna la vista de usuarios
func (s *Store) Users() *UserStore { return &UserStore{s: s} }

// Sales retorna la vista de ventas
func (s *Store) Sales() *SaleStore { return &SaleStore{s: s} }

func pageBounds(n, page, pageSize int) (int, int) {
	from := (page - 1) * pageSize
	if from < 0 {
		from = 0
	}
	if from > n {
		from = n
	}
	to := from + pageSize
	if to > n {
		to = n
	}
	return from, to
}

// ProductStore implementa store.ProductStore
type ProductStore struct{ s *Store }

var _ store.ProductStore = (*ProductStore)(nil)

func (p *ProductStore) Create(ctx context.Context, product *models.Product) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	p.s.insertProduct(product)
	return nil
}

func (s *Store) insertProduct(product *models.Product) {
	s.nextProductID++
	product.ID = s.nextProductID
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}
	s.products[product.ID] = *product
}

func (p *ProductStore) CreateBatch(ctx context.Context, products []*models.Product) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	for _, product := range products {
		p.s.insertProduct(product)
	}
	return nil
}

func (p *ProductStore) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	product, ok := p.s.products[id]
	if !ok {
		return nil, fmt.Errorf("product %d: %w", id, models.ErrNotFound)
	}
	return &product, nil
}

func (p *ProductStore) List(ctx context.Context, page, pageSize int) ([]models.Product, int, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	all := make([]models.Product, 0, len(p.s.products))
	for _, product := range p.s.products {
		all = append(all, product)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	from, to := pageBounds(len(all), page, pageSize)
	return all[from:to], len(all), nil
}

func (p *ProductStore) Update(ctx context.Context, product *models.Product) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	existing, ok := p.s.products[product.ID]
	if !ok {
		return fmt.Errorf("product %d: %w", product.ID, models.ErrNotFound)
	}
	product.CreatedAt = existing.CreatedAt
	p.s.products[product.ID] = *product
	return nil
}

func (p *ProductStore) Delete(ctx context.Context, id int64) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	if _, ok := p.s.products[id]; !ok {
		return fmt.Errorf("product %d: %w", id, models.ErrNotFound)
	}
	for _, sale := range p.s.sales {
		for _, line := range sale.Lines {
			if line.ProductID == id {
				return fmt.Errorf("product %d: %w: record is still referenced", id, models.ErrConflict)
			}
		}
	}
	delete(p.s.products, id)
	return nil
}

func (p *ProductStore) Count(ctx context.Context) (int64, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	return int64(len(p.s.products)), nil
}

// UserStore implementa store.UserStore
type UserStore struct{ s *Store }

var _ store.UserStore = (*UserStore)(nil)

func (u *UserStore) checkUnique(user *models.User) error {
	for id, other := range u.s.users {
		if id == user.ID {
			continue
		}
		if other.Username == user.Username {
			return fmt.Errorf("username %s: %w", user.Username, models.ErrConflict)
		}
		if other.Email == user.Email {
			return fmt.Errorf("email %s: %w", user.Email, models.ErrConflict)
		}
	}
	return nil
}

func (u *UserStore) Create(ctx context.Context, user *models.User) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if err := u.checkUnique(user); err != nil {
		return err
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	u.s.users[user.ID] = *user
	return nil
}

func (u *UserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	user, ok := u.s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, models.ErrNotFound)
	}
	return &user, nil
}

func (u *UserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	for _, user := range u.s.users {
		if user.Username == username {
			return &user, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", username, models.ErrNotFound)
}

func (u *UserStore) List(ctx context.Context, page, pageSize int) ([]models.User, int, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	all := make([]models.User, 0, len(u.s.users))
	for _, user := range u.s.users {
		all = append(all, user)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Username < all[j].Username })

	from, to := pageBounds(len(all), page, pageSize)
	return all[from:to], len(all), nil
}

func (u *UserStore) Update(ctx context.Context, user *models.User) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	existing, ok := u.s.users[user.ID]
	if !ok {
		return fmt.Errorf("user %s: %w", user.ID, models.ErrNotFound)
	}
	if err := u.checkUnique(user); err != nil {
		return err
	}
	user.CreatedAt = existing.CreatedAt
	user.Role = existing.Role
	user.EmailConfirmed = existing.EmailConfirmed
	u.s.users[user.ID] = *user
	return nil
}

func (u *UserStore) Delete(ctx context.Context, id string) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	if _, ok := u.s.users[id]; !ok {
		return fmt.Errorf("user %s: %w", id, models.ErrNotFound)
	}
	for _, sale := range u.s.sales {
		if sale.BuyerID == id {
			return fmt.Errorf("user %s: %w: record is still referenced", id, models.ErrConflict)
		}
	}
	delete(u.s.users, id)
	return nil
}

func (u *UserStore) Count(ctx context.Context) (int64, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	return int64(len(u.s.users)), nil
}

// SaleStore implementa store.SaleStore. WithinTx retiene el mutex durante
// toda la transacción, así que las ventas quedan serializadas.
type SaleStore struct{ s *Store }

var _ store.SaleStore = (*SaleStore)(nil)

type saleTx struct {
	s          *Store
	decrements map[int64]int
	sale       *models.Sale
}

func (ss *SaleStore) WithinTx(ctx context.Context, fn func(tx store.SaleTx) error) error {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("error beginning transaction: %w: %w", models.ErrDependency, err)
	}

	tx := &saleTx{s: ss.s, decrements: map[int64]int{}}
	if err := fn(tx); err != nil {
		return err
	}

	// commit
	for id, qty := range tx.decrements {
		product := ss.s.products[id]
		product.Quantity -= qty
		ss.s.products[id] = product
	}
	if tx.sale != nil {
		ss.s.sales[tx.sale.ID] = cloneSale(*tx.sale)
	}
	return nil
}

func (t *saleTx) LockProduct(ctx context.Context, id int64) (*models.Product, error) {
	product, ok := t.s.products[id]
	if !ok {
		return nil, fmt.Errorf("product %d: %w", id, models.ErrNotFound)
	}
	product.Quantity -= t.decrements[id]
	return &product, nil
}

func (t *saleTx) DecrementStock(ctx context.Context, id int64, qty int) (bool, error) {
	product, ok := t.s.products[id]
	if !ok {
		return false, nil
	}
	if product.Quantity-t.decrements[id] < qty {
		return false, nil
	}
	t.decrements[id] += qty
	return true, nil
}

func (t *saleTx) InsertSale(ctx context.Context, sale *models.Sale) error {
	if _, ok := t.s.users[sale.BuyerID]; !ok {
		return fmt.Errorf("error inserting sale: %w: unknown buyer %s", models.ErrConflict, sale.BuyerID)
	}

	t.s.nextSaleID++
	sale.ID = t.s.nextSaleID
	for i := range sale.Lines {
		t.s.nextLineID++
		sale.Lines[i].ID = t.s.nextLineID
		sale.Lines[i].SaleID = sale.ID
	}
	t.sale = sale
	return nil
}

func cloneSale(sale models.Sale) models.Sale {
	sale.Lines = append([]models.SaleLine(nil), sale.Lines...)
	sale.NotificationStatus = ""
	return sale
}

// withReadSide completa los campos derivados de otras tablas
func (s *Store) withReadSide(sale models.Sale) models.Sale {
	if buyer, ok := s.users[sale.BuyerID]; ok {
		sale.BuyerUsername = buyer.Username
	}
	sale.Lines = append([]models.SaleLine(nil), sale.Lines...)
	for i := range sale.Lines {
		if product, ok := s.products[sale.Lines[i].ProductID]; ok {
			sale.Lines[i].ProductName = product.Name
		}
	}
	return sale
}

func (ss *SaleStore) GetByID(ctx context.Context, id int64) (*models.Sale, error) {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()

	sale, ok := ss.s.sales[id]
	if !ok {
		return nil, fmt.Errorf("sale %d: %w", id, models.ErrNotFound)
	}
	sale = ss.s.withReadSide(sale)
	return &sale, nil
}

func (ss *SaleStore) List(ctx context.Context, page, pageSize int) ([]models.Sale, int, error) {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()

	all := make([]models.Sale, 0, len(ss.s.sales))
	for _, sale := range ss.s.sales {
		sale = ss.s.withReadSide(sale)
		sale.Lines = nil
		all = append(all, sale)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].Date.Equal(all[j].Date) {
			return all[i].Date.After(all[j].Date)
		}
		return all[i].ID > all[j].ID
	})

	from, to := pageBounds(len(all), page, pageSize)
	return all[from:to], len(all), nil
}

func (ss *SaleStore) MonthSummary(ctx context.Context, now time.Time) (int64, decimal.Decimal, error) {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()

	now = now.UTC()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	var count int64
	revenue := decimal.Zero
	for _, sale := range ss.s.sales {
		if sale.Date.Before(from) || !sale.Date.Before(to) {
			continue
		}
		count++
		revenue = revenue.Add(sale.Total)
	}
	return count, revenue, nil
}
