package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/hypernova-labs/retail-backoffice/internal/memstore"
	"github.com/hypernova-labs/retail-backoffice/internal/models"
	"github.com/hypernova-labs/retail-backoffice/internal/services"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "Secreto123"

type silentNotifier struct{}

func (silentNotifier) Deliver(ctx context.Context, to, subject, htmlBody string) models.NotificationStatus {
	return models.NotificationDelivered
}

// browser conserva las cookies entre peticiones
type browser struct {
	router  *gin.Engine
	cookies map[string]*http.Cookie
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	for _, cookie := range b.cookies {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	b.router.ServeHTTP(w, req)
	for _, cookie := range w.Result().Cookies() {
		if cookie.MaxAge < 0 {
			delete(b.cookies, cookie.Name)
			continue
		}
		b.cookies[cookie.Name] = cookie
	}
	return w
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (b *browser) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

type webFixture struct {
	mem     *memstore.Store
	browser *browser
}

func newWebFixture(t *testing.T) *webFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger, _ := test.NewNullLogger()
	mem := memstore.New()

	users := services.NewUserServiceWithCost(mem.Users(), 10, bcrypt.MinCost, logger)
	products := services.NewProductService(mem.Products(), 10, logger)
	sales := services.NewSaleService(mem.Users(), mem.Sales(), silentNotifier{}, nil, decimal.RequireFromString("0.19"), 10, logger)

	handler := NewHandler(
		products,
		users,
		sales,
		services.NewImportService(mem.Products(), logger),
		services.NewDashboardService(mem.Products(), mem.Users(), mem.Sales(), logger),
		NewSessionStore("test-session-secret", 3600, false),
		logger,
	)

	templates, err := LoadTemplates()
	require.NoError(t, err)

	router := gin.New()
	router.SetHTMLTemplate(templates)
	handler.RegisterRoutes(router)

	ctx := context.Background()
	_, err = users.Create(ctx, &models.CreateUserRequest{
		Username: "admin", Email: "admin@example.com", FullName: "Admin",
		DocumentNumber: "1", Password: testPassword, Role: models.RoleAdmin,
	})
	require.NoError(t, err)
	_, err = users.Create(ctx, &models.CreateUserRequest{
		Username: "ana", Email: "ana@example.com", FullName: "Ana Pérez",
		DocumentNumber: "2", Password: testPassword,
	})
	require.NoError(t, err)

	return &webFixture{
		mem:     mem,
		browser: &browser{router: router, cookies: map[string]*http.Cookie{}},
	}
}

func (f *webFixture) login(t *testing.T, username string) *httptest.ResponseRecorder {
	t.Helper()
	return f.browser.post("/login", url.Values{"username": {username}, "password": {testPassword}})
}

func TestLoginPageRenders(t *testing.T) {
	f := newWebFixture(t)

	w := f.browser.get("/login")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Iniciar sesión")
	assert.NotContains(t, w.Body.String(), "<nav>")
}

func TestProtectedPagesRedirectToLogin(t *testing.T) {
	f := newWebFixture(t)

	for _, path := range []string{"/", "/products", "/users", "/sales", "/sales/new"} {
		w := f.browser.get(path)
		assert.Equal(t, http.StatusFound, w.Code, path)
		assert.Equal(t, "/login", w.Header().Get("Location"), path)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	f := newWebFixture(t)

	w := f.browser.post("/login", url.Values{"username": {"admin"}, "password": {"incorrecta"}})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	w = f.browser.get("/login")
	assert.Contains(t, w.Body.String(), "Usuario o contraseña inválidos.")

	w = f.browser.get("/")
	assert.Equal(t, http.StatusFound, w.Code)
}

func TestLoginRejectsClients(t *testing.T) {
	f := newWebFixture(t)

	w := f.login(t, "ana")
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	w = f.browser.get("/")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestAdminSessionFlow(t *testing.T) {
	f := newWebFixture(t)

	w := f.login(t, "admin")
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	w = f.browser.get("/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<h1>Panel</h1>")
	assert.Contains(t, w.Body.String(), "Salir (admin)")

	w = f.browser.post("/products", url.Values{
		"name": {"Cuaderno"}, "price": {"10.00"}, "quantity": {"5"}, "category": {"Papelería"},
	})
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	assert.Equal(t, "/products", w.Header().Get("Location"))

	w = f.browser.get("/products")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Cuaderno")

	products, _, err := f.mem.Products().List(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, products, 1)

	w = f.browser.post("/sales", url.Values{
		"username":   {"ana"},
		"product_id": {strconv.FormatInt(products[0].ID, 10), ""},
		"quantity":   {"3", ""},
	})
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "/sales/"))

	w = f.browser.get(w.Header().Get("Location"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "30.00")
	assert.Contains(t, w.Body.String(), "5.70")

	w = f.browser.post("/logout", nil)
	assert.Equal(t, http.StatusFound, w.Code)

	w = f.browser.get("/")
	assert.Equal(t, http.StatusFound, w.Code)
}

func TestCreateProductShowsValidationErrors(t *testing.T) {
	f := newWebFixture(t)
	require.Equal(t, http.StatusFound, f.login(t, "admin").Code)

	w := f.browser.post("/products", url.Values{"name": {"Cuaderno"}, "price": {"abc"}, "quantity": {"5"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "flash-error")
}

func TestCreateSaleShowsStockError(t *testing.T) {
	f := newWebFixture(t)
	require.Equal(t, http.StatusFound, f.login(t, "admin").Code)

	product := &models.Product{Name: "Agotado", Price: decimal.RequireFromString("10"), Quantity: 0}
	require.NoError(t, f.mem.Products().Create(context.Background(), product))

	w := f.browser.post("/sales", url.Values{
		"username":   {"ana"},
		"product_id": {strconv.FormatInt(product.ID, 10)},
		"quantity":   {"1"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Stock insuficiente para Agotado")
}
