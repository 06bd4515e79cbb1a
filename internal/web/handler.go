package web

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/hypernova-labs/retail-backoffice/internal/models"
	"github.com/hypernova-labs/retail-backoffice/internal/services"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	sessionName = "backoffice-session"
	userKey     = "user"
)

//go:embed templates/*.html
var templateFS embed.FS

// Handler sirve la interfaz web de administración
type Handler struct {
	products  *services.ProductService
	users     *services.UserService
	sales     *services.SaleService
	imports   *services.ImportService
	dashboard *services.DashboardService
	store     sessions.Store
	logger    *logrus.Logger
}

// NewHandler crea el handler de la interfaz web
func NewHandler(
	products *services.ProductService,
	users *services.UserService,
	sales *services.SaleService,
	imports *services.ImportService,
	dashboard *services.DashboardService,
	store sessions.Store,
	logger *logrus.Logger,
) *Handler {
	return &Handler{
		products:  products,
		users:     users,
		sales:     sales,
		imports:   imports,
		dashboard: dashboard,
		store:     store,
		logger:    logger,
	}
}

// NewSessionStore crea el almacén de sesiones firmado en cookie
func NewSessionStore(secret string, maxAge int, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// LoadTemplates parsea las plantillas embebidas
func LoadTemplates() (*template.Template, error) {
	funcs := template.FuncMap{
		"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
		"date":  func(t time.Time) string { return t.UTC().Format("2006-01-02 15:04") },
		"add":   func(a, b int) int { return a + b },
	}
	return template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
}

// RegisterRoutes registra las rutas de la interfaz web
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/login", h.ShowLogin)
	r.POST("/login", h.ProcessLogin)
	r.POST("/logout", h.Logout)

	admin := r.Group("")
	admin.Use(h.AuthRequired())
	{
		admin.GET("/", h.ShowDashboard)

		admin.GET("/products", h.ListProducts)
		admin.GET("/products/new", h.NewProduct)
		admin.POST("/products", h.CreateProduct)
		admin.GET("/products/import", h.ShowImport)
		admin.POST("/products/import", h.ProcessImport)
		admin.GET("/products/:id/edit", h.EditProduct)
		admin.POST("/products/:id", h.UpdateProduct)
		admin.POST("/products/:id/delete", h.DeleteProduct)

		admin.GET("/users", h.ListUsers)
		admin.GET("/users/new", h.NewUser)
		admin.POST("/users", h.CreateUser)
		admin.GET("/users/:id/edit", h.EditUser)
		admin.POST("/users/:id", h.UpdateUser)
		admin.POST("/users/:id/delete", h.DeleteUser)

		admin.GET("/sales", h.ListSales)
		admin.GET("/sales/new", h.NewSale)
		admin.POST("/sales", h.CreateSale)
		admin.GET("/sales/:id", h.ShowSale)
	}
}

// ShowLogin renderiza el formulario de acceso
func (h *Handler) ShowLogin(c *gin.Context) {
	h.render(c, http.StatusOK, "login.html", gin.H{})
}

// ProcessLogin valida las credenciales y abre la sesión
func (h *Handler) ProcessLogin(c *gin.Context) {
	session, _ := h.store.Get(c.Request, sessionName)

	user, err := h.users.Authenticate(c.Request.Context(), c.PostForm("username"), c.PostForm("password"))
	if err != nil {
		if !errors.Is(err, models.ErrUnauthorized) {
			h.logger.WithError(err).Error("Error authenticating web user")
		}
		h.redirectWithFlash(c, "/login", "error", "Usuario o contraseña inválidos.")
		return
	}

	if !user.IsAdmin() {
		h.logger.WithField("username", user.Username).Warn("Non-admin web login rejected")
		h.redirectWithFlash(c, "/login", "error", "Acceso solo para administradores.")
		return
	}

	session.Values["user_id"] = user.ID
	if err := session.Save(c.Request, c.Writer); err != nil {
		h.logger.WithError(err).Error("Error saving login session")
		h.redirectWithFlash(c, "/login", "error", "No se pudo iniciar la sesión. Intente de nuevo.")
		return
	}

	h.logger.WithField("username", user.Username).Info("Web login")
	c.Redirect(http.StatusFound, "/")
}

// Logout cierra la sesión
func (h *Handler) Logout(c *gin.Context) {
	session, _ := h.store.Get(c.Request, sessionName)
	delete(session.Values, "user_id")
	session.Options.MaxAge = -1
	if err := session.Save(c.Request, c.Writer); err != nil {
		h.logger.WithError(err).Warn("Error clearing session")
	}
	c.Redirect(http.StatusFound, "/login")
}

// AuthRequired exige una sesión de administrador válida
func (h *Handler) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, _ := h.store.Get(c.Request, sessionName)
		userID, ok := session.Values["user_id"].(string)
		if !ok || userID == "" {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		user, err := h.users.GetByID(c.Request.Context(), userID)
		if err != nil || !user.IsAdmin() {
			if err != nil && !errors.Is(err, models.ErrNotFound) {
				h.logger.WithError(err).Error("Error loading session user")
			}
			delete(session.Values, "user_id")
			session.Options.MaxAge = -1
			_ = session.Save(c.Request, c.Writer)
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

// ShowDashboard renderiza el panel principal
func (h *Handler) ShowDashboard(c *gin.Context) {
	dashboard, err := h.dashboard.Get(c.Request.Context())
	if err != nil {
		h.renderError(c, err)
		return
	}

	h.render(c, http.StatusOK, "dashboard.html", gin.H{"Dashboard": dashboard})
}

// render agrega los flashes y el usuario actual a los datos de la plantilla
func (h *Handler) render(c *gin.Context, status int, name string, data gin.H) {
	session, _ := h.store.Get(c.Request, sessionName)
	data["FlashesSuccess"] = session.Flashes("success")
	data["FlashesError"] = session.Flashes("error")
	if err := session.Save(c.Request, c.Writer); err != nil {
		h.logger.WithError(err).Warn("Error saving session")
	}

	if user, ok := c.Get(userKey); ok {
		data["CurrentUser"] = user
	}

	c.HTML(status, name, data)
}

func (h *Handler) redirectWithFlash(c *gin.Context, path, kind, message string) {
	session, _ := h.store.Get(c.Request, sessionName)
	session.AddFlash(message, kind)
	if err := session.Save(c.Request, c.Writer); err != nil {
		h.logger.WithError(err).Warn("Error saving flash message")
	}
	c.Redirect(http.StatusFound, path)
}

// renderError muestra la página de error según el tipo de falla
func (h *Handler) renderError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "Ocurrió un error interno. Intente de nuevo."

	switch {
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
		message = "El registro solicitado no existe."
	case errors.Is(err, models.ErrValidation):
		status = http.StatusBadRequest
		message = "Solicitud inválida."
	default:
		h.logger.WithError(err).WithField("path", c.Request.URL.Path).Error("Web request failed")
	}

	h.render(c, status, "error.html", gin.H{"Message": message})
}

// failureMessage traduce un error de escritura a un mensaje para el usuario
func (h *Handler) failureMessage(err error, conflict string) string {
	var (
		verr  *models.ValidationError
		stock *models.InsufficientStockError
		pnf   *models.ProductNotFoundError
		buyer *models.InvalidBuyerError
	)

	switch {
	case errors.As(err, &verr):
		parts := make([]string, 0, len(verr.Fields))
		for _, f := range verr.Fields {
			parts = append(parts, f.Field+": "+f.Issue)
		}
		return strings.Join(parts, "; ")
	case errors.As(err, &stock):
		return "Stock insuficiente para " + stock.ProductName + " (disponible " + strconv.Itoa(stock.Available) + ")."
	case errors.As(err, &pnf):
		return "El producto " + strconv.FormatInt(pnf.ProductID, 10) + " no existe."
	case errors.As(err, &buyer):
		return "Comprador inválido."
	case errors.Is(err, models.ErrNotFound):
		return "El registro solicitado no existe."
	case errors.Is(err, models.ErrConflict):
		return conflict
	default:
		h.logger.WithError(err).Error("Web operation failed")
		return "Ocurrió un error interno. Intente de nuevo."
	}
}

func pageQuery(c *gin.Context) int {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}
