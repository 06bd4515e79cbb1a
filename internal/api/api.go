package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hypernova-labs/retail-backoffice/internal/auth"
	"github.com/hypernova-labs/retail-backoffice/internal/models"
	"github.com/hypernova-labs/retail-backoffice/internal/services"
	"github.com/sirupsen/logrus"
)

const claimsKey = "claims"

// API maneja todos los endpoints JSON
type API struct {
	productService   *services.ProductService
	userService      *services.UserService
	saleService      *services.SaleService
	importService    *services.ImportService
	dashboardService *services.DashboardService
	tokens           *auth.TokenManager
	logger           *logrus.Logger
}

// NewAPI crea una nueva instancia de la API
func NewAPI(
	productService *services.ProductService,
	userService *services.UserService,
	saleService *services.SaleService,
	importService *services.ImportService,
	dashboardService *services.DashboardService,
	tokens *auth.TokenManager,
	logger *logrus.Logger,
) *API {
	return &API{
		productService:   productService,
		userService:      userService,
		saleService:      saleService,
		importService:    importService,
		dashboardService: dashboardService,
		tokens:           tokens,
		logger:           logger,
	}
}

// RegisterRoutes registra los endpoints bajo el grupo dado. limiter se aplica
// a login y a la creación de ventas; puede ser nil.
func (api *API) RegisterRoutes(v1 *gin.RouterGroup, limiter gin.HandlerFunc) {
	if limiter == nil {
		limiter = func(c *gin.Context) { c.Next() }
	}

	v1.POST("/auth/login", limiter, api.Login)

	authed := v1.Group("")
	authed.Use(api.RequireAuth())
	{
		authed.GET("/products", api.ListProducts)
		authed.GET("/products/:id", api.GetProduct)

		authed.GET("/sales/:id", api.GetSale)
		authed.POST("/sales", limiter, api.CreateSale)
	}

	admin := v1.Group("")
	admin.Use(api.RequireAuth(), api.RequireAdmin())
	{
		admin.POST("/products", api.CreateProduct)
		admin.POST("/products/import", api.ImportProducts)
		admin.PUT("/products/:id", api.UpdateProduct)
		admin.DELETE("/products/:id", api.DeleteProduct)

		admin.GET("/users", api.ListUsers)
		admin.GET("/users/:id", api.GetUser)
		admin.POST("/users", api.CreateUser)
		admin.PUT("/users/:id", api.UpdateUser)
		admin.DELETE("/users/:id", api.DeleteUser)

		admin.GET("/sales", api.ListSales)
		admin.GET("/dashboard", api.GetDashboard)
	}
}

// RequireAuth valida el token Bearer y guarda los claims en el contexto
func (api *API) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString := strings.TrimPrefix(header, "Bearer ")
		if header == "" || tokenString == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.NewUnauthorizedError("Authorization header must be 'Bearer <token>'"))
			return
		}

		claims, err := api.tokens.Parse(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.NewUnauthorizedError("Invalid or expired token"))
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireAdmin exige rol de administrador. Debe ir después de RequireAuth.
func (api *API) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := currentClaims(c)
		if claims == nil || claims.Role != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, models.NewForbiddenError("Administrator role required"))
			return
		}
		c.Next()
	}
}

func currentClaims(c *gin.Context) *auth.Claims {
	value, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := value.(*auth.Claims)
	return claims
}

// Login emite un token de acceso
func (api *API) Login(c *gin.Context) {
	var req models.LoginRequest
	if !api.bindJSON(c, &req) {
		return
	}

	user, err := api.userService.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		api.handleError(c, err, "user", "Error authenticating user")
		return
	}

	token, expiresAt, err := api.tokens.Issue(user)
	if err != nil {
		api.handleError(c, err, "user", "Error issuing token")
		return
	}

	c.JSON(http.StatusOK, models.TokenResponse{Token: token, ExpiresAt: expiresAt})
}

// GetDashboard obtiene los indicadores del panel
func (api *API) GetDashboard(c *gin.Context) {
	dashboard, err := api.dashboardService.Get(c.Request.Context())
	if err != nil {
		api.handleError(c, err, "dashboard", "Error retrieving dashboard")
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

// bindJSON parsea el body; en caso de error responde 400
func (api *API) bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		api.logger.WithError(err).Debug("Error binding request")
		c.JSON(http.StatusBadRequest, models.NewValidationError("Invalid request format", []models.ErrorDetail{
			{Field: "body", Issue: err.Error()},
		}))
		return false
	}
	return true
}

// parsePage lee ?page=N (por defecto 1)
func (api *API) parsePage(c *gin.Context) (int, bool) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		c.JSON(http.StatusBadRequest, models.NewValidationError("Invalid page", []models.ErrorDetail{
			{Field: "page", Issue: "Must be a positive integer"},
		}))
		return 0, false
	}
	return page, true
}

// parseInt64Param lee un ID numérico de la ruta
func (api *API) parseInt64Param(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, models.NewValidationError("Invalid "+name, []models.ErrorDetail{
			{Field: name, Issue: "Must be a positive integer"},
		}))
		return 0, false
	}
	return id, true
}

// handleError traduce los errores de servicio a la respuesta HTTP
func (api *API) handleError(c *gin.Context, err error, resource, fallback string) {
	var (
		verr  *models.ValidationError
		stock *models.InsufficientStockError
		pnf   *models.ProductNotFoundError
		buyer *models.InvalidBuyerError
	)

	switch {
	case errors.As(err, &verr):
		details := make([]models.ErrorDetail, 0, len(verr.Fields))
		for _, f := range verr.Fields {
			details = append(details, models.ErrorDetail{Field: f.Field, Issue: f.Issue})
		}
		c.JSON(http.StatusBadRequest, models.NewValidationError("Invalid "+resource, details))
	case errors.As(err, &buyer) && errors.Is(err, models.ErrValidation):
		c.JSON(http.StatusBadRequest, models.NewValidationError(buyer.Error(), []models.ErrorDetail{
			{Field: "user_id", Issue: "user_id or username is required"},
		}))
	case errors.Is(err, models.ErrValidation):
		c.JSON(http.StatusBadRequest, models.NewValidationError("Invalid "+resource, nil))
	case errors.Is(err, models.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, models.NewUnauthorizedError("Invalid username or password"))
	case errors.As(err, &buyer):
		c.JSON(http.StatusNotFound, models.NewNotFoundError(buyer.Error()))
	case errors.As(err, &pnf):
		c.JSON(http.StatusNotFound, models.NewNotFoundError(pnf.Error()))
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, models.NewNotFoundError(capitalize(resource)+" not found"))
	case errors.As(err, &stock):
		c.JSON(http.StatusConflict, models.NewConflictError(stock.Error()))
	case errors.Is(err, models.ErrConflict):
		c.JSON(http.StatusConflict, models.NewConflictError(capitalize(resource)+" conflicts with existing records"))
	default:
		api.logger.WithError(err).WithField("request_id", c.GetString("request_id")).Error(fallback)
		c.JSON(http.StatusInternalServerError, models.NewInternalError(fallback))
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
