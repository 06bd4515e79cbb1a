package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hypernova-labs/retail-backoffice/internal/api"
	"github.com/hypernova-labs/retail-backoffice/internal/auth"
	"github.com/hypernova-labs/retail-backoffice/internal/config"
	"github.com/hypernova-labs/retail-backoffice/internal/database"
	"github.com/hypernova-labs/retail-backoffice/internal/email"
	"github.com/hypernova-labs/retail-backoffice/internal/memstore"
	"github.com/hypernova-labs/retail-backoffice/internal/middleware"
	"github.com/hypernova-labs/retail-backoffice/internal/services"
	"github.com/hypernova-labs/retail-backoffice/internal/store"
	"github.com/hypernova-labs/retail-backoffice/internal/web"
	"github.com/hypernova-labs/retail-backoffice/internal/workflows"
	"github.com/sirupsen/logrus"
)

const (
	serviceName    = "retail-backoffice"
	serviceVersion = "1.0.0"
	statsInterval  = 5 * time.Minute
)

// stores agrupa los almacenes según el driver configurado
type stores struct {
	products store.ProductStore
	users    store.UserStore
	sales    store.SaleStore
}

func main() {
	// Cargar configuración
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	// Configurar logging
	logger := setupLogger(cfg)
	logger.Info("Starting retail backoffice...")

	// Configurar modo de Gin
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	checks := map[string]api.HealthChecker{}

	// Almacenamiento
	var st stores
	switch cfg.Database.Driver {
	case "memory":
		logger.Warn("Using in-memory storage, data is lost on restart")
		mem := memstore.New()
		st = stores{products: mem.Products(), users: mem.Users(), sales: mem.Sales()}
	default:
		db, err := database.Connect(cfg)
		if err != nil {
			logger.Fatalf("Error connecting to database: %v", err)
		}
		defer db.Close()

		if cfg.Database.AutoMigrate {
			if err := database.Migrate(db, logger); err != nil {
				logger.Fatalf("Error migrating database: %v", err)
			}
		}

		checks["database"] = db
		go logStats(ctx, func() { db.LogStats(logger) })

		st = stores{
			products: database.NewProductRepository(db, logger),
			users:    database.NewUserRepository(db, logger),
			sales:    database.NewSaleRepository(db, logger),
		}
	}

	// Conectar a Redis (rate limiting)
	var counter middleware.HitCounter
	if cfg.Redis.Enabled {
		redis, err := database.ConnectRedis(cfg)
		if err != nil {
			logger.Warnf("Error connecting to Redis: %v", err)
		} else {
			defer redis.Close()
			counter = redis
			checks["redis"] = redis
			go logStats(ctx, func() { redis.LogStats(logger) })
		}
	}
	if counter == nil {
		logger.Warn("Redis not available, rate limiting disabled")
	}

	// Inicializar servicio de email
	var sender email.Sender
	if cfg.Email.ResendAPIKey != "" {
		sender = email.NewResendSender(cfg.Email.ResendAPIKey, cfg.Email.From, logger)
		logger.Info("Resend service initialized successfully")
	} else {
		logger.Warn("Resend API key not provided, receipts will only be logged")
		sender = email.NewLogSender(logger)
	}
	notifier := email.NewNotifier(sender, logger)

	// Inicializar cliente de Inngest
	var events services.SaleEventPublisher
	inngestClient, err := workflows.NewInngestClient(cfg, logger)
	if err != nil {
		logger.Warnf("Inngest not available, sale events will not be published: %v", err)
	} else {
		events = inngestClient
	}

	// Inicializar servicios
	productService := services.NewProductService(st.products, cfg.Pagination.PageSize, logger)
	userService := services.NewUserService(st.users, cfg.Pagination.PageSize, logger)
	saleService := services.NewSaleService(st.users, st.sales, notifier, events, cfg.Sales.VATRate, cfg.Pagination.PageSize, logger)
	importService := services.NewImportService(st.products, logger)
	dashboardService := services.NewDashboardService(st.products, st.users, st.sales, logger)

	if err := userService.EnsureAdmin(ctx, cfg.Admin); err != nil {
		logger.Fatalf("Error bootstrapping admin user: %v", err)
	}

	// Inicializar API y web
	apiHandler := api.NewAPI(
		productService,
		userService,
		saleService,
		importService,
		dashboardService,
		auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Expiry),
		logger,
	)
	webHandler := web.NewHandler(
		productService,
		userService,
		saleService,
		importService,
		dashboardService,
		web.NewSessionStore(cfg.Session.Secret, cfg.Session.MaxAge, cfg.IsProduction()),
		logger,
	)

	// Configurar router
	router, err := setupRouter(cfg, apiHandler, webHandler, counter, checks, logger)
	if err != nil {
		logger.Fatalf("Error setting up router: %v", err)
	}

	// Crear servidor HTTP
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Iniciar servidor en goroutine
	go func() {
		logger.Infof("Server starting on %s:%s", cfg.Server.Host, cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Error starting server: %v", err)
		}
	}()

	// Esperar señal de terminación
	<-ctx.Done()
	logger.Info("Shutting down server...")

	// Contexto con timeout para shutdown graceful
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}

// setupLogger configura el logger según la configuración
func setupLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	// Configurar nivel de log
	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	// Configurar formato
	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}

// setupRouter configura el router principal
func setupRouter(
	cfg *config.Config,
	apiHandler *api.API,
	webHandler *web.Handler,
	counter middleware.HitCounter,
	checks map[string]api.HealthChecker,
	logger *logrus.Logger,
) (*gin.Engine, error) {
	router := gin.New()

	// Middleware global
	router.Use(middleware.RequestLogger(logger))
	router.Use(gin.Recovery())

	// Middleware de CORS para desarrollo
	if cfg.IsDevelopment() {
		router.Use(middleware.CORS())
	}

	templates, err := web.LoadTemplates()
	if err != nil {
		return nil, fmt.Errorf("error loading templates: %w", err)
	}
	router.SetHTMLTemplate(templates)

	// Health check
	router.GET("/health", api.Health(serviceName, serviceVersion, checks))

	// API v1
	limiter := middleware.RateLimiter(counter, "api", cfg.RateLimit.Requests, cfg.RateLimit.Window, logger)
	apiHandler.RegisterRoutes(router.Group("/api/v1"), limiter)

	// Interfaz web
	webHandler.RegisterRoutes(router)

	return router, nil
}

// logStats ejecuta fn periódicamente hasta que ctx termina
func logStats(ctx context.Context, fn func()) {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}
