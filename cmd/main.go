package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tesseract-hub/storefront-service/docs"
	"github.com/tesseract-hub/storefront-service/internal/cache"
	"github.com/tesseract-hub/storefront-service/internal/clients/gateway"
	"github.com/tesseract-hub/storefront-service/internal/config"
	"github.com/tesseract-hub/storefront-service/internal/events"
	"github.com/tesseract-hub/storefront-service/internal/handlers"
	"github.com/tesseract-hub/storefront-service/internal/health"
	"github.com/tesseract-hub/storefront-service/internal/middleware"
	"github.com/tesseract-hub/storefront-service/internal/models"
	"github.com/tesseract-hub/storefront-service/internal/notifications"
	"github.com/tesseract-hub/storefront-service/internal/repository"
	"github.com/tesseract-hub/storefront-service/internal/scheduler"
	"github.com/tesseract-hub/storefront-service/internal/services"
	"github.com/tesseract-hub/storefront-service/internal/storage"
	ws "github.com/tesseract-hub/storefront-service/internal/websocket"
)

// Per-IP limits on the credential endpoints
const (
	loginRatePerMinute    = 10
	loginBurst            = 5
	recoveryRatePerMinute = 5
	recoveryBurst         = 3
)

// @title Storefront API
// @version 1.0
// @description Jewelry storefront backend: catalog, cart, custom designs, orders, payments and loyalty points
// @contact.name Tesseract Hub Team
// @contact.email dev@tesseract-hub.com
// @host localhost:8080
// @BasePath /
// @schemes http https
func main() {
	if len(os.Args) > 1 && os.Args[1] == "health" {
		port := os.Getenv("STOREFRONT_SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		resp, err := http.Get("http://localhost:" + port + "/livez")
		if err != nil || resp.StatusCode != http.StatusOK {
			os.Exit(1)
		}
		os.Exit(0)
	}

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := config.NewLogger(cfg.Logging)
	gin.SetMode(cfg.Server.Mode)

	db, err := initializeDatabase(cfg.Database, cfg.App.IsProduction())
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	if err := runMigrations(db); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	// Redis is optional; without it sessions and the catalog read straight from the database
	var appCache cache.Cache = cache.NewNoOpCache()
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisCache(cfg.Redis.URL(), logger)
		if err != nil {
			log.Printf("⚠️  Redis unavailable: %v (caching disabled)", err)
		} else {
			appCache = redisCache
			log.Println("✓ Redis connection established")
		}
	}

	hub := ws.NewHub(logger)
	go hub.Run()

	var natsClient *events.Client
	if cfg.NATS.Enabled {
		natsClient, err = events.NewClient(events.Config{
			URL:           cfg.NATS.URL,
			ReconnectWait: cfg.NATS.ReconnectWait,
		}, logger)
		if err != nil {
			log.Printf("⚠️  NATS unavailable: %v (events won't be published)", err)
			natsClient = nil
		} else {
			log.Println("✓ NATS events publisher initialized")
		}
	}
	publisher := events.NewPublisher(natsClient, hub, logger)

	provider, err := storage.NewProvider(cfg.Storage, logger)
	if err != nil {
		log.Fatal("Failed to initialize storage provider:", err)
	}
	images := storage.NewImageStore(provider, cfg.Storage.MaxUploadBytes, logger)
	log.Printf("✓ Storage provider initialized (%s)", provider.Name())

	var checkoutGateway services.CheckoutGateway
	if cfg.Gateway.Enabled {
		checkoutGateway = gateway.NewClient(gateway.Config{
			BaseURL:     cfg.Gateway.BaseURL,
			PrivateKey:  cfg.Gateway.PrivateKey,
			Currency:    cfg.Gateway.Currency,
			RedirectURL: cfg.Gateway.RedirectURL,
			Timeout:     cfg.Gateway.Timeout,
		}, logger)
		log.Println("✓ Payment gateway client initialized")
	} else {
		log.Println("⚠️  Payment gateway disabled, online payments wait for manual confirmation")
	}

	emailSender := notifications.NewEmailSender(cfg.Email, logger)
	notifier := notifications.NewNotifier(emailSender, logger)
	log.Printf("✓ Email sender initialized (%s)", emailSender.Name())

	// Repositories and services
	store := repository.NewStore(db)
	txManager := repository.NewTxManager(db)
	passwords := services.NewPasswordService()

	sessionService := services.NewSessionService(store.Sessions, appCache, cfg.Session.TTL, cfg.Cache.SessionTTL, logger)
	authService := services.NewAuthService(store, sessionService, passwords, logger)
	customerService := services.NewCustomerService(store, txManager, sessionService, passwords, publisher, logger)
	addressService := services.NewAddressService(store, txManager)
	catalogService := services.NewCatalogService(store, appCache, images, cfg.Cache.CatalogTTL, logger)
	cartService := services.NewCartService(store)
	wishlistService := services.NewWishlistService(store, txManager, cartService)
	designService := services.NewDesignService(store, images, publisher, logger)
	pointsService := services.NewPointsService(store, txManager, publisher, logger)
	orderService := services.NewOrderService(store, txManager, publisher, cfg.Scheduler.UnpaidOrderTTL, logger)
	paymentService := services.NewPaymentService(store, txManager, checkoutGateway, notifier, publisher, services.PaymentOptions{
		EarnRate:     cfg.Loyalty.EarnRate,
		EventsSecret: cfg.Gateway.EventsSecret,
	}, logger)
	recoveryService := services.NewRecoveryService(store, txManager, sessionService, passwords, notifier, cfg.Scheduler.RecoveryTokenTTL, logger)
	dashboardService := services.NewDashboardService(store.Reports)
	reportService := services.NewReportService(store.Reports)

	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 10*time.Second)
	if err := authService.SeedAdmin(seedCtx, cfg.Admin); err != nil {
		log.Printf("⚠️  Failed to seed default admin: %v", err)
	}
	cancelSeed()

	jobs := scheduler.New(cfg.Scheduler.Enabled, logger)
	jobs.Register(scheduler.JobPurgeRecoveryTokens, cfg.Scheduler.RecoveryPurge, recoveryService.PurgeExpired)
	jobs.Register(scheduler.JobPurgeSessions, cfg.Scheduler.SessionPurge, sessionService.PurgeExpired)
	jobs.Register(scheduler.JobExpireUnpaidOrders, cfg.Scheduler.UnpaidOrderExpiry, orderService.ExpireUnpaid)
	if err := jobs.Start(); err != nil {
		log.Fatal("Failed to start scheduler:", err)
	}

	healthChecker := health.NewHealthChecker(db, appCache, cfg.App.Version)
	cookies := middleware.NewSessionCookies(cfg.Session)

	h := &routeHandlers{
		auth:      handlers.NewAuthHandler(authService, sessionService, cookies, logger),
		customers: handlers.NewCustomerHandler(customerService, sessionService, cookies, logger),
		addresses: handlers.NewAddressHandler(addressService, logger),
		catalog:   handlers.NewCatalogHandler(catalogService, logger),
		cart:      handlers.NewCartHandler(cartService, wishlistService, logger),
		designs:   handlers.NewDesignHandler(designService, logger),
		orders:    handlers.NewOrderHandler(orderService, logger),
		payments:  handlers.NewPaymentHandler(paymentService, logger),
		points:    handlers.NewPointsHandler(pointsService, logger),
		recovery:  handlers.NewRecoveryHandler(recoveryService, logger),
		dashboard: handlers.NewDashboardHandler(dashboardService, reportService, jobs, logger),
		websocket: handlers.NewWebSocketHandler(hub, cfg.Server.AllowedOrigins, logger),
	}

	router := setupRouter(cfg, h, healthChecker, cookies, sessionService, customerService, logger)
	healthChecker.SetReady(true)

	serverAddr := cfg.Server.Host + ":" + cfg.Server.Port
	docs.SwaggerInfo.Host = serverAddr
	srv := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("🚀 Storefront Service starting on %s", serverAddr)
		log.Printf("📚 API Documentation available at http://%s/swagger/index.html", serverAddr)
		log.Printf("🏥 Health endpoints: /health, /livez, /readyz")
		log.Printf("📊 Metrics available at http://%s/metrics", serverAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	healthChecker.SetReady(false)
	jobs.Stop()
	hub.Shutdown()
	if natsClient != nil {
		natsClient.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	if err := appCache.Close(); err != nil {
		logger.WithError(err).Warn("Failed to close cache")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Println("Server exited")
}

// initializeDatabase establishes the database connection and configures the pool
func initializeDatabase(dbConfig config.DatabaseConfig, production bool) (*gorm.DB, error) {
	logLevel := gormlogger.Info
	if production {
		logLevel = gormlogger.Warn
	}

	db, err := gorm.Open(postgres.Open(dbConfig.DSN()), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying database: %w", err)
	}
	sqlDB.SetMaxOpenConns(dbConfig.MaxOpenConns)
	sqlDB.SetMaxIdleConns(dbConfig.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("✅ Database connection established successfully")
	return db, nil
}

// runMigrations creates or updates every table
func runMigrations(db *gorm.DB) error {
	log.Println("🔄 Running database migrations...")

	if err := db.AutoMigrate(
		&models.Admin{},
		&models.Customer{},
		&models.HistoricalCustomer{},
		&models.Address{},
		&models.Session{},
		&models.RecoveryRequest{},
		&models.Category{},
		&models.Product{},
		&models.CustomDesign{},
		&models.Cart{},
		&models.CartLine{},
		&models.Wishlist{},
		&models.WishlistItem{},
		&models.Order{},
		&models.OrderLine{},
		&models.Payment{},
		&models.PointsTransaction{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	log.Println("✅ Database migrations completed successfully")
	return nil
}

type routeHandlers struct {
	auth      *handlers.AuthHandler
	customers *handlers.CustomerHandler
	addresses *handlers.AddressHandler
	catalog   *handlers.CatalogHandler
	cart      *handlers.CartHandler
	designs   *handlers.DesignHandler
	orders    *handlers.OrderHandler
	payments  *handlers.PaymentHandler
	points    *handlers.PointsHandler
	recovery  *handlers.RecoveryHandler
	dashboard *handlers.DashboardHandler
	websocket *handlers.WebSocketHandler
}

// setupRouter configures the Gin router with middleware and routes
func setupRouter(
	cfg *config.Config,
	h *routeHandlers,
	healthChecker *health.HealthChecker,
	cookies *middleware.SessionCookies,
	sessionService services.SessionService,
	customers middleware.CustomerLookup,
	logger *logrus.Logger,
) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Recovery(logger))
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.ErrorLogger(logger))
	router.Use(middleware.SetupCORS(cfg.Server.AllowedOrigins))
	router.Use(health.MetricsMiddleware())
	router.Use(middleware.SessionLoader(cookies, sessionService, logger))

	router.GET("/health", healthChecker.HealthHandler)
	router.GET("/livez", healthChecker.LivezHandler)
	router.GET("/readyz", healthChecker.ReadyzHandler)
	router.GET("/metrics", health.MetricsHandler())
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	if cfg.Storage.Provider == "" || cfg.Storage.Provider == "local" {
		router.Static("/uploads", cfg.Storage.LocalBasePath)
	}

	requireCustomer := middleware.RequireCustomer(customers)
	requireAdmin := middleware.RequireAdmin()
	requireSession := middleware.RequireSession()

	loginLimiter := middleware.NewIPRateLimiter(loginRatePerMinute, loginBurst)
	recoveryLimiter := middleware.NewIPRateLimiter(recoveryRatePerMinute, recoveryBurst)

	router.GET("/ws/admin/pedidos", requireAdmin, h.websocket.Handle)

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/login", loginLimiter.Middleware(), h.auth.Login)
			auth.POST("/logout", requireSession, h.auth.Logout)
			auth.GET("/me", requireSession, h.auth.Me)
		}

		admin := v1.Group("/admin", requireAdmin)
		{
			admin.GET("", h.auth.GetAdmin)
			admin.PATCH("", h.auth.UpdateAdmin)
			admin.PATCH("/contrasena", h.auth.ChangeAdminPassword)
			admin.GET("/jobs", h.dashboard.Jobs)
			admin.POST("/jobs/:name/run", h.dashboard.RunJob)
			admin.GET("/feed", h.websocket.Status)
		}

		customersGroup := v1.Group("/clientes")
		{
			customersGroup.POST("/registrar", loginLimiter.Middleware(), h.customers.Register)
			customersGroup.GET("/me", requireCustomer, h.customers.GetMe)
			customersGroup.PATCH("/me", requireCustomer, h.customers.UpdateMe)
			customersGroup.DELETE("/me", requireCustomer, h.customers.DeleteMe)
			customersGroup.GET("", requireAdmin, h.customers.List)
			customersGroup.GET("/:id", requireAdmin, h.customers.Get)
			customersGroup.PATCH("/:id/estado", requireAdmin, h.customers.SetActive)
			customersGroup.DELETE("/:id", requireAdmin, h.customers.Delete)
		}

		addresses := v1.Group("/direcciones", requireCustomer)
		{
			addresses.POST("", h.addresses.Create)
			addresses.GET("", h.addresses.List)
			addresses.PUT("/:id", h.addresses.Update)
			addresses.DELETE("/:id", h.addresses.Delete)
			addresses.PATCH("/:id/predeterminada", h.addresses.SetDefault)
		}

		categories := v1.Group("/categorias")
		{
			categories.GET("", h.catalog.ListCategories)
			categories.GET("/:id", h.catalog.GetCategory)
			categories.POST("", requireAdmin, h.catalog.CreateCategory)
			categories.PATCH("/:id", requireAdmin, h.catalog.UpdateCategory)
			categories.DELETE("/:id", requireAdmin, h.catalog.DisableCategory)
			categories.PATCH("/:id/habilitar", requireAdmin, h.catalog.EnableCategory)
		}

		products := v1.Group("/productos")
		{
			products.GET("", h.catalog.ListProducts)
			products.GET("/todas", requireAdmin, h.catalog.ListAllProducts)
			products.GET("/:id", h.catalog.GetProduct)
			products.POST("", requireAdmin, h.catalog.CreateProduct)
			products.PATCH("/:id", requireAdmin, h.catalog.UpdateProduct)
			products.POST("/:id/imagen", requireAdmin, h.catalog.UploadProductImage)
			products.PATCH("/:id/habilitar", requireAdmin, h.catalog.EnableProduct)
			products.DELETE("/:id/deshabilitar", requireAdmin, h.catalog.DisableProduct)
		}

		cart := v1.Group("/carrito", requireCustomer)
		{
			cart.GET("/mi-carrito", h.cart.GetCart)
			cart.POST("/agregar-producto", h.cart.AddProduct)
			cart.POST("/agregar-diseno", h.cart.AddDesign)
			cart.PATCH("/actualizar-cantidad/:lineaID", h.cart.UpdateQuantity)
			cart.DELETE("/:lineaID", h.cart.RemoveLine)
			cart.DELETE("", h.cart.Clear)
		}

		wishlist := v1.Group("/wishlist", requireCustomer)
		{
			wishlist.GET("/mi-wishlist", h.cart.GetWishlist)
			wishlist.POST("/agregar", h.cart.AddToWishlist)
			wishlist.DELETE("/:itemID", h.cart.RemoveFromWishlist)
			wishlist.POST("/mover-al-carrito/:itemID", h.cart.MoveToCart)
		}

		designs := v1.Group("/disenos")
		{
			designs.POST("/crear", requireCustomer, h.designs.Create)
			designs.GET("/mis-disenos", requireCustomer, h.designs.ListMine)
			designs.GET("", requireAdmin, h.designs.List)
			designs.GET("/:id", requireSession, h.designs.Get)
			designs.PATCH("/:id", requireAdmin, h.designs.Update)
		}

		orders := v1.Group("/pedidos")
		{
			orders.POST("/checkout", requireCustomer, h.orders.Checkout)
			orders.GET("/mis-pedidos", requireCustomer, h.orders.ListMine)
			orders.GET("/mi-pedido/:id", requireCustomer, h.orders.GetMine)
			orders.PATCH("/:id/cancelar", requireCustomer, h.orders.Cancel)
			orders.GET("", requireAdmin, h.orders.List)
			orders.GET("/admin/:id", requireAdmin, h.orders.Get)
			orders.PATCH("/:id/estado", requireAdmin, h.orders.UpdateStatus)
		}

		payments := v1.Group("/pagos")
		{
			payments.POST("/webhook", h.payments.Webhook)
			payments.POST("/crear", requireCustomer, h.payments.Create)
			payments.PATCH("/:id/confirmar", requireAdmin, h.payments.Confirm)
			payments.GET("", requireAdmin, h.payments.List)
			payments.GET("/:id", requireSession, h.payments.Get)
			payments.GET("/:id/qr", requireSession, h.payments.QRCode)
		}

		points := v1.Group("/puntos")
		{
			points.GET("/mis-transacciones", requireCustomer, h.points.MyTransactions)
			points.GET("/cliente/:id", requireAdmin, h.points.CustomerTransactions)
		}
		v1.POST("/transacciones/crear", requireAdmin, h.points.Adjust)

		recovery := v1.Group("/recuperacion")
		{
			recovery.POST("/solicitar", recoveryLimiter.Middleware(), h.recovery.Request)
			recovery.GET("/validar/:token", recoveryLimiter.Middleware(), h.recovery.Validate)
			recovery.POST("/restablecer", recoveryLimiter.Middleware(), h.recovery.Reset)
		}

		v1.GET("/dashboard", requireAdmin, h.dashboard.Metrics)
		v1.GET("/reportes/pedidos.csv", requireAdmin, h.dashboard.OrdersCSV)
	}

	return router
}
