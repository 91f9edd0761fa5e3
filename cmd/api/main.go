package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/buildmart/buildmart_api/internal/cache"
	"github.com/buildmart/buildmart_api/internal/config"
	"github.com/buildmart/buildmart_api/internal/database"
	"github.com/buildmart/buildmart_api/internal/handler"
	"github.com/buildmart/buildmart_api/internal/middleware"
	"github.com/buildmart/buildmart_api/internal/repository"
	"github.com/buildmart/buildmart_api/internal/service"
	"github.com/buildmart/buildmart_api/internal/utils"
	"github.com/buildmart/buildmart_api/internal/worker"
)

// main is the application entrypoint for the BuildMart catalog API.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting buildmart api")

	utils.SetJWTSecret(cfg.JWTSecret)

	// 3. Connect database
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// 3a. Run migrations
	if err := runMigrations(db.DB); err != nil {
		log.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("migrations completed successfully")

	// 3b. Connect to Redis. A missing Redis disables caching, it does not
	// prevent startup.
	var redisClient *cache.RedisClient
	var catalogCache *cache.CatalogCache
	redisClient, err = cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("redis connection failed - catalog caching disabled")
		redisClient = nil
	} else {
		defer redisClient.Close()
		catalogCache = cache.NewCatalogCache(redisClient)
		log.Info().Msg("redis connected successfully")
	}

	// 4. Initialize repositories
	companyRepo := repository.NewCompanyRepository(db)
	productRepo := repository.NewProductRepository(db)
	variantRepo := repository.NewVariantRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	userRepo := repository.NewUserRepository(db)

	// 5. Initialize services
	catalogSvc := service.NewCatalogService(productRepo, companyRepo, variantRepo, reviewRepo, catalogCache)
	mgmtSvc := service.NewCatalogManagementService(companyRepo, productRepo, variantRepo, catalogCache)
	orderSvc := service.NewOrderService(orderRepo, productRepo, variantRepo)
	reviewSvc := service.NewReviewService(reviewRepo, productRepo)
	authSvc := service.NewAuthService(userRepo)

	// 6. Initialize handlers
	handlers := &Handlers{
		Health:            handler.NewHealthHandler(db, redisClient),
		Storefront:        handler.NewStorefrontHandler(catalogSvc),
		Order:             handler.NewOrderHandler(orderSvc),
		Review:            handler.NewReviewHandler(reviewSvc),
		Auth:              handler.NewAuthHandler(authSvc),
		CatalogManagement: handler.NewCatalogManagementHandler(mgmtSvc, catalogSvc),
		Webhook:           handler.NewWebhookHandler(orderSvc, cfg.Payment.WebhookSecret),
	}

	// 7. Initialize middleware
	jwtMw := middleware.NewJWTMiddleware()

	// 8. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.MetricsMiddleware())
	setupRoutes(router, handlers, jwtMw)

	// 9. Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 10. Start workers
	go worker.NewOrderReaperWorker(orderSvc, cfg.Worker.ReaperInterval, cfg.Worker.UnpaidMaxAge).Start(ctx)

	// 11. Start HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 12. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 13. Cancel context to stop workers
	cancel()

	// 14. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health            *handler.HealthHandler
	Storefront        *handler.StorefrontHandler
	Order             *handler.OrderHandler
	Review            *handler.ReviewHandler
	Auth              *handler.AuthHandler
	CatalogManagement *handler.CatalogManagementHandler
	Webhook           *handler.WebhookHandler
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, handlers *Handlers, jwtMiddleware *middleware.JWTMiddleware) {
	// Payment gateway webhook
	router.POST("/webhook/payment", handlers.Webhook.HandlePaymentCallback)

	router.GET("/v1/health", handlers.Health.GetHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Auth routes (public, rate-limited per IP against credential guessing)
	loginLimiter := middleware.NewLoginRateLimiter()
	auth := router.Group("/v1/auth")
	auth.Use(loginLimiter.Handle())
	{
		auth.POST("/register", handlers.Auth.Register)
		auth.POST("/login", handlers.Auth.Login)
	}
	router.GET("/v1/auth/profile", jwtMiddleware.Handle(), handlers.Auth.GetProfile)

	// Storefront routes (public)
	catalog := router.Group("/v1/catalog")
	{
		catalog.GET("/products", handlers.Storefront.GetProducts)
		catalog.GET("/products/:id", handlers.Storefront.GetProduct)
		catalog.GET("/facets", handlers.Storefront.GetFacets)
		catalog.GET("/suggestions", handlers.Storefront.GetSuggestions)
	}

	// Customer routes (authenticated)
	customer := router.Group("/v1")
	customer.Use(jwtMiddleware.Handle())
	{
		customer.POST("/orders", handlers.Order.CreateOrder)
		customer.GET("/orders", handlers.Order.GetMyOrders)
		customer.GET("/orders/:id", handlers.Order.GetOrder)
		customer.POST("/catalog/products/:id/reviews", handlers.Review.CreateReview)
	}

	// Admin routes
	admin := router.Group("/v1/admin")
	admin.Use(jwtMiddleware.Handle(), jwtMiddleware.RequireAdmin())
	{
		// Unrolled product×variant dashboard
		admin.GET("/catalog", handlers.CatalogManagement.GetCatalog)

		// Company management
		admin.GET("/companies", handlers.CatalogManagement.GetCompanies)
		admin.POST("/companies", handlers.CatalogManagement.CreateCompany)
		admin.PUT("/companies/:companyId", handlers.CatalogManagement.UpdateCompany)
		admin.DELETE("/companies/:companyId", handlers.CatalogManagement.DeleteCompany)

		// Product management (company-scoped)
		admin.POST("/companies/:companyId/products", handlers.CatalogManagement.CreateProduct)
		admin.PUT("/companies/:companyId/products/:productId", handlers.CatalogManagement.UpdateProduct)
		admin.DELETE("/companies/:companyId/products/:productId", handlers.CatalogManagement.DeleteProduct)

		// Variant management (product-scoped)
		admin.POST("/companies/:companyId/products/:productId/variants", handlers.CatalogManagement.CreateVariant)
		admin.PUT("/companies/:companyId/products/:productId/variants/:variantId", handlers.CatalogManagement.UpdateVariant)
		admin.DELETE("/companies/:companyId/products/:productId/variants/:variantId", handlers.CatalogManagement.DeleteVariant)

		// Order lifecycle
		admin.PUT("/orders/:id/status", handlers.Order.UpdateStatus)
	}
}

// runMigrations runs database migrations using golang-migrate.
func runMigrations(db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
