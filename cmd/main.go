package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/reqini/catalogo-indumentaria-sub002/internal/clients"
	"github.com/reqini/catalogo-indumentaria-sub002/internal/config"
	"github.com/reqini/catalogo-indumentaria-sub002/internal/events"
	"github.com/reqini/catalogo-indumentaria-sub002/internal/handlers"
	"github.com/reqini/catalogo-indumentaria-sub002/internal/importer"
	"github.com/reqini/catalogo-indumentaria-sub002/internal/middleware"
	"github.com/reqini/catalogo-indumentaria-sub002/internal/repository"
)

// @title Catálogo Indumentaria API
// @version 1.0.0
// @description Bulk product import and catalog service with multi-tenant support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8087
// @BasePath /api/v1

// @securityDefinitions.bearer BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := config.Load()

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Environment == "production" {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	// Initialize Redis client
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Printf("WARNING: Failed to parse Redis URL: %v (continuing without Redis)", err)
		redisOpts = &redis.Options{
			Addr: "localhost:6379",
		}
	}
	redisClient := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("WARNING: Failed to connect to Redis: %v (caching will be disabled)", err)
	} else {
		log.Println("✓ Redis connected successfully")
	}
	cancel()

	// Initialize repository
	catalogRepo := repository.NewCatalogRepository(db, redisClient)

	// Initialize event publisher for audit trail only if NATS_URL is set
	var eventsPublisher *events.Publisher
	if cfg.NATSURL != "" {
		eventsPublisher, err = events.NewPublisher(cfg.NATSURL, logger)
		if err != nil {
			log.Printf("WARNING: Failed to initialize events publisher: %v (continuing without event publishing)", err)
		} else {
			log.Println("✓ Events publisher initialized (NATS connected)")
		}
	} else {
		log.Println("NATS_URL not set, skipping event publishing initialization")
	}
	defer func() {
		if eventsPublisher != nil {
			eventsPublisher.Close()
		}
	}()

	// Plan enforcement: billing-service when configured, otherwise the local
	// cap from PLAN_MAX_PRODUCTS
	var planChecker importer.PlanChecker
	if billingClient := clients.NewBillingClient(); billingClient != nil {
		planChecker = billingClient
		log.Println("✓ Billing client initialized")
	} else {
		planChecker = repository.NewLocalPlanChecker(catalogRepo, cfg.MaxProducts)
	}

	// Initialize handlers
	productsHandler := handlers.NewProductsHandler(catalogRepo)
	importHandler := handlers.NewImportHandler(catalogRepo, planChecker, eventsPublisher, logger)

	// Initialize Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())

	// Health check endpoints (no auth required)
	router.GET("/health", handlers.HealthCheck)
	router.GET("/ready", handlers.HealthCheck)

	// Protected API routes
	api := router.Group("/api/v1")
	if cfg.Environment == "development" {
		api.Use(middleware.DevelopmentAuthMiddleware())
	} else {
		api.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	}
	api.Use(middleware.TenantMiddleware())

	{
		products := api.Group("/products")
		{
			products.GET("", productsHandler.GetProducts)
			products.GET("/:id", productsHandler.GetProduct)

			products.POST("/parse", importHandler.ParseText)
			products.POST("/bulk", importHandler.BulkCreateProducts)
			products.POST("/import", importHandler.ImportFile)
			products.POST("/import/validate", importHandler.ValidateImportFile)
			products.GET("/import/template", importHandler.GetImportTemplate)
		}

		api.GET("/categories", productsHandler.GetCategories)
		api.GET("/imports/logs", importHandler.GetImportLogs)
	}

	// Public storefront endpoints, tenant context only
	storefront := router.Group("/api/v1/storefront")
	storefront.Use(middleware.TenantMiddleware())
	{
		storefront.GET("/products", productsHandler.GetProducts)
		storefront.GET("/products/:id", productsHandler.GetProduct)
		storefront.GET("/categories", productsHandler.GetCategories)
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Catalog service starting on port %s", cfg.Port)
		if err := router.Run(":" + cfg.Port); err != nil {
			log.Fatal("Failed to start server:", err)
		}
	}()

	<-quit
	log.Println("Shutting down catalog service...")
}
