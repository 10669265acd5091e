package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"storefront/internal/config"
	"storefront/internal/handlers"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/notifications"
	"storefront/internal/payments"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/pkg/rabbitmq"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// --- Database ---
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	err = db.AutoMigrate(
		&models.User{}, &models.Address{}, &models.Product{},
		&models.Cart{}, &models.CartItem{},
		&models.Order{}, &models.OrderItem{},
		&models.Payment{}, &models.ReturnRequest{},
	)
	if err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	// --- RabbitMQ (notification fan-out) ---
	mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Logger: logger})
	if err != nil {
		logger.Fatal("failed to initialize RabbitMQ client", zap.Error(err))
	}
	defer mqClient.Close()

	// --- Payment provider ---
	provider, err := payments.NewStripeProvider(payments.StripeConfig{
		APIKey:        cfg.StripeAPIKey,
		WebhookSecret: cfg.StripeWebhookSecret,
		Timeout:       cfg.ProviderTimeout,
		Logger:        logger,
	})
	if err != nil {
		logger.Fatal("failed to initialize payment provider", zap.Error(err))
	}

	// --- Repositories ---
	userRepo := repositories.NewGORMUserRepository(db)
	addressRepo := repositories.NewGORMAddressRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)
	cartRepo := repositories.NewGORMCartRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)

	// --- Collaborators ---
	mailer := &notifications.LogMailer{Logger: logger}
	invoices := notifications.NewTextInvoiceGenerator(orderRepo, userRepo, productRepo)
	notifier := notifications.NewRabbitNotifier(mqClient)

	// --- Services ---
	authService := services.NewAuthService(userRepo, cfg.JWTSecret, logger)
	productService := services.NewProductService(productRepo, logger)
	paymentService := services.NewPaymentService(orderRepo, cartRepo, userRepo, provider, mailer, invoices, notifier, logger)
	cartService := services.NewCartService(cartRepo, productRepo, orderRepo, addressRepo, paymentService, logger)
	orderService := services.NewOrderService(orderRepo, productRepo, userRepo, paymentService, mailer, logger)

	// --- Handlers ---
	authHandler := handlers.NewAuthHandler(authService)
	addressHandler := handlers.NewAddressHandler(addressRepo)
	productHandler := handlers.NewProductHandler(productService)
	cartHandler := handlers.NewCartHandler(cartService)
	orderHandler := handlers.NewOrderHandler(orderService)
	paymentHandler := handlers.NewPaymentHandler(paymentService, logger)

	// --- Fiber app ---
	app := fiber.New()
	app.Use(fiberlogger.New()) // Request logger

	apiV1 := app.Group("/api/v1")

	// Public routes: auth and the provider webhook (signature-authenticated).
	authHandler.RegisterRoutes(apiV1)
	paymentHandler.RegisterWebhookRoutes(apiV1)
	productHandler.RegisterRoutes(apiV1)

	// Authenticated routes.
	protected := apiV1.Group("", middleware.AuthRequired(authService))
	addressHandler.RegisterRoutes(protected)
	cartHandler.RegisterRoutes(protected)
	orderHandler.RegisterRoutes(protected)
	paymentHandler.RegisterRoutes(protected)

	// Admin routes.
	admin := apiV1.Group("/admin", middleware.AuthRequired(authService), middleware.AdminRequired())
	productHandler.RegisterAdminRoutes(admin)
	orderHandler.RegisterAdminRoutes(admin)

	// Observability.
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// --- Notification consumer (admin dashboard feed) ---
	err = mqClient.Consume(func(msg amqp.Delivery) error {
		logger.Info("notification delivered", zap.ByteString("body", msg.Body))
		return nil
	})
	if err != nil {
		logger.Error("failed to start notification consumer", zap.Error(err))
	}

	// --- Start HTTP server ---
	logger.Info("starting server", zap.String("port", cfg.AppPort))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			logger.Fatal("server failed to start", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("shutting down server")

	if err := app.Shutdown(); err != nil {
		logger.Error("error during shutdown", zap.Error(err))
	}
	logger.Info("server gracefully stopped")
}
