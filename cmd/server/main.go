package main

import (
	"database/sql"
	"flag"
	"log"
	"net/http"
	"time"

	httpapi "rentease-backend/internal/api/http"
	"rentease-backend/internal/config"
	"rentease-backend/internal/gateway"
	"rentease-backend/internal/logger"
	"rentease-backend/internal/repository/postgres"
	"rentease-backend/internal/security"
	"rentease-backend/internal/service"

	_ "github.com/lib/pq"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting RentEase Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)

	// Initialize Database
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)
	vault, err := security.NewKeyVault(cfg.VaultKey())
	if err != nil {
		logger.Error("Failed to initialize key vault", "error", err)
		log.Fatalf("Failed to initialize key vault: %v", err)
	}

	// Initialize Services. The merchant config service and the payment
	// gateway reference each other: the gateway resolves credentials through
	// the service, and the service invalidates the gateway's client cache on
	// config changes, so the invalidator is bound after construction.
	merchantSvc := service.NewMerchantConfigService(store.MerchantConfigRepository, vault)
	paymentGateway := gateway.New(merchantSvc, gateway.Options{
		GatewayURL:     cfg.Payment.GatewayURL,
		RequestTimeout: time.Duration(cfg.Payment.RequestTimeoutSeconds) * time.Second,
		PaymentExpiry:  time.Duration(cfg.Payment.ExpiryMinutes) * time.Minute,
	})
	merchantSvc.SetClientInvalidator(paymentGateway)

	availabilitySvc := service.NewAvailabilityService(store.ItemRepository, store.OrderRepository)
	orderSvc := service.NewOrderService(
		store.OrderRepository,
		store.ItemRepository,
		store.SequenceRepository,
		availabilitySvc,
	)
	paymentSvc := service.NewPaymentService(
		store.PaymentRepository,
		store.OrderRepository,
		store.SequenceRepository,
		orderSvc,
		merchantSvc,
		paymentGateway,
	)

	// Set up HTTP server
	router := httpapi.NewRouter(tokenManager, orderSvc, availabilitySvc, paymentSvc, merchantSvc)

	logger.Info("HTTP server listening", "address", cfg.GetServerAddress())
	if err := http.ListenAndServe(cfg.GetServerAddress(), router); err != nil {
		logger.Error("HTTP server error", "error", err)
		log.Fatalf("Failed to serve: %v", err)
	}
}
