package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"rentease-backend/internal/config"
	"rentease-backend/internal/gateway"
	"rentease-backend/internal/jobs"
	"rentease-backend/internal/logger"
	"rentease-backend/internal/repository/postgres"
	"rentease-backend/internal/scheduler"
	"rentease-backend/internal/security"
	"rentease-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'reconcile-pending-payments', 'all')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting RentEase Cronjob Runner...", "log_level", cfg.Log.Level)

	// Initialize Database
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
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

	// Initialize Services
	vault, err := security.NewKeyVault(cfg.VaultKey())
	if err != nil {
		logger.Error("Failed to initialize key vault", "error", err)
		log.Fatalf("Failed to initialize key vault: %v", err)
	}

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

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(store, paymentSvc, cfg)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		runJobOnce(jobRunner, *runOnce)
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler := scheduler.NewScheduler(jobRunner)

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

// runJobOnce runs a specific job once and exits
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) {
	switch jobName {
	case "reconcile-pending-payments":
		jobRunner.ReconcilePendingPayments()
	case "expire-stale-payments":
		jobRunner.ExpireStalePayments()
	case "all":
		jobRunner.RunAllJobs()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - reconcile-pending-payments\n")
		fmt.Printf("  - expire-stale-payments\n")
		fmt.Printf("  - all\n")
		os.Exit(1)
	}
}
