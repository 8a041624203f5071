package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/skillacademy/backend/internal/config"
	"github.com/skillacademy/backend/internal/database"
	"github.com/skillacademy/backend/internal/gateway"
	"github.com/skillacademy/backend/internal/logger"
	"github.com/skillacademy/backend/internal/repositories"
	"github.com/skillacademy/backend/internal/services"
	"github.com/skillacademy/backend/internal/tasks"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting maintenance worker")

	// Connect to database
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := database.RunMigrations(db, database.MigrationsPath()); err != nil {
		logger.Logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Provider gateway
	providerClient := gateway.NewClient(gateway.ClientConfig{
		Name:        cfg.Provider.Name,
		BaseURL:     cfg.Provider.BaseURL,
		SecretKey:   cfg.Provider.SecretKey,
		CallbackURL: cfg.Provider.CallbackURL,
		Timeout:     cfg.Provider.Timeout,
		RetryCount:  2,
	}, logger.Logger)

	// Initialize repositories
	tx := repositories.NewTransactor(db)
	userRepo := repositories.NewUserRepository(db)
	courseRepo := repositories.NewCourseRepository(db)
	enrollmentRepo := repositories.NewEnrollmentRepository(db)
	paymentRepo := repositories.NewPaymentRepository(db)
	eventRepo := repositories.NewWebhookEventRepository(db)

	// Initialize services
	reconciler := services.NewReconciliationService(tx, paymentRepo, enrollmentRepo, courseRepo, userRepo, eventRepo, providerClient.Name(), logger.Logger)
	paymentService := services.NewPaymentService(providerClient, reconciler, userRepo, courseRepo, enrollmentRepo, paymentRepo, eventRepo, logger.Logger)
	maintenanceService := services.NewMaintenanceService(courseRepo, eventRepo, paymentService, logger.Logger)

	// Create Asynq server
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: 2,
			Queues: map[string]int{
				tasks.QueueMaintenance: 1,
			},
		},
	)

	// Register task handlers
	mux := asynq.NewServeMux()
	tasks.NewProcessor(maintenanceService, logger.Logger).Register(mux)

	// Start worker
	go func() {
		if err := srv.Run(mux); err != nil {
			logger.Logger.Fatal("Failed to start worker", zap.Error(err))
		}
	}()

	logger.Logger.Info("Worker started")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down worker...")
	srv.Shutdown()
	logger.Logger.Info("Worker exited")
}
