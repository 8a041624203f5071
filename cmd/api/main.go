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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	_ "github.com/skillacademy/backend/docs"
	"github.com/skillacademy/backend/internal/auth"
	"github.com/skillacademy/backend/internal/config"
	"github.com/skillacademy/backend/internal/database"
	"github.com/skillacademy/backend/internal/gateway"
	"github.com/skillacademy/backend/internal/handlers"
	"github.com/skillacademy/backend/internal/logger"
	"github.com/skillacademy/backend/internal/middleware"
	"github.com/skillacademy/backend/internal/repositories"
	"github.com/skillacademy/backend/internal/services"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// @title SkillAcademy Payments and Progress API
// @version 1.0
// @description Payment reconciliation, enrollment and learning progress API
// @termsOfService http://swagger.io/terms/

// @contact.name API Support

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
// @description API key for operator endpoints
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
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

	logger.Logger.Info("Starting SkillAcademy API")

	// Connect to database
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
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
	completionRepo := repositories.NewLessonCompletionRepository(db)
	eventRepo := repositories.NewWebhookEventRepository(db)

	// Initialize services
	reconciler := services.NewReconciliationService(tx, paymentRepo, enrollmentRepo, courseRepo, userRepo, eventRepo, providerClient.Name(), logger.Logger)
	paymentService := services.NewPaymentService(providerClient, reconciler, userRepo, courseRepo, enrollmentRepo, paymentRepo, eventRepo, logger.Logger)
	enrollmentService := services.NewEnrollmentService(tx, courseRepo, enrollmentRepo, logger.Logger)
	progressService := services.NewProgressService(tx, courseRepo, enrollmentRepo, completionRepo, logger.Logger)
	maintenanceService := services.NewMaintenanceService(courseRepo, eventRepo, paymentService, logger.Logger)

	// Initialize handlers
	paymentHandler := handlers.NewPaymentHandler(paymentService, cfg.FrontendBaseURL, logger.Logger)
	enrollmentHandler := handlers.NewEnrollmentHandler(enrollmentService, logger.Logger)
	progressHandler := handlers.NewProgressHandler(progressService, logger.Logger)
	maintenanceHandler := handlers.NewMaintenanceHandler(maintenanceService, logger.Logger)

	// Initialize auth middleware
	tokenValidator := auth.NewTokenValidator(cfg.JWT.Secret)
	authMiddleware := middleware.AuthMiddleware(tokenValidator)
	apiKeyMiddleware := middleware.APIKeyMiddleware(cfg.APIKey)

	// Setup router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.LoggerMiddleware(logger.Logger))
	r.Use(middleware.RecoveryMiddleware(logger.Logger))
	r.Use(middleware.CORSMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(httprate.LimitByIP(300, time.Minute))
	r.Use(middleware.RequestSizeLimitMiddleware(2 * 1024 * 1024)) // 2MB

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://localhost:%d/swagger/doc.json", cfg.Server.Port)),
	))

	// Scope router to /api/v1
	r.Route("/api/v1", func(r chi.Router) {
		paymentHandler.RegisterRoutes(r, authMiddleware)
		enrollmentHandler.RegisterRoutes(r, authMiddleware)
		progressHandler.RegisterRoutes(r, authMiddleware)
		maintenanceHandler.RegisterRoutes(r, apiKeyMiddleware)
	})

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Logger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Logger.Info("Server exited")
}
