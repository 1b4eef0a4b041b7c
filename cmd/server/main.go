package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/cardscout/service-benefit/internal/application"
	"github.com/cardscout/service-benefit/internal/config"
	benefitEvents "github.com/cardscout/service-benefit/internal/events"
	"github.com/cardscout/service-benefit/internal/handler"
	"github.com/cardscout/service-benefit/internal/lock"
	"github.com/cardscout/service-benefit/internal/places"
	"github.com/cardscout/service-benefit/internal/platform/auth"
	"github.com/cardscout/service-benefit/internal/platform/database"
	"github.com/cardscout/service-benefit/internal/platform/health"
	"github.com/cardscout/service-benefit/internal/platform/kafka"
	"github.com/cardscout/service-benefit/internal/platform/logger"
	"github.com/cardscout/service-benefit/internal/platform/middleware"
	"github.com/cardscout/service-benefit/internal/repository"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Initialize logger
	zapLogger, err := logger.NewNamed(cfg.AppEnv, "service-benefit")
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("starting service-benefit",
		zap.String("port", cfg.Port),
	)

	// Connect to database
	db, err := database.Connect(cfg.DBConfig, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations (dev auto-migrate)
	if cfg.AppEnv == "development" {
		err := db.AutoMigrate(
			&repository.CardModel{},
			&repository.OfferModel{},
			&repository.SubOfferModel{},
			&repository.UserCardModel{},
			&repository.CardPerformanceModel{},
			&repository.UsageRecordModel{},
			&repository.PromotionModel{},
		)
		if err != nil {
			zapLogger.Fatal("failed to auto-migrate", zap.Error(err))
		}
		zapLogger.Info("database migration completed (dev auto-migrate)")
	}

	// Connect to Redis for the distributed lock
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		pingCancel()
		zapLogger.Fatal("failed to connect to redis", zap.Error(err))
	}
	pingCancel()
	defer redisClient.Close()

	locker := lock.NewRedisLocker(redisClient, zapLogger)

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, 15*time.Minute)

	// Initialize Kafka producer
	kafkaProducer := kafka.NewProducer(cfg.Kafka.Brokers, zapLogger)
	defer kafkaProducer.Close()

	// Initialize place-search collaborator (optional in development)
	var searcher places.Searcher
	if cfg.Places.APIKey != "" {
		searcher, err = places.NewGoogleSearcher(cfg.Places.APIKey)
		if err != nil {
			zapLogger.Fatal("failed to create place searcher", zap.Error(err))
		}
	} else {
		zapLogger.Warn("no places API key configured, offers match by merchant target only")
	}

	// Initialize repositories
	cardRepo := repository.NewGormCardRepository(db)
	userCardRepo := repository.NewGormUserCardRepository(db)
	ledgerRepo := repository.NewGormLedgerRepository(db)
	promotionRepo := repository.NewGormPromotionRepository(db)

	// Initialize application services
	matchingService := application.NewMatchingService(cardRepo, ledgerRepo, searcher, zapLogger)
	calculatorService := application.NewCalculatorService(cardRepo, ledgerRepo, locker, searcher, kafkaProducer, zapLogger)
	registrationService := application.NewRegistrationService(cardRepo, userCardRepo, zapLogger)
	promotionService := application.NewPromotionService(promotionRepo, cardRepo, zapLogger)

	// Initialize Kafka consumer for expense events
	consumerGroupID := cfg.Kafka.GroupPrefix + "benefit-service"
	expenseConsumer := benefitEvents.NewExpenseEventConsumer(
		cfg.Kafka.Brokers,
		consumerGroupID,
		calculatorService,
		zapLogger,
	)
	defer expenseConsumer.Close()

	consumerCtx, consumerCancel := context.WithCancel(context.Background())
	defer consumerCancel()

	go func() {
		zapLogger.Info("starting expense event consumer")
		if err := expenseConsumer.Start(consumerCtx); err != nil {
			if consumerCtx.Err() == nil {
				zapLogger.Error("expense event consumer failed", zap.Error(err))
			}
		}
	}()

	// Initialize HTTP handlers
	cardHandler := handler.NewCardHandler(registrationService)
	matchingHandler := handler.NewMatchingHandler(matchingService)
	expenseHandler := handler.NewExpenseHandler(calculatorService)
	promotionHandler := handler.NewPromotionHandler(promotionService)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.RecoveryMiddleware(zapLogger))
	router.Use(middleware.LoggerMiddleware(zapLogger))
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RequestIDMiddleware())

	// Register health check routes
	healthHandler := health.NewHandler(db, "service-benefit")
	healthHandler.RegisterRoutes(router)

	// Register API routes
	apiV1 := router.Group("/api/v1")
	cardHandler.RegisterRoutes(apiV1, jwtManager)
	matchingHandler.RegisterRoutes(apiV1, jwtManager)
	expenseHandler.RegisterRoutes(apiV1, jwtManager)
	promotionHandler.RegisterRoutes(apiV1, jwtManager)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zapLogger.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("shutting down service-benefit...")

	consumerCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("service-benefit stopped")
}
