package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/SevaDrive/service-ambulance/internal/application"
	"github.com/SevaDrive/service-ambulance/internal/clients/google"
	"github.com/SevaDrive/service-ambulance/internal/config"
	"github.com/SevaDrive/service-ambulance/internal/domain/ambulance"
	bookingDomain "github.com/SevaDrive/service-ambulance/internal/domain/booking"
	crewEvents "github.com/SevaDrive/service-ambulance/internal/events"
	"github.com/SevaDrive/service-ambulance/internal/handler"
	"github.com/SevaDrive/service-ambulance/internal/platform/database"
	"github.com/SevaDrive/service-ambulance/internal/platform/health"
	"github.com/SevaDrive/service-ambulance/internal/platform/kafka"
	"github.com/SevaDrive/service-ambulance/internal/platform/logger"
	"github.com/SevaDrive/service-ambulance/internal/platform/middleware"
	"github.com/SevaDrive/service-ambulance/internal/repository"
)

const serviceName = "service-ambulance"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting "+serviceName,
		zap.String("port", cfg.Port),
	)
	if cfg.GoogleMapsAPIKey == "" {
		log.Warn("GOOGLE_MAPS_API_KEY is not set, maps requests will fail")
	}

	// Booking store: Postgres when configured, in memory otherwise
	var (
		db          *gorm.DB
		bookingRepo bookingDomain.BookingRepository
	)
	if cfg.DBConfig.Enabled() {
		db, err = database.Connect(database.PostgresConfig{
			Host:     cfg.DBConfig.Host,
			Port:     cfg.DBConfig.Port,
			User:     cfg.DBConfig.User,
			Password: cfg.DBConfig.Password,
			DBName:   cfg.DBConfig.DBName,
			SSLMode:  cfg.DBConfig.SSLMode,
		}, log)
		if err != nil {
			log.Fatal("failed to connect to database", zap.Error(err))
		}
		if err := db.AutoMigrate(&repository.BookingModel{}); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		bookingRepo = repository.NewGormBookingRepository(db)
	} else {
		log.Info("DB_HOST not set, bookings are kept in memory")
		bookingRepo = repository.NewMemoryBookingRepository()
	}

	// Initialize Kafka producer
	var producer kafka.Publisher = kafka.NopProducer{}
	if cfg.KafkaConfig.Enabled() {
		producer = kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
	}
	defer func() { _ = producer.Close() }()

	// Maps client behind the response cache
	cache, err := google.OpenCache(cfg.CacheDir)
	if err != nil {
		log.Fatal("failed to open maps cache", zap.Error(err))
	}
	defer func() { _ = cache.Close() }()
	maps := google.NewCachedProvider(
		cache,
		google.NewClient(cfg.GoogleMapsAPIKey, cfg.MapsTimeout),
		cfg.DirectionsCacheTTL,
		cfg.GeocodeCacheTTL,
		log,
	)

	// Ambulance dataset and allocation model; the service still starts without them
	var fleet *ambulance.Fleet
	if records, err := repository.LoadDataset(cfg.DatasetPath); err != nil {
		log.Warn("ambulance dataset not loaded", zap.String("path", cfg.DatasetPath), zap.Error(err))
	} else {
		fleet = ambulance.NewFleet(records)
		log.Info("ambulance dataset loaded",
			zap.Int("rows", fleet.Len()),
			zap.Int("allocatable", fleet.AvailableLen()),
		)
	}

	modelService := application.NewModelService(cfg.DatasetPath, cfg.ModelPath, repository.LoadDataset, log)
	if err := modelService.LoadOrTrain(context.Background()); err != nil {
		log.Warn("allocation model not available", zap.Error(err))
	}

	// Initialize application services
	bookingService := application.NewBookingService(bookingRepo, maps, producer, log)
	dispatchService := application.NewDispatchService(fleet, modelService, maps, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Crew events drive bookings forward when Kafka is configured
	if cfg.KafkaConfig.Enabled() {
		groupID := cfg.KafkaConfig.GroupPrefix + serviceName
		crewConsumer := crewEvents.NewCrewEventConsumer(
			cfg.KafkaConfig.Brokers,
			groupID,
			bookingService,
			log,
		)
		defer func() { _ = crewConsumer.Close() }()

		go func() {
			log.Info("starting crew event consumer")
			if err := crewConsumer.Start(ctx); err != nil && err != context.Canceled {
				log.Error("crew event consumer stopped; uncommitted events resume on restart", zap.Error(err))
			}
		}()
	}

	// Setup Gin router
	if cfg.AppEnv != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register routes
	health.NewHandler(db, serviceName).RegisterRoutes(router)
	handler.NewDispatchHandler(dispatchService).RegisterRoutes(router)
	handler.NewBookingHandler(bookingService).RegisterRoutes(router)
	handler.NewModelHandler(modelService).RegisterRoutes(router)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down " + serviceName + "...")

	// Cancel the consumer context
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info(serviceName + " stopped")
}
