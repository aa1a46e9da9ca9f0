// main.go
package main

import (
	"context"
	"log"

	"ecoride/cmd"
	"ecoride/internal/data/repository"
	"ecoride/internal/events"
	"ecoride/internal/jobs"
	"ecoride/internal/realtime"
	"ecoride/internal/usecase"
	"ecoride/internal/wire"
	"ecoride/pkg/database"
	"ecoride/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	if config.Auth.Secret == "" {
		logger.Fatal("JWT_SECRET must be set")
	}

	// Connect to database
	db, err := database.InitDB(context.Background(), config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	if err := database.Migrate(config.Database, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Initialize all repositories
	repos := repository.NewRepository(db, logger)

	// Domain events go to RabbitMQ when configured
	publisher := events.NewNopPublisher(logger)
	if config.Broker.URL != "" {
		publisher, err = events.Dial(config.Broker.URL, config.Broker.Exchange, 5, logger)
		if err != nil {
			logger.Fatal("Failed to connect to message broker", zap.Error(err))
		}
	} else {
		logger.Info("AMQP_URL not set, event publishing disabled")
	}

	hub := realtime.NewHub(logger)
	tokens := utils.NewTokenManager(config.Auth)
	service := usecase.NewService(repos, tokens, publisher, hub, logger)

	// Wire all dependencies
	app := wire.Wiring(service, tokens, hub, config, logger)

	scheduler := jobs.NewScheduler(service.Trip, logger)
	if err := scheduler.Register(config.Jobs.TripExpirySpec); err != nil {
		logger.Fatal("Failed to schedule jobs", zap.Error(err))
	}
	scheduler.Start()

	// Start server
	logger.Info("Starting HTTP server", zap.String("port", config.App.Port))

	err = cmd.APIServer(app.Router, config.App.Port, logger,
		scheduler.Stop,
		func(context.Context) { hub.Close() },
		func(context.Context) {
			if err := publisher.Close(); err != nil {
				logger.Warn("Failed to close publisher", zap.Error(err))
			}
		},
	)
	if err != nil {
		logger.Error("Server exited with error", zap.Error(err))
	}
}
