package main

import (
	"context"

	"rentals/internal/bookings/events"
	"rentals/internal/bookings/handler"
	"rentals/internal/bookings/repository"
	"rentals/internal/bookings/service"
	"rentals/internal/bookings/validator"
	"rentals/pkg/app"
	"rentals/pkg/auth"
	"rentals/pkg/config"
	"rentals/pkg/kafka"
	kafka_config "rentals/pkg/kafka/config"
	kafka_middleware "rentals/pkg/kafka/middleware"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()

	cfg.Log.Info("Starting Bookings service")
	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL, nil)
	if err != nil {
		cfg.Log.Fatal("Failed to configure token verification", "error", err)
	}

	serverApp := app.NewApplication(cfg)
	publisher := initPublisher(cfg, serverApp)
	bookingService := initServices(cfg, publisher)

	serverApp.SetApp(handler.NewBookingHandler(bookingService, tokens, cfg.Log), tokens)
	serverApp.Run()
}

func initPublisher(cfg *config.Config, serverApp *app.Application) service.EventPublisher {
	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Warn("Kafka not configured, booking events disabled", "error", err)
		return events.NoopPublisher{}
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	producer, err := kafka.NewProducer(kafkaCfg, cfg.Log, cfg.BookingEventsTopic, cfg.BookingEventsDLQTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	}
	serverApp.OnShutdown(func(context.Context) error {
		return producer.Close()
	})

	return events.NewKafkaPublisher(producer, ServiceName)
}

func initServices(cfg *config.Config, publisher service.EventPublisher) service.BookingService {
	lookups := repository.NewMongoLookupRepository(cfg)
	bookingService := service.NewBookingService(service.Dependencies{
		Repo:      repository.NewMongoBookingRepository(cfg),
		LockRepo:  repository.NewBookingLockRepository(cfg),
		Products:  lookups,
		Users:     lookups,
		Publisher: publisher,
		Validator: validator.NewBookingValidator(cfg.Log),
	}, cfg)

	cfg.Log.Info("Booking service initialized", "database", cfg.MongoDatabaseName)
	return bookingService
}
