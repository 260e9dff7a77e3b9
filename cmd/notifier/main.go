package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"rentals/internal/notifier"
	"rentals/internal/users/repository"
	"rentals/pkg/config"
	"rentals/pkg/kafka"
	kafka_config "rentals/pkg/kafka/config"
	kafka_middleware "rentals/pkg/kafka/middleware"
	"rentals/pkg/sms"
)

const ServiceName = "notifier"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Notifier service")

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	gateway, err := sms.NewGateway(sms.Config{
		BaseURL:   cfg.SMSGatewayURL,
		AccountID: cfg.SMSGatewayAccountID,
		Token:     cfg.SMSGatewayToken,
		Sender:    cfg.SMSGatewaySender,
		Timeout:   cfg.SMSGatewayTimeout,
	}, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to configure SMS gateway", "error", err)
	}

	handler := notifier.New(repository.NewMongoUserRepository(cfg), gateway, cfg.Log)

	consumer, err := kafka.NewConsumer(kafkaCfg, cfg.Log, cfg.BookingEventsTopic, cfg.NotifierGroupID, cfg.BookingEventsDLQTopic, handler.Handle)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg.Log.Info("Consuming booking events", "topic", cfg.BookingEventsTopic, "group_id", cfg.NotifierGroupID)
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Consumer stopped", "error", err)
	}

	if err := consumer.Close(); err != nil {
		cfg.Log.Error("Failed to close Kafka consumer", "error", err)
	}
	cfg.Log.Info("Notifier stopped")
}
