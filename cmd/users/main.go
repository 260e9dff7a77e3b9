package main

import (
	"errors"

	"rentals/internal/users/handler"
	"rentals/internal/users/repository"
	"rentals/internal/users/service"
	"rentals/internal/users/validator"
	"rentals/pkg/app"
	"rentals/pkg/auth"
	"rentals/pkg/config"
	"rentals/pkg/sms"
)

const (
	ServiceName = "users"

	passwordCost = 12
)

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()

	cfg.Log.Info("Starting Users service")
	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL, nil)
	if err != nil {
		cfg.Log.Fatal("Failed to configure tokens", "error", err)
	}

	userService := initServices(cfg, tokens)
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewUserHandler(userService, tokens, cfg.Log), tokens)
	serverApp.Run()
}

func initServices(cfg *config.Config, tokens *auth.TokenManager) service.UserService {
	deps := service.Dependencies{
		Repo:      repository.NewMongoUserRepository(cfg),
		Throttle:  repository.NewRedisCodeThrottle(cfg.Client.Redis, "rentals:otp"),
		Hasher:    auth.NewPasswordHasher(passwordCost),
		Tokens:    tokens,
		Validator: validator.NewUserValidator(cfg.Log),
	}

	gateway, err := sms.NewGateway(sms.Config{
		BaseURL:   cfg.SMSGatewayURL,
		AccountID: cfg.SMSGatewayAccountID,
		Token:     cfg.SMSGatewayToken,
		Sender:    cfg.SMSGatewaySender,
		Timeout:   cfg.SMSGatewayTimeout,
	}, cfg.Log)
	switch {
	case err == nil:
		deps.Gateway = gateway
	case errors.Is(err, sms.ErrNotConfigured):
		cfg.Log.Warn("SMS gateway not configured, phone verification disabled")
	default:
		cfg.Log.Fatal("Failed to configure SMS gateway", "error", err)
	}

	userService := service.NewUserService(deps, cfg)
	cfg.Log.Info("User service initialized", "database", cfg.MongoDatabaseName)
	return userService
}
