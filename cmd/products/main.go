package main

import (
	"rentals/internal/products/handler"
	"rentals/internal/products/repository"
	"rentals/internal/products/service"
	"rentals/internal/products/validator"
	"rentals/pkg/app"
	"rentals/pkg/auth"
	"rentals/pkg/config"
)

const ServiceName = "products"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()

	cfg.Log.Info("Starting Products service")
	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL, nil)
	if err != nil {
		cfg.Log.Fatal("Failed to configure token verification", "error", err)
	}

	productService := initServices(cfg)
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewProductHandler(productService, tokens, cfg.Log), tokens)
	serverApp.Run()
}

func initServices(cfg *config.Config) service.ProductService {
	productService := service.NewProductService(
		repository.NewMongoProductRepository(cfg),
		validator.NewProductValidator(cfg.Log),
		nil,
		cfg,
	)

	cfg.Log.Info("Product service initialized", "database", cfg.MongoDatabaseName)
	return productService
}
