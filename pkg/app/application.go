package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"rentals/internal/health"
	"rentals/pkg/config"
	"rentals/pkg/contracts"
	"rentals/pkg/middleware"
	"syscall"

	"github.com/julienschmidt/httprouter"
)

type Application struct {
	cfg            *config.Config
	server         *http.Server
	healthHandler  http.Handler
	appHttpHandler http.Handler
	shutdownHooks  []func(ctx context.Context) error
}

func NewApplication(cfg *config.Config) *Application {
	return &Application{cfg: cfg}
}

// SetApp builds the middleware stack around appHandler. verifier is used to
// key rate limits by user and may be nil.
func (a *Application) SetApp(appHandler contracts.Handler, verifier middleware.TokenVerifier) {
	a.setHealthHandler()
	a.setAppHandler(appHandler, verifier)
	a.setAppServer()
}

// OnShutdown registers fn to run after the HTTP server stopped.
func (a *Application) OnShutdown(fn func(ctx context.Context) error) {
	a.shutdownHooks = append(a.shutdownHooks, fn)
}

func (a *Application) Handler() http.Handler {
	return a.server.Handler
}

func (a *Application) setHealthHandler() {
	healthRouter := httprouter.New()
	health.NewHandler(a.cfg.Log).
		WithMongo(a.cfg.Client.Mongo).
		WithRedis(a.cfg.Client.Redis).
		RegisterRoutes(healthRouter)

	var healthHTTPHandler http.Handler = healthRouter
	healthHTTPHandler = middleware.RequestLogging(a.cfg.Log)(healthHTTPHandler)
	healthHTTPHandler = middleware.Recovery(a.cfg.Log)(healthHTTPHandler)
	a.healthHandler = healthHTTPHandler
	a.cfg.Log.Info("Health endpoints configured with minimal middleware (Recovery + Logging only)")
}

func (a *Application) setAppHandler(appHandler contracts.Handler, verifier middleware.TokenVerifier) {
	cfg := a.cfg
	appRouter := httprouter.New()
	appHandler.RegisterRoutes(appRouter)

	var appHttpHandler http.Handler = appRouter
	appHttpHandler = middleware.RequestTimeout(cfg.RequestTimeout)(appHttpHandler)

	if cfg.Client.Redis != nil {
		idempotencyStore := middleware.NewRedisIdempotencyStore(cfg.Client.Redis, "rentals:idempotency", cfg.IdempotencyTTL)
		appHttpHandler = middleware.Idempotency(idempotencyStore, cfg.Log)(appHttpHandler)

		rateLimiter, err := middleware.NewRateLimiter(cfg.Client.Redis, "rentals:ratelimit", cfg.RateLimitRequests, cfg.RateLimitWindow, cfg.Log)
		if err != nil {
			cfg.Log.Fatal("Failed to configure rate limiter", "error", err)
		}
		appHttpHandler = middleware.RateLimit(rateLimiter, verifier)(appHttpHandler)
	} else {
		cfg.Log.Warn("Redis not configured, idempotency and rate limiting disabled")
	}

	appHttpHandler = middleware.ContentTypeValidation(cfg.Log)(appHttpHandler)
	appHttpHandler = middleware.MaxRequestSize(int64(cfg.MaxRequestSize))(appHttpHandler)
	appHttpHandler = middleware.RequestLogging(cfg.Log)(appHttpHandler)
	appHttpHandler = middleware.Recovery(cfg.Log)(appHttpHandler)
	a.appHttpHandler = appHttpHandler
	cfg.Log.Info("Application endpoints configured with full middleware stack")
}

func (a *Application) setAppServer() {
	mux := http.NewServeMux()
	mux.Handle("/health", a.healthHandler)
	mux.Handle("/ready", a.healthHandler)
	mux.Handle("/", a.appHttpHandler)

	a.server = &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      mux,
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
		IdleTimeout:  a.cfg.IdleTimeout,
	}

	a.cfg.Log.Info("HTTP server configured", "port", a.cfg.Port)
}

func (a *Application) Run() {
	serverErrors := make(chan error, 1)

	go func() {
		a.cfg.Log.Info("Starting HTTP server", "address", a.server.Addr)
		serverErrors <- a.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			a.cfg.Log.Fatal("HTTP server failed", "error", err)
		}

	case sig := <-shutdown:
		a.cfg.Log.Info("Shutdown signal received", "signal", sig)
		a.gracefulShutdown()
	}
}

func (a *Application) gracefulShutdown() {
	a.cfg.Log.Info("Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.cfg.Log.Error("Server shutdown failed", "error", err)
		if err := a.server.Close(); err != nil {
			a.cfg.Log.Error("Could not stop server gracefully", "error", err)
		}
	}

	for _, hook := range a.shutdownHooks {
		if err := hook(ctx); err != nil {
			a.cfg.Log.Error("Shutdown hook failed", "error", err)
		}
	}

	a.cfg.GracefulShutdown()
	a.cfg.Log.Info("Server stopped gracefully")
}
