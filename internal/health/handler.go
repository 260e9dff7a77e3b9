package health

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	httputil "rentals/pkg/http"
	"rentals/pkg/logger"
)

// Pinger reports whether a dependency is reachable.
type Pinger func(ctx context.Context) error

type Response struct {
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

type Handler struct {
	pingers map[string]Pinger
	timeout time.Duration
	log     *logger.Logger
}

func NewHandler(log *logger.Logger) *Handler {
	return &Handler{
		pingers: map[string]Pinger{},
		timeout: 2 * time.Second,
		log:     log,
	}
}

func (h *Handler) WithPinger(name string, p Pinger) *Handler {
	h.pingers[name] = p
	return h
}

func (h *Handler) WithMongo(client *mongo.Client) *Handler {
	if client == nil {
		return h
	}
	return h.WithPinger("mongo", func(ctx context.Context) error {
		return client.Ping(ctx, nil)
	})
}

func (h *Handler) WithRedis(client *redis.Client) *Handler {
	if client == nil {
		return h
	}
	return h.WithPinger("redis", func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	httputil.WriteJSON(w, http.StatusOK, Response{Status: "ok"})
}

func (h *Handler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	status := http.StatusOK
	resp := Response{Status: "ready", Dependencies: map[string]string{}}

	for name, ping := range h.pingers {
		if err := ping(ctx); err != nil {
			h.log.Error("Dependency health check failed", "dependency", name, "error", err)
			resp.Dependencies[name] = "error"
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Dependencies[name] = "ok"
	}

	httputil.WriteJSON(w, status, resp)
}

func (h *Handler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
}
