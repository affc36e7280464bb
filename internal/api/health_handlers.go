package api

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"github.com/technosupport/ts-sizer/internal/catalog"
)

type HealthHandler struct {
	DB       *sql.DB
	Redis    *redis.Client
	NATS     *nats.Conn
	Catalogs *catalog.Manager
}

func NewHealthHandler(db *sql.DB, rdb *redis.Client, nc *nats.Conn, catalogs *catalog.Manager) *HealthHandler {
	return &HealthHandler{DB: db, Redis: rdb, NATS: nc, Catalogs: catalogs}
}

// GET /healthz
//
// Degraded dependencies are reported but only a missing catalog makes
// the service unhealthy: sizing cannot run without presets, while the
// store, limiter and webhooks all fail soft.
func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	components := map[string]string{}
	healthy := true

	if h.Catalogs != nil && h.Catalogs.Current() != nil {
		components["catalog"] = "ok"
	} else {
		components["catalog"] = "missing"
		healthy = false
	}

	if h.DB != nil {
		if err := h.DB.PingContext(ctx); err != nil {
			components["postgres"] = "down"
		} else {
			components["postgres"] = "ok"
		}
	}

	if h.Redis != nil {
		if err := h.Redis.Ping(ctx).Err(); err != nil {
			components["redis"] = "down"
		} else {
			components["redis"] = "ok"
		}
	}

	if h.NATS != nil {
		if h.NATS.IsConnected() {
			components["nats"] = "ok"
		} else {
			components["nats"] = "down"
		}
	}

	status := http.StatusOK
	state := "healthy"
	if !healthy {
		status = http.StatusServiceUnavailable
		state = "unhealthy"
	}

	respondJSON(w, status, map[string]any{
		"status":     state,
		"components": components,
	})
}
