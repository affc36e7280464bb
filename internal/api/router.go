package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/technosupport/ts-sizer/internal/metrics"
	"github.com/technosupport/ts-sizer/internal/middleware"
	"github.com/technosupport/ts-sizer/internal/tokens"
)

// Routes bundles everything the router mounts.
type Routes struct {
	Calculations *CalculationHandler
	Presets      *PresetHandler
	Auth         *AuthHandler
	Email        *EmailHandler
	Health       *HealthHandler

	JWT       *middleware.JWTAuth
	RateLimit *middleware.RateLimitMiddleware
	Collector *metrics.Collector
}

// NewRouter wires the HTTP surface. Auth and health stay outside the
// JWT gate; everything else under /api/v1 requires a bearer token.
func NewRouter(rt Routes) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestLogger)
	r.Use(middleware.CORS)
	if rt.Collector != nil {
		r.Use(middleware.Metrics(rt.Collector))
	}

	r.Get("/healthz", rt.Health.GetHealth)
	if rt.Collector != nil {
		r.Method(http.MethodGet, "/metrics", rt.Collector.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		if rt.RateLimit != nil {
			r.Use(rt.RateLimit.GlobalLimiter)
		}

		r.Post("/auth/token", rt.Auth.IssueToken)
		r.Post("/auth/refresh", rt.Auth.Refresh)

		r.Group(func(r chi.Router) {
			r.Use(rt.JWT.Middleware)

			r.Get("/presets/{kind}", rt.Presets.GetSection)

			r.Group(func(r chi.Router) {
				if rt.RateLimit != nil {
					r.Use(rt.RateLimit.CalcLimiter)
				}
				r.Post("/calculations", rt.Calculations.Calculate)
				r.Post("/calculations/multisite", rt.Calculations.CalculateMultiSite)
				r.Post("/calculations/{id}/replay", rt.Calculations.Replay)
			})

			r.Get("/calculations", rt.Calculations.List)
			r.Get("/calculations/{id}", rt.Calculations.Get)
			r.Get("/calculations/{id}/report", rt.Calculations.Report)
			r.Delete("/calculations/{id}", rt.Calculations.Delete)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(tokens.RoleAdmin))
				r.Post("/presets/reload", rt.Presets.Reload)
				r.Post("/email/test", rt.Email.SendTest)
			})
		})
	})

	return r
}
