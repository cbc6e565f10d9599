package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xavierca1/visa-crm/internal/entity"
	"github.com/xavierca1/visa-crm/internal/infra/http/handlers"
	"github.com/xavierca1/visa-crm/internal/infra/http/middleware"
)

type routerDeps struct {
	AllowedOrigins []string
	Sessions       middleware.SessionParser

	Health     *handlers.HealthHandler
	Leads      *handlers.LeadHandler
	AdminLeads *handlers.AdminLeadHandler
	Onboarding *handlers.OnboardingHandler
	Auth       *handlers.AuthHandler
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.Metrics)
	r.Use(middleware.RequestLogger)
	r.Use(chimw.Timeout(30 * time.Second))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", d.Health.Handle)

	r.Post("/leads", d.Leads.CaptureLead)
	r.Get("/onboard/{token}", d.Onboarding.Show)
	r.Post("/onboard/{token}", d.Onboarding.Complete)
	r.Post("/auth/login", d.Auth.Login)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(d.Sessions))

		r.With(middleware.RequirePermission(entity.PermLeadsView)).Get("/leads/{id}", d.Leads.Show)

		r.Route("/admin/leads", func(r chi.Router) {
			r.With(middleware.RequirePermission(entity.PermLeadsView)).Get("/", d.AdminLeads.List)
			r.With(middleware.RequirePermission(entity.PermLeadsUpdate)).Post("/{id}/review", d.AdminLeads.Review)
			r.With(middleware.RequirePermission(entity.PermLeadsApprove)).Post("/{id}/approve", d.AdminLeads.Approve)
			r.With(middleware.RequirePermission(entity.PermLeadsReject)).Post("/{id}/reject", d.AdminLeads.Reject)
		})
	})

	return r
}
