package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"perfcycle/internal/domain/auth"
	"perfcycle/internal/transport/http/api"
	assessmentshandler "perfcycle/internal/transport/http/handlers/assessments"
	audithandler "perfcycle/internal/transport/http/handlers/audit"
	authhandler "perfcycle/internal/transport/http/handlers/auth"
	goalshandler "perfcycle/internal/transport/http/handlers/goals"
	jobshandler "perfcycle/internal/transport/http/handlers/jobs"
	notificationshandler "perfcycle/internal/transport/http/handlers/notifications"
	orghandler "perfcycle/internal/transport/http/handlers/org"
	reportshandler "perfcycle/internal/transport/http/handlers/reports"
	reviewshandler "perfcycle/internal/transport/http/handlers/reviews"
	taskshandler "perfcycle/internal/transport/http/handlers/tasks"
	"perfcycle/internal/transport/http/middleware"
)

func (a *App) routes() http.Handler {
	cfg := a.Config
	perms := auth.DefaultPermissionTable()

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(a.Metrics))
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if a.DB != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := a.DB.Ping(ctx); err != nil {
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, a.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		authHandler := authhandler.NewHandler(a.Auth, a.Org, a.Audit)
		authHandler.RegisterPublicRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser)

			authHandler.RegisterRoutes(r)
			orghandler.NewHandler(a.Org, perms, a.Audit).RegisterRoutes(r)
			goalshandler.NewHandler(a.Goals, perms, a.Audit).RegisterRoutes(r)
			taskshandler.NewHandler(a.Tasks, a.Projector, perms, a.Audit).RegisterRoutes(r)
			reviewshandler.NewHandler(a.Reviews, a.Projector, a.Jobs, perms, a.Audit).RegisterRoutes(r)
			assessmentshandler.NewHandler(a.Assessments, perms, a.Audit).RegisterRoutes(r)
			notificationshandler.NewHandler(a.Notifications, perms).RegisterRoutes(r)
			reportshandler.NewHandler(a.Reports, perms, a.Audit).RegisterRoutes(r)
			audithandler.NewHandler(a.Audit, perms).RegisterRoutes(r)
			jobshandler.NewHandler(a.history, perms).RegisterRoutes(r)
		})
	})

	return router
}
