package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"perfcycle/internal/domain/assessments"
	"perfcycle/internal/domain/audit"
	"perfcycle/internal/domain/auth"
	"perfcycle/internal/domain/directory"
	"perfcycle/internal/domain/goals"
	"perfcycle/internal/domain/notifications"
	"perfcycle/internal/domain/org"
	"perfcycle/internal/domain/readmodel"
	"perfcycle/internal/domain/reports"
	"perfcycle/internal/domain/reviews"
	"perfcycle/internal/domain/tasks"
	"perfcycle/internal/platform/config"
	"perfcycle/internal/platform/db"
	"perfcycle/internal/platform/email"
	"perfcycle/internal/platform/jobs"
	"perfcycle/internal/platform/metrics"
)

// App is a fully wired perfcycle instance. Router serves the HTTP API; the
// services are exposed for the CLI commands that bypass HTTP.
type App struct {
	Config  config.Config
	DB      *pgxpool.Pool
	Router  http.Handler
	Jobs    *jobs.Service
	Metrics *metrics.Collector

	Org           *org.Service
	Auth          *auth.Service
	Goals         *goals.Service
	Tasks         *tasks.Service
	Reviews       *reviews.Service
	Assessments   *assessments.Service
	Notifications *notifications.Service
	Audit         *audit.Service
	Reports       *reports.Service
	Projector     *readmodel.Projector

	history jobs.History
	users   org.StoreAPI
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	st, pool, err := openStores(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, DB: pool, Metrics: metrics.New(), history: st.history, users: st.org}
	app.wire(st)
	app.Router = app.routes()

	if cfg.RunSeed {
		if _, err := app.Seed(ctx); err != nil {
			app.Close()
			return nil, err
		}
	}
	return app, nil
}

// Seed creates the configured HR admin account unless it already exists.
func (a *App) Seed(ctx context.Context) (bool, error) {
	created, err := db.Seed(ctx, org.Accounts{Store: a.users}, a.Config)
	if err != nil {
		return false, fmt.Errorf("seed failed: %w", err)
	}
	if created {
		slog.Info("seeded HR admin", "username", a.Config.SeedAdminUsername)
	}
	return created, nil
}

func (a *App) wire(st stores) {
	cfg := a.Config
	dir := directory.New(st.org, st.goals, st.tasks)

	a.Jobs = jobs.New(st.jobs, cfg.NotifyQueueSize)
	a.Org = org.NewService(st.org)
	a.Auth = auth.NewService(a.Org, cfg.JWTSecret, cfg.TokenTTL)
	a.Goals = goals.NewService(st.goals, dir)
	a.Tasks = tasks.NewService(st.tasks, dir)

	a.Notifications = notifications.New(st.notifications, email.New(cfg))
	a.Notifications.DefaultFrom = cfg.EmailFrom
	dispatcher := notifications.NewDispatcher(a.Notifications, a.Jobs, a.Metrics)
	dispatcher.Timeout = cfg.NotifyTimeout

	a.Reviews = reviews.NewService(st.reviews, dir, dispatcher, a.Notifications).WithMetrics(a.Metrics)
	a.Assessments = assessments.NewService(st.assessments, dir)
	a.Audit = audit.New(st.audit)
	a.Projector = readmodel.New(dir)
	a.Reports = reports.NewService(st.reviews, a.Projector)
}

// Run serves HTTP and the notification worker until ctx is cancelled. The
// HTTP server is shut down first so requests still in flight can queue
// notifications; the worker is stopped and drained afterwards.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	workerCtx, stopWorker := context.WithCancel(context.WithoutCancel(ctx))
	defer stopWorker()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.Jobs.Run(workerCtx)
	})
	g.Go(func() error {
		slog.Info("perfcycle listening", "addr", a.Config.Addr, "storage", a.Config.StorageDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		defer stopWorker()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), a.Config.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}
