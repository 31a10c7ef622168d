package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"perfcycle/internal/domain/assessments"
	"perfcycle/internal/domain/audit"
	"perfcycle/internal/domain/goals"
	"perfcycle/internal/domain/notifications"
	"perfcycle/internal/domain/org"
	"perfcycle/internal/domain/reviews"
	"perfcycle/internal/domain/tasks"
	"perfcycle/internal/platform/config"
	"perfcycle/internal/platform/crypto"
	"perfcycle/internal/platform/db"
	"perfcycle/internal/platform/jobs"
	"perfcycle/internal/platform/memstore"
	"perfcycle/migrations"
)

type stores struct {
	org           org.StoreAPI
	goals         goals.StoreAPI
	tasks         tasks.StoreAPI
	reviews       reviews.StoreAPI
	assessments   assessments.StoreAPI
	notifications notifications.StoreAPI
	audit         audit.StoreAPI
	jobs          jobs.Recorder
	history       jobs.History
}

// openStores builds the storage layer for cfg.StorageDriver. The pool is nil
// for the in-memory driver.
func openStores(ctx context.Context, cfg config.Config) (stores, *pgxpool.Pool, error) {
	if cfg.StorageDriver == config.StorageMemory {
		mem := memstore.New()
		return stores{
			org:           mem,
			goals:         mem,
			tasks:         mem,
			reviews:       mem,
			assessments:   mem,
			notifications: mem,
			audit:         mem,
			jobs:          mem,
			history:       mem,
		}, nil, nil
	}

	cipher, err := crypto.New(cfg.DataEncryptionKey)
	if err != nil {
		return stores{}, nil, fmt.Errorf("encryption key: %w", err)
	}
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return stores{}, nil, fmt.Errorf("db connect failed: %w", err)
	}
	if cfg.RunMigrations {
		applied, err := db.Migrate(ctx, pool, migrations.FS)
		if err != nil {
			pool.Close()
			return stores{}, nil, fmt.Errorf("migrations failed: %w", err)
		}
		if len(applied) > 0 {
			slog.Info("migrations applied", "versions", applied)
		}
	}

	jobStore := jobs.NewStore(pool)
	return stores{
		org:           org.NewStore(pool),
		goals:         goals.NewStore(pool),
		tasks:         tasks.NewStore(pool),
		reviews:       reviews.NewStore(pool, cipher),
		assessments:   assessments.NewStore(pool, cipher),
		notifications: notifications.NewStore(pool),
		audit:         audit.NewStore(pool),
		jobs:          jobStore,
		history:       jobStore,
	}, pool, nil
}
