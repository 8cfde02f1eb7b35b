package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vncsmyrnk/livepoll/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/livepoll/internal/adapters/repository/mongo"
	"github.com/vncsmyrnk/livepoll/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/livepoll/internal/config"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
)

const connectTimeout = 30 * time.Second

// Open builds the PollRepository selected by cfg.StoreDriver. The returned
// close function releases the underlying connection and is never nil.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (ports.PollRepository, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		logger.Warn("using in-memory poll store; data is lost on restart", "event", "store_opened", "driver", cfg.StoreDriver)
		return memory.NewPollRepository(), func() {}, nil

	case config.StorePostgres:
		pg := postgres.Config{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPassword,
			Name:     cfg.PostgresDB,
		}
		db, err := postgres.Open(ctx, pg.DSN(), connectTimeout)
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		logger.Info("connected to postgres", "event", "store_opened", "driver", cfg.StoreDriver, "host", cfg.PostgresHost)
		return postgres.NewPollRepository(db), func() { _ = db.Close() }, nil

	case config.StoreMongo:
		client, err := mongo.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		repo := mongo.NewPollRepository(client.Database(cfg.MongoDB))
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		logger.Info("connected to mongo", "event", "store_opened", "driver", cfg.StoreDriver, "database", cfg.MongoDB)
		closeFn := func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(shutdownCtx)
		}
		return repo, closeFn, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
