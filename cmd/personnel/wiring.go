package main

import (
	"context"
	"log/slog"

	"personnel/internal/employee/baseline"
	"personnel/internal/employee/service"
	"personnel/internal/employee/store"
	"personnel/internal/platform/config"
	"personnel/internal/platform/postgres"
	"personnel/internal/platform/redis"
)

// backends are the storage handles one invocation needs.
type backends struct {
	store    service.Store
	writer   service.BatchWriter
	baseline service.BaselineStore
	close    func()
}

// connector opens the backends for mode. It only opens what the mode uses.
type connector func(ctx context.Context, cfg config.Config, mode int, log *slog.Logger) (backends, error)

func connectPostgres(ctx context.Context, cfg config.Config, mode int, log *slog.Logger) (backends, error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	db, err := postgres.Open(ctx, cfg.DatabaseURL, cfg.Database)
	if err != nil {
		return backends{}, err
	}
	closers = append(closers, func() { _ = db.Close() })
	b := backends{store: store.NewPostgres(db, store.WithTxTimeout(cfg.Database.TxTimeout))}

	if mode == modeGenerate && cfg.Generate.WriteMethod == config.WriteMethodCopy {
		pool, err := postgres.OpenPool(ctx, cfg.DatabaseURL, cfg.Database)
		if err != nil {
			closeAll()
			return backends{}, err
		}
		closers = append(closers, pool.Close)
		b.writer = store.NewCopyWriter(pool)
	}

	if mode == modeQuery || mode == modeOptimize {
		client, bl := openBaseline(ctx, cfg.Redis, log)
		if client != nil {
			closers = append(closers, func() { _ = client.Close() })
			b.baseline = bl
		}
	}

	b.close = closeAll
	return b, nil
}

// openBaseline connects the optional baseline store. When Redis is not
// configured or cannot be reached the run continues without a comparison.
func openBaseline(ctx context.Context, cfg config.RedisConfig, log *slog.Logger) (*redis.Client, service.BaselineStore) {
	client, err := redis.New(ctx, cfg)
	if err != nil {
		log.WarnContext(ctx, "baseline store unavailable, continuing without comparison", "error", err)
		return nil, nil
	}
	if client == nil {
		return nil, nil
	}
	return client, baseline.NewRedis(client.Client, baseline.WithTTL(cfg.BaselineTTL))
}
