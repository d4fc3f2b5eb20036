package main

import (
	"context"

	"aitaflow/adapters/cache"
	"aitaflow/adapters/excel"
	"aitaflow/adapters/postgres"
	"aitaflow/adapters/pushshift"
	"aitaflow/adapters/reddit"
	"aitaflow/app"
	"aitaflow/internal"
	"aitaflow/internal/config"
	"aitaflow/internal/errors"
	"aitaflow/internal/migration"
	"aitaflow/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

// resources holds the connections opened for one command
type resources struct {
	db      *sqlx.DB
	redis   *redis.Client
	clients []interface{ Close() }
}

func (r *resources) Close() {
	for _, c := range r.clients {
		c.Close()
	}
	if r.db != nil {
		_ = r.db.Close()
	}
	if r.redis != nil {
		_ = r.redis.Close()
	}
}

// initDatabase connects and migrates. An empty URL disables persistence.
func initDatabase(ctx context.Context, cfg *config.Config, logger *internal.Logger) (*sqlx.DB, error) {
	if cfg.Database.URL == "" {
		return nil, nil
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.Database.URL)
	if err != nil {
		return nil, errors.DatabaseError("failed to connect to database", err)
	}

	runner := migration.NewRunner()
	if err := runner.Run(ctx, db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "database migration failed")
	}
	logger.Info("database ready (schema %s)", runner.Version())
	return db, nil
}

// initCache picks redis when configured, the data directory otherwise
func initCache(ctx context.Context, cfg *config.Config, logger *internal.Logger) (ports.ResponseCache, *redis.Client, error) {
	if cfg.Redis.Addr == "" {
		fileCache, err := cache.NewFileCache(cfg.Flow.DataDir)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("caching responses in %s", fileCache.Dir())
		return fileCache, nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, errors.CacheError("failed to reach redis at "+cfg.Redis.Addr, err)
	}
	logger.Info("caching responses in redis at %s", cfg.Redis.Addr)
	return cache.NewRedisCache(client, cfg.Redis.TTL), client, nil
}

// buildPipeline wires the data sources, cache and sinks
func buildPipeline(ctx context.Context, cfg *config.Config, logger *internal.Logger, extra ...app.PipelineOption) (*app.Pipeline, *resources, error) {
	res := &resources{}

	fetcher, err := reddit.NewClient(cfg.Reddit, logger)
	if err != nil {
		return nil, nil, err
	}
	searcher := pushshift.NewClient(cfg.Pushshift, logger)
	res.clients = append(res.clients, fetcher, searcher)

	responseCache, redisClient, err := initCache(ctx, cfg, logger)
	if err != nil {
		res.Close()
		return nil, nil, err
	}
	res.redis = redisClient

	db, err := initDatabase(ctx, cfg, logger)
	if err != nil {
		res.Close()
		return nil, nil, err
	}
	res.db = db

	opts := []app.PipelineOption{
		app.WithCache(responseCache),
		app.WithExporter(excel.NewTableWriter()),
		app.WithLogger(logger),
	}
	if db != nil {
		opts = append(opts, app.WithRepository(postgres.NewLabelRepository(db)))
	}
	opts = append(opts, extra...)

	return app.NewPipeline(searcher, fetcher, opts...), res, nil
}
