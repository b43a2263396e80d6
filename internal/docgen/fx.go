package docgen

import (
	"context"

	"github.com/askroshan/india-angel-forge-sub003/internal/config"
	docgendomain "github.com/askroshan/india-angel-forge-sub003/internal/docgen/domain"
	"github.com/askroshan/india-angel-forge-sub003/internal/docgen/queue"
	"github.com/askroshan/india-angel-forge-sub003/internal/docgen/worker"
	"github.com/askroshan/india-angel-forge-sub003/pkg/redislock"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

// Module wires the generation queue, the worker pool, and the reaper.
var Module = fx.Module("docgen",
	fx.Provide(
		queue.New,
		func(q *queue.Queue) docgendomain.Enqueuer { return q },
		newRedisClient,
		redislock.New,
		worker.New,
		worker.NewReaper,
	),
	fx.Invoke(runPool, runReaper),
)

func newRedisClient(cfg config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
}

func runPool(lc fx.Lifecycle, pool *worker.Pool) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			pool.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			pool.Stop()
			return nil
		},
	})
}

func runReaper(lc fx.Lifecycle, reaper *worker.Reaper) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			reaper.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			reaper.Stop()
			return nil
		},
	})
}
