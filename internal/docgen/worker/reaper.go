package worker

import (
	"context"
	"sync"
	"time"

	"github.com/askroshan/india-angel-forge-sub003/internal/config"
	"github.com/askroshan/india-angel-forge-sub003/internal/docgen/queue"
	"github.com/askroshan/india-angel-forge-sub003/pkg/redislock"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const reaperLockKey = "docgen:reaper:lease"

type ReaperParams struct {
	fx.In

	Log    *zap.Logger
	Cfg    config.Config
	Queue  *queue.Queue
	Locker *redislock.Locker
}

// Reaper periodically requeues RUNNING jobs whose worker died. With multiple
// instances a Redis lease keeps a single active reaper per tick.
type Reaper struct {
	log       *zap.Logger
	queue     *queue.Queue
	locker    *redislock.Locker
	interval  time.Duration
	threshold time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewReaper(p ReaperParams) *Reaper {
	return &Reaper{
		log:       p.Log.Named("docgen.reaper"),
		queue:     p.Queue,
		locker:    p.Locker,
		interval:  p.Cfg.ReaperInterval,
		threshold: p.Cfg.StaleJobThreshold,
	}
}

func (r *Reaper) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.RunOnce(ctx)
			}
		}
	}()
	r.log.Info("reaper started",
		zap.Duration("interval", r.interval),
		zap.Duration("threshold", r.threshold),
	)
}

func (r *Reaper) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
}

// RunOnce performs one reap sweep if this instance holds the lease.
func (r *Reaper) RunOnce(ctx context.Context) {
	held, err := r.locker.TryAcquire(ctx, reaperLockKey, r.interval)
	if err != nil {
		r.log.Warn("reaper lease check failed", zap.Error(err))
		return
	}
	if !held {
		return
	}
	if _, err := r.queue.ReapStale(ctx, r.threshold); err != nil {
		r.log.Error("reap sweep failed", zap.Error(err))
	}
}
