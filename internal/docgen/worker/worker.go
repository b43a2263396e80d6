// Package worker runs the generation job pool. Each worker claims jobs from
// the queue, runs the generator for the job kind under a deadline, and
// records the outcome.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/askroshan/india-angel-forge-sub003/internal/clock"
	"github.com/askroshan/india-angel-forge-sub003/internal/config"
	docgendomain "github.com/askroshan/india-angel-forge-sub003/internal/docgen/domain"
	"github.com/askroshan/india-angel-forge-sub003/internal/docgen/queue"
	obsmetrics "github.com/askroshan/india-angel-forge-sub003/internal/observability/metrics"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log        *zap.Logger
	Cfg        config.Config
	Clock      clock.Clock
	Queue      *queue.Queue
	Generators []docgendomain.Generator `group:"docgen.generators"`
	ObsMetrics *obsmetrics.Metrics      `optional:"true"`
}

// Pool claims and runs generation jobs with a fixed number of workers.
type Pool struct {
	log        *zap.Logger
	clock      clock.Clock
	queue      *queue.Queue
	generators map[docgendomain.JobKind]docgendomain.Generator
	obsMetrics *obsmetrics.Metrics

	workers      int
	pollInterval time.Duration
	jobTimeout   time.Duration
	maxAttempts  int
	retryBase    time.Duration
	retryMax     time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(p Params) *Pool {
	generators := make(map[docgendomain.JobKind]docgendomain.Generator, len(p.Generators))
	for _, gen := range p.Generators {
		generators[gen.Kind()] = gen
	}
	return &Pool{
		log:          p.Log.Named("docgen.worker"),
		clock:        p.Clock,
		queue:        p.Queue,
		generators:   generators,
		obsMetrics:   p.ObsMetrics,
		workers:      p.Cfg.WorkerCount,
		pollInterval: p.Cfg.WorkerPollInterval,
		jobTimeout:   p.Cfg.JobTimeout,
		maxAttempts:  p.Cfg.MaxJobAttempts,
		retryBase:    p.Cfg.RetryBaseInterval,
		retryMax:     p.Cfg.RetryMaxInterval,
	}
}

// Start launches the worker goroutines. Non-blocking.
func (p *Pool) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	workers := p.workers
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			p.run(ctx, id)
		}(i)
	}
	p.log.Info("worker pool started", zap.Int("workers", workers))
}

// Stop cancels the workers and waits for in-flight jobs to finish.
func (p *Pool) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	p.log.Info("worker pool stopped")
}

func (p *Pool) run(ctx context.Context, id int) {
	for {
		processed, err := p.RunOnce(ctx)
		if err != nil && ctx.Err() == nil {
			p.log.Error("claim failed", zap.Int("worker", id), zap.Error(err))
		}
		if processed > 0 {
			// More work may be due; poll again immediately.
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(p.pollInterval):
		}
	}
}

// RunOnce claims at most one job and processes it. Returns the number of
// jobs processed. Exported for deterministic tests.
func (p *Pool) RunOnce(ctx context.Context) (int, error) {
	jobs, err := p.queue.Claim(ctx, 1)
	if err != nil {
		return 0, err
	}
	for i := range jobs {
		p.process(ctx, &jobs[i])
	}
	return len(jobs), nil
}

func (p *Pool) process(ctx context.Context, job *docgendomain.GenerationJob) {
	gen, ok := p.generators[job.Kind]
	if !ok {
		// No generator can ever serve this kind; retrying is pointless,
		// so the attempt budget collapses to this one attempt.
		cause := fmt.Errorf("%w: %s", docgendomain.ErrUnknownJobKind, job.Kind)
		if err := p.queue.MarkFailure(ctx, job, cause, p.clock.Now(), job.Attempts+1); err != nil {
			p.log.Error("mark failure", zap.Error(err))
		}
		p.observe(job.Kind, "unknown_kind")
		return
	}

	jobCtx, cancel := context.WithTimeout(ctx, p.jobTimeout)
	defer cancel()

	start := p.clock.Now()
	genErr := gen.Generate(jobCtx, job)
	if p.obsMetrics != nil {
		p.obsMetrics.RenderDuration.WithLabelValues(string(job.Kind)).Observe(p.clock.Now().Sub(start).Seconds())
	}

	if genErr == nil {
		if err := p.queue.MarkSucceeded(ctx, job.ID); err != nil {
			p.log.Error("mark succeeded", zap.Error(err))
		}
		p.observe(job.Kind, "succeeded")
		return
	}

	retryAt := p.clock.Now().Add(p.retryDelay(job.Attempts))
	if err := p.queue.MarkFailure(ctx, job, genErr, retryAt, p.maxAttempts); err != nil {
		p.log.Error("mark failure", zap.Error(err))
	}
	outcome := "retried"
	if job.Status == docgendomain.JobStatusFailed {
		outcome = "failed"
	}
	p.observe(job.Kind, outcome)
	p.log.Warn("generation attempt failed",
		zap.String("kind", string(job.Kind)),
		zap.String("subject_id", job.SubjectID.String()),
		zap.Int("attempts", job.Attempts),
		zap.Error(genErr),
	)
}

// retryDelay returns the backoff before the next attempt after `attempts`
// failed ones: base doubling up to the cap, with jitter.
func (p *Pool) retryDelay(attempts int) time.Duration {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.retryBase
	bo.MaxInterval = p.retryMax
	bo.Multiplier = 2
	bo.RandomizationFactor = 0.1
	bo.MaxElapsedTime = 0
	bo.Reset()

	delay := bo.NextBackOff()
	for i := 0; i < attempts; i++ {
		delay = bo.NextBackOff()
	}
	return delay
}

func (p *Pool) observe(kind docgendomain.JobKind, outcome string) {
	if p.obsMetrics != nil {
		p.obsMetrics.JobAttempts.WithLabelValues(string(kind), outcome).Inc()
	}
}
