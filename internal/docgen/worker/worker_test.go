package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/askroshan/india-angel-forge-sub003/internal/clock"
	"github.com/askroshan/india-angel-forge-sub003/internal/config"
	docgendomain "github.com/askroshan/india-angel-forge-sub003/internal/docgen/domain"
	"github.com/askroshan/india-angel-forge-sub003/internal/docgen/queue"
)

type stubGenerator struct {
	kind  docgendomain.JobKind
	err   error
	calls int
}

func (g *stubGenerator) Kind() docgendomain.JobKind { return g.kind }

func (g *stubGenerator) Generate(ctx context.Context, job *docgendomain.GenerationJob) error {
	g.calls++
	return g.err
}

func newPool(t *testing.T, generators ...docgendomain.Generator) (*Pool, *queue.Queue, *clock.FakeClock, *snowflake.Node) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&docgendomain.GenerationJob{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}
	fc := clock.NewFakeClock(time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC))
	q := queue.New(queue.Params{DB: db, Log: zap.NewNop(), GenID: node, Clock: fc})

	cfg := config.Config{
		WorkerCount:        1,
		WorkerPollInterval: 10 * time.Millisecond,
		JobTimeout:         time.Second,
		MaxJobAttempts:     3,
		RetryBaseInterval:  30 * time.Second,
		RetryMaxInterval:   30 * time.Minute,
	}
	pool := New(Params{Log: zap.NewNop(), Cfg: cfg, Clock: fc, Queue: q, Generators: generators})
	return pool, q, fc, node
}

func TestRunOnceMarksSuccess(t *testing.T) {
	gen := &stubGenerator{kind: docgendomain.JobKindInvoice}
	pool, q, _, node := newPool(t, gen)
	ctx := context.Background()

	q.Enqueue(ctx, docgendomain.JobKindInvoice, node.Generate(), nil)

	processed, err := pool.RunOnce(ctx)
	if err != nil {
		t.Fatalf("run once: %v", err)
	}
	assert.Equal(t, 1, processed)
	assert.Equal(t, 1, gen.calls)

	metrics, err := q.Metrics(ctx)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), metrics.CompletedJobs)
}

func TestRunOnceRetriesWithBackoff(t *testing.T) {
	gen := &stubGenerator{kind: docgendomain.JobKindInvoice, err: errors.New("render failed")}
	pool, q, fc, node := newPool(t, gen)
	ctx := context.Background()

	q.Enqueue(ctx, docgendomain.JobKindInvoice, node.Generate(), nil)

	if _, err := pool.RunOnce(ctx); err != nil {
		t.Fatalf("run once: %v", err)
	}
	metrics, _ := q.Metrics(ctx)
	assert.Equal(t, int64(1), metrics.PendingJobs)

	// Still waiting out the backoff window.
	processed, err := pool.RunOnce(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 0, processed)

	// Max backoff is 30 minutes; after that the job is claimable again.
	fc.Advance(31 * time.Minute)
	processed, err = pool.RunOnce(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 1, processed)
	assert.Equal(t, 2, gen.calls)
}

func TestRunOnceExhaustsAttemptBudget(t *testing.T) {
	gen := &stubGenerator{kind: docgendomain.JobKindInvoice, err: errors.New("render failed")}
	pool, q, fc, node := newPool(t, gen)
	ctx := context.Background()

	q.Enqueue(ctx, docgendomain.JobKindInvoice, node.Generate(), nil)

	for i := 0; i < 3; i++ {
		if _, err := pool.RunOnce(ctx); err != nil {
			t.Fatalf("run once %d: %v", i, err)
		}
		fc.Advance(31 * time.Minute)
	}
	assert.Equal(t, 3, gen.calls)

	metrics, _ := q.Metrics(ctx)
	assert.Equal(t, int64(1), metrics.FailedJobs)
	assert.Equal(t, int64(0), metrics.PendingJobs)
}

func TestRunOnceFailsUnknownKindPermanently(t *testing.T) {
	pool, q, fc, node := newPool(t) // no generators registered
	ctx := context.Background()

	q.Enqueue(ctx, docgendomain.JobKindStatement, node.Generate(), nil)

	processed, err := pool.RunOnce(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 1, processed)

	// No retry regardless of the attempt budget.
	fc.Advance(time.Hour)
	metrics, _ := q.Metrics(ctx)
	assert.Equal(t, int64(1), metrics.FailedJobs)
	assert.Equal(t, int64(0), metrics.PendingJobs)
}

func TestRetryDelayDoublesUpToCap(t *testing.T) {
	pool, _, _, _ := newPool(t)

	first := pool.retryDelay(0)
	second := pool.retryDelay(1)
	third := pool.retryDelay(2)

	// 10% jitter around 30s, 60s, 120s.
	assert.InDelta(t, (30 * time.Second).Seconds(), first.Seconds(), 3.1)
	assert.InDelta(t, (60 * time.Second).Seconds(), second.Seconds(), 6.1)
	assert.InDelta(t, (120 * time.Second).Seconds(), third.Seconds(), 12.1)

	capped := pool.retryDelay(20)
	assert.LessOrEqual(t, capped, 33*time.Minute)
	assert.GreaterOrEqual(t, capped, 27*time.Minute)
}
