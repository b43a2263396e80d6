package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/askroshan/india-angel-forge-sub003/internal/config"
	docgendomain "github.com/askroshan/india-angel-forge-sub003/internal/docgen/domain"
	"github.com/askroshan/india-angel-forge-sub003/pkg/redislock"
)

func TestReaperRequeuesStaleJobs(t *testing.T) {
	_, q, fc, node := newPool(t)
	ctx := context.Background()

	reaper := NewReaper(ReaperParams{
		Log: zap.NewNop(),
		Cfg: config.Config{
			ReaperInterval:    time.Minute,
			StaleJobThreshold: 10 * time.Minute,
		},
		Queue:  q,
		Locker: redislock.New(nil),
	})

	q.Enqueue(ctx, docgendomain.JobKindInvoice, node.Generate(), nil)
	if claimed, _ := q.Claim(ctx, 1); len(claimed) != 1 {
		t.Fatal("expected claimable job")
	}

	reaper.RunOnce(ctx)
	metrics, _ := q.Metrics(ctx)
	assert.Equal(t, int64(1), metrics.ActiveJobs)

	// Past the stale threshold the sweep requeues it.
	fc.Advance(11 * time.Minute)
	reaper.RunOnce(ctx)
	metrics, _ = q.Metrics(ctx)
	assert.Equal(t, int64(0), metrics.ActiveJobs)
	assert.Equal(t, int64(1), metrics.PendingJobs)
}
