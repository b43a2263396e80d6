// Package queue models deferred document generation as rows with status
// columns. Claiming uses row locks so multiple workers never run the same
// job, and at most one non-terminal job exists per (kind, subject).
package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/askroshan/india-angel-forge-sub003/internal/clock"
	docgendomain "github.com/askroshan/india-angel-forge-sub003/internal/docgen/domain"
	obsmetrics "github.com/askroshan/india-angel-forge-sub003/internal/observability/metrics"
	"github.com/askroshan/india-angel-forge-sub003/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Queue struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	obsMetrics *obsmetrics.Metrics
}

func New(p Params) *Queue {
	return &Queue{
		db:         p.DB,
		log:        p.Log.Named("docgen.queue"),
		genID:      p.GenID,
		clock:      p.Clock,
		obsMetrics: p.ObsMetrics,
	}
}

const jobColumns = `id, kind, subject_id, payload, status, attempts, last_error,
	next_retry_at, started_at, created_at, updated_at`

// Enqueue inserts a QUEUED job unless a non-terminal job already exists for
// the same (kind, subject); re-delivery and double-triggering are no-ops.
func (q *Queue) Enqueue(ctx context.Context, kind docgendomain.JobKind, subjectID snowflake.ID, payload any) (*docgendomain.GenerationJob, error) {
	raw := []byte(`{}`)
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = encoded
	}

	now := q.clock.Now()
	job := docgendomain.GenerationJob{
		ID:        q.genID.Generate(),
		Kind:      kind,
		SubjectID: subjectID,
		Payload:   datatypes.JSON(raw),
		Status:    docgendomain.JobStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}

	var result *docgendomain.GenerationJob
	err := q.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := q.findActive(ctx, tx, kind, subjectID)
		if err != nil {
			return err
		}
		if existing != nil {
			result = existing
			return nil
		}
		if err := tx.Create(&job).Error; err != nil {
			// A concurrent enqueue can win between the check and the
			// insert; the partial unique index catches it.
			if db.IsDuplicateKeyErr(err) {
				existing, findErr := q.findActive(ctx, tx, kind, subjectID)
				if findErr != nil {
					return findErr
				}
				if existing != nil {
					result = existing
					return nil
				}
			}
			return err
		}
		result = &job
		if q.obsMetrics != nil {
			q.obsMetrics.JobsEnqueued.WithLabelValues(string(kind)).Inc()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (q *Queue) findActive(ctx context.Context, tx *gorm.DB, kind docgendomain.JobKind, subjectID snowflake.ID) (*docgendomain.GenerationJob, error) {
	var job docgendomain.GenerationJob
	err := tx.WithContext(ctx).Raw(
		`SELECT `+jobColumns+`
		 FROM generation_jobs
		 WHERE kind = ? AND subject_id = ? AND status IN (?, ?)
		 LIMIT 1`,
		kind,
		subjectID,
		docgendomain.JobStatusQueued,
		docgendomain.JobStatusRunning,
	).Scan(&job).Error
	if err != nil {
		return nil, err
	}
	if job.ID == 0 {
		return nil, nil
	}
	return &job, nil
}

// Claim marks up to limit due QUEUED jobs RUNNING and returns them, oldest
// first. Claimed rows carry StartedAt for stale detection.
func (q *Queue) Claim(ctx context.Context, limit int) ([]docgendomain.GenerationJob, error) {
	if limit <= 0 {
		limit = 1
	}
	now := q.clock.Now()

	var jobs []docgendomain.GenerationJob
	err := q.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := `SELECT ` + jobColumns + `
			 FROM generation_jobs
			 WHERE status = ? AND (next_retry_at IS NULL OR next_retry_at <= ?)
			 ORDER BY created_at ASC, id ASC
			 LIMIT ?` + db.LockClause(tx)
		if err := tx.WithContext(ctx).Raw(query, docgendomain.JobStatusQueued, now, limit).Scan(&jobs).Error; err != nil {
			return err
		}
		for i := range jobs {
			res := tx.WithContext(ctx).Exec(
				`UPDATE generation_jobs
				 SET status = ?, started_at = ?, updated_at = ?
				 WHERE id = ? AND status = ?`,
				docgendomain.JobStatusRunning,
				now,
				now,
				jobs[i].ID,
				docgendomain.JobStatusQueued,
			)
			if res.Error != nil {
				return res.Error
			}
			jobs[i].Status = docgendomain.JobStatusRunning
			jobs[i].StartedAt = &now
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

// MarkSucceeded finishes a job permanently. The finishing run counts toward
// the attempt total, so a job that failed twice then succeeded reads 3.
func (q *Queue) MarkSucceeded(ctx context.Context, id snowflake.ID) error {
	now := q.clock.Now()
	return q.db.WithContext(ctx).Exec(
		`UPDATE generation_jobs
		 SET status = ?, attempts = attempts + 1, last_error = NULL, updated_at = ?
		 WHERE id = ?`,
		docgendomain.JobStatusSucceeded,
		now,
		id,
	).Error
}

// MarkFailure records a failed attempt: requeued with a retry-at while the
// attempt budget lasts, FAILED permanently beyond it.
func (q *Queue) MarkFailure(ctx context.Context, job *docgendomain.GenerationJob, cause error, retryAt time.Time, maxAttempts int) error {
	now := q.clock.Now()
	attempts := job.Attempts + 1
	message := cause.Error()

	status := docgendomain.JobStatusQueued
	var nextRetry *time.Time
	if attempts >= maxAttempts {
		status = docgendomain.JobStatusFailed
	} else {
		nextRetry = &retryAt
	}

	err := q.db.WithContext(ctx).Exec(
		`UPDATE generation_jobs
		 SET status = ?, attempts = ?, last_error = ?, next_retry_at = ?, started_at = NULL, updated_at = ?
		 WHERE id = ?`,
		status,
		attempts,
		message,
		nextRetry,
		now,
		job.ID,
	).Error
	if err != nil {
		return err
	}
	job.Attempts = attempts
	job.Status = status
	if status == docgendomain.JobStatusFailed {
		q.log.Error("generation job exhausted retries",
			zap.String("kind", string(job.Kind)),
			zap.String("subject_id", job.SubjectID.String()),
			zap.Int("attempts", attempts),
			zap.String("error", message),
		)
	}
	return nil
}

// Retry resets a job for a subject back to QUEUED with a fresh attempt
// budget. Used by the admin retry endpoints.
func (q *Queue) Retry(ctx context.Context, kind docgendomain.JobKind, subjectID snowflake.ID) (*docgendomain.GenerationJob, error) {
	var job docgendomain.GenerationJob
	err := q.db.WithContext(ctx).Raw(
		`SELECT `+jobColumns+`
		 FROM generation_jobs
		 WHERE kind = ? AND subject_id = ?
		 ORDER BY created_at DESC
		 LIMIT 1`,
		kind,
		subjectID,
	).Scan(&job).Error
	if err != nil {
		return nil, err
	}
	if job.ID == 0 {
		return nil, docgendomain.ErrJobNotFound
	}
	if !job.Terminal() {
		// Already queued or running; nothing to reset.
		return &job, nil
	}

	now := q.clock.Now()
	if err := q.db.WithContext(ctx).Exec(
		`UPDATE generation_jobs
		 SET status = ?, attempts = 0, last_error = NULL, next_retry_at = NULL, started_at = NULL, updated_at = ?
		 WHERE id = ?`,
		docgendomain.JobStatusQueued,
		now,
		job.ID,
	).Error; err != nil {
		return nil, err
	}
	job.Status = docgendomain.JobStatusQueued
	job.Attempts = 0
	return &job, nil
}

// ReapStale requeues RUNNING jobs whose worker died mid-flight. Returns the
// number of requeued jobs.
func (q *Queue) ReapStale(ctx context.Context, threshold time.Duration) (int64, error) {
	cutoff := q.clock.Now().Add(-threshold)
	res := q.db.WithContext(ctx).Exec(
		`UPDATE generation_jobs
		 SET status = ?, started_at = NULL, updated_at = ?
		 WHERE status = ? AND started_at IS NOT NULL AND started_at <= ?`,
		docgendomain.JobStatusQueued,
		q.clock.Now(),
		docgendomain.JobStatusRunning,
		cutoff,
	)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		q.log.Warn("requeued stale running jobs", zap.Int64("count", res.RowsAffected))
	}
	return res.RowsAffected, nil
}

// Metrics returns the queue snapshot for the admin endpoint and exports the
// same numbers as gauges.
func (q *Queue) Metrics(ctx context.Context) (docgendomain.QueueMetrics, error) {
	var rows []struct {
		Status docgendomain.JobStatus
		Total  int64
	}
	err := q.db.WithContext(ctx).Raw(
		`SELECT status, COUNT(*) AS total FROM generation_jobs GROUP BY status`,
	).Scan(&rows).Error
	if err != nil {
		return docgendomain.QueueMetrics{}, err
	}

	var out docgendomain.QueueMetrics
	for _, row := range rows {
		switch row.Status {
		case docgendomain.JobStatusQueued:
			out.PendingJobs = row.Total
		case docgendomain.JobStatusRunning:
			out.ActiveJobs = row.Total
		case docgendomain.JobStatusFailed:
			out.FailedJobs = row.Total
		case docgendomain.JobStatusSucceeded:
			out.CompletedJobs = row.Total
		}
		if q.obsMetrics != nil {
			q.obsMetrics.JobsByStatus.WithLabelValues(string(row.Status)).Set(float64(row.Total))
		}
	}
	return out, nil
}

// FailedJob is a FAILED generation job joined with payment and user context
// for the admin view.
type FailedJob struct {
	JobID     snowflake.ID `json:"job_id"`
	Kind      string       `json:"kind"`
	SubjectID snowflake.ID `json:"subject_id"`
	Attempts  int          `json:"attempts"`
	LastError *string      `json:"last_error"`
	UpdatedAt time.Time    `json:"updated_at"`
	Amount    *int64       `json:"amount"`
	Currency  *string      `json:"currency"`
	UserEmail *string      `json:"user_email"`
	UserName  *string      `json:"user_name"`
}

// ListFailed returns FAILED jobs with payment/user context where the subject
// is a payment.
func (q *Queue) ListFailed(ctx context.Context) ([]FailedJob, error) {
	var jobs []FailedJob
	err := q.db.WithContext(ctx).Raw(
		`SELECT j.id AS job_id, j.kind, j.subject_id, j.attempts, j.last_error, j.updated_at,
		        p.amount, p.currency, u.email AS user_email, u.full_name AS user_name
		 FROM generation_jobs j
		 LEFT JOIN payments p ON p.id = j.subject_id AND j.kind = ?
		 LEFT JOIN users u ON u.id = p.user_id
		 WHERE j.status = ?
		 ORDER BY j.updated_at DESC`,
		docgendomain.JobKindInvoice,
		docgendomain.JobStatusFailed,
	).Scan(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}
