// Package domain contains the deferred-work model for document generation.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// JobKind selects the generator a job runs.
type JobKind string

const (
	JobKindInvoice   JobKind = "INVOICE"
	JobKindStatement JobKind = "STATEMENT"
)

// JobStatus represents generation job states. QUEUED and RUNNING are
// non-terminal; SUCCEEDED and FAILED are terminal.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "QUEUED"
	JobStatusRunning   JobStatus = "RUNNING"
	JobStatusSucceeded JobStatus = "SUCCEEDED"
	JobStatusFailed    JobStatus = "FAILED"
)

// GenerationJob is a unit of deferred work. At most one non-terminal job
// exists per (kind, subject).
type GenerationJob struct {
	ID          snowflake.ID   `gorm:"primaryKey" json:"id"`
	Kind        JobKind        `gorm:"type:text;not null" json:"kind"`
	SubjectID   snowflake.ID   `gorm:"not null" json:"subject_id"`
	Payload     datatypes.JSON `gorm:"type:text;not null;default:'{}'" json:"payload"`
	Status      JobStatus      `gorm:"type:text;not null;default:'QUEUED';index" json:"status"`
	Attempts    int            `gorm:"not null;default:0" json:"attempts"`
	LastError   *string        `gorm:"type:text" json:"last_error,omitempty"`
	NextRetryAt *time.Time     `gorm:"" json:"next_retry_at,omitempty"`
	StartedAt   *time.Time     `gorm:"" json:"started_at,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (GenerationJob) TableName() string { return "generation_jobs" }

// Terminal reports whether the job will never run again without admin action.
func (j *GenerationJob) Terminal() bool {
	return j.Status == JobStatusSucceeded || j.Status == JobStatusFailed
}

// StatementRequest is the payload of a STATEMENT job.
type StatementRequest struct {
	UserID snowflake.ID `json:"user_id"`
	From   time.Time    `json:"from"`
	To     time.Time    `json:"to"`
	Format string       `json:"format"`
	// Recipients to email once the statement renders.
	EmailTo []string `json:"email_to,omitempty"`
}

// Enqueuer inserts deferred work. Enqueue is a no-op when a non-terminal job
// already exists for the same (kind, subject).
type Enqueuer interface {
	Enqueue(ctx context.Context, kind JobKind, subjectID snowflake.ID, payload any) (*GenerationJob, error)
}

// Generator renders one job kind. A nil error marks the job SUCCEEDED; any
// error is retried until the attempt budget is spent.
type Generator interface {
	Kind() JobKind
	Generate(ctx context.Context, job *GenerationJob) error
}

// QueueMetrics is the admin-facing queue snapshot.
type QueueMetrics struct {
	PendingJobs   int64 `json:"pending_jobs"`
	ActiveJobs    int64 `json:"active_jobs"`
	FailedJobs    int64 `json:"failed_jobs"`
	CompletedJobs int64 `json:"completed_jobs"`
}

var (
	ErrJobNotFound    = errors.New("job_not_found")
	ErrUnknownJobKind = errors.New("unknown_job_kind")
)
