package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	docgendomain "github.com/askroshan/india-angel-forge-sub003/internal/docgen/domain"
	paymentdomain "github.com/askroshan/india-angel-forge-sub003/internal/payment/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (s *Server) ListFailedInvoiceJobs(c *gin.Context) {
	jobs, err := s.jobQueue.ListFailed(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": jobs})
}

func (s *Server) RetryInvoiceJob(c *gin.Context) {
	paymentID, err := snowflake.ParseString(strings.TrimSpace(c.Param("payment_id")))
	if err != nil {
		AbortWithError(c, newValidationError("payment_id", "invalid_id", "invalid id"))
		return
	}

	job, err := s.retryInvoiceSubject(c.Request.Context(), paymentID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": job})
}

// retryInvoiceSubject requeues the invoice job for a payment. When no job
// row exists, for example when the post-verify enqueue failed, it enqueues a
// fresh job after checking the payment is settled.
func (s *Server) retryInvoiceSubject(ctx context.Context, paymentID snowflake.ID) (*docgendomain.GenerationJob, error) {
	job, err := s.jobQueue.Retry(ctx, docgendomain.JobKindInvoice, paymentID)
	if !errors.Is(err, docgendomain.ErrJobNotFound) {
		return job, err
	}

	payment, err := s.paymentSvc.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status != paymentdomain.PaymentStatusCompleted && payment.Status != paymentdomain.PaymentStatusRefunded {
		return nil, paymentdomain.ErrInvalidTransition
	}
	return s.jobQueue.Enqueue(ctx, docgendomain.JobKindInvoice, paymentID, nil)
}

type retryBatchBody struct {
	PaymentIDs []string `json:"payment_ids"`
}

// RetryInvoiceJobBatch requeues the named failed invoice jobs, or every
// failed invoice job when no ids are given. Requeues are idempotent; a job
// already queued or running is left alone. Subjects are processed
// independently; a subject that cannot be retried is counted as skipped.
func (s *Server) RetryInvoiceJobBatch(c *gin.Context) {
	var body retryBatchBody
	if err := c.ShouldBindJSON(&body); err != nil && c.Request.ContentLength > 0 {
		AbortWithError(c, invalidRequestError())
		return
	}

	subjects := make([]snowflake.ID, 0, len(body.PaymentIDs))
	for _, raw := range body.PaymentIDs {
		id, err := snowflake.ParseString(strings.TrimSpace(raw))
		if err != nil {
			AbortWithError(c, newValidationError("payment_ids", "invalid_id", "invalid id"))
			return
		}
		subjects = append(subjects, id)
	}
	if len(subjects) == 0 {
		failed, err := s.jobQueue.ListFailed(c.Request.Context())
		if err != nil {
			AbortWithError(c, err)
			return
		}
		for _, job := range failed {
			if job.Kind == string(docgendomain.JobKindInvoice) {
				subjects = append(subjects, job.SubjectID)
			}
		}
	}

	retried := 0
	skipped := 0
	for _, subject := range subjects {
		if _, err := s.retryInvoiceSubject(c.Request.Context(), subject); err != nil {
			s.log.Warn("batch retry skipped subject",
				zap.String("subject_id", subject.String()),
				zap.Error(err),
			)
			skipped++
			continue
		}
		retried++
	}

	c.JSON(http.StatusOK, gin.H{"retried": retried, "skipped": skipped})
}

func (s *Server) GetQueueMetrics(c *gin.Context) {
	metrics, err := s.jobQueue.Metrics(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": metrics})
}
