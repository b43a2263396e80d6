package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes application-level prometheus instruments.
type Metrics struct {
	PaymentTransitions *prometheus.CounterVec
	WebhookOutcomes    *prometheus.CounterVec
	JobsEnqueued       *prometheus.CounterVec
	JobAttempts        *prometheus.CounterVec
	JobsByStatus       *prometheus.GaugeVec
	EmailOutcomes      *prometheus.CounterVec
	RenderDuration     *prometheus.HistogramVec
}

// New registers the domain instruments on the given registry.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		PaymentTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forge_payment_transitions_total",
			Help: "Payment state transitions by target status.",
		}, []string{"status"}),
		WebhookOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forge_webhook_outcomes_total",
			Help: "Gateway verification outcomes.",
		}, []string{"gateway", "outcome"}),
		JobsEnqueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forge_generation_jobs_enqueued_total",
			Help: "Generation jobs enqueued by kind.",
		}, []string{"kind"}),
		JobAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forge_generation_job_attempts_total",
			Help: "Generation job attempts by kind and result.",
		}, []string{"kind", "result"}),
		JobsByStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "forge_generation_jobs",
			Help: "Generation jobs currently in each status.",
		}, []string{"status"}),
		EmailOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forge_email_outcomes_total",
			Help: "Notification dispatch outcomes by template.",
		}, []string{"template", "status"}),
		RenderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "forge_document_render_seconds",
			Help:    "Document render and store duration.",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
	}

	reg.MustRegister(
		m.PaymentTransitions,
		m.WebhookOutcomes,
		m.JobsEnqueued,
		m.JobAttempts,
		m.JobsByStatus,
		m.EmailOutcomes,
		m.RenderDuration,
	)
	return m
}
