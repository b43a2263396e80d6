// Package server exposes the HTTP API: payment lifecycle, webhooks, invoice
// and statement reads, transaction export, and the operations endpoints.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/askroshan/india-angel-forge-sub003/internal/config"
	"github.com/askroshan/india-angel-forge-sub003/internal/docgen/queue"
	invoicedomain "github.com/askroshan/india-angel-forge-sub003/internal/invoice/domain"
	obsmiddleware "github.com/askroshan/india-angel-forge-sub003/internal/observability/logger"
	obsmetrics "github.com/askroshan/india-angel-forge-sub003/internal/observability/metrics"
	paymentdomain "github.com/askroshan/india-angel-forge-sub003/internal/payment/domain"
	"github.com/askroshan/india-angel-forge-sub003/internal/payment/webhook"
	"github.com/askroshan/india-angel-forge-sub003/internal/ratelimit"
	statementdomain "github.com/askroshan/india-angel-forge-sub003/internal/statement/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func registerGin(cfg config.Config, log *zap.Logger, registry *prometheus.Registry) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(log))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	if cfg.StorageBackend == "local" {
		r.Static("/documents", cfg.StorageDir)
	}

	return r
}

func run(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	db           *gorm.DB
	log          *zap.Logger
	paymentSvc   paymentdomain.Service
	webhookSvc   *webhook.Service
	invoiceSvc   invoicedomain.Service
	statementSvc statementdomain.Service
	jobQueue     *queue.Queue
	limiter      *ratelimit.TokenBucket
	obsMetrics   *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	DB           *gorm.DB
	Log          *zap.Logger
	PaymentSvc   paymentdomain.Service
	WebhookSvc   *webhook.Service
	InvoiceSvc   invoicedomain.Service
	StatementSvc statementdomain.Service
	JobQueue     *queue.Queue
	Limiter      *ratelimit.TokenBucket `optional:"true"`
	ObsMetrics   *obsmetrics.Metrics    `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		db:           p.DB,
		log:          p.Log.Named("http.server"),
		paymentSvc:   p.PaymentSvc,
		webhookSvc:   p.WebhookSvc,
		invoiceSvc:   p.InvoiceSvc,
		statementSvc: p.StatementSvc,
		jobQueue:     p.JobQueue,
		limiter:      p.Limiter,
		obsMetrics:   p.ObsMetrics,
	}

	svc.registerAPIRoutes()
	svc.registerAdminRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Payments --------
	api.POST("/payments/orders", ratelimit.GinMiddleware(s.limiter, s.log, "orders", 5.0/60, 5), s.CreateOrder)
	api.POST("/payments/verify", s.VerifyPayment)
	api.GET("/payments", s.ListPayments)
	api.GET("/payments/:id", s.GetPaymentByID)

	// -------- Gateway callbacks --------
	api.POST("/payments/webhooks/:gateway", ratelimit.GinMiddleware(s.limiter, s.log, "webhooks", 30.0/60, 30), s.HandlePaymentWebhook)

	// -------- Invoices --------
	api.GET("/invoices", s.ListInvoices)
	api.GET("/invoices/:id", s.GetInvoiceByID)

	// -------- Statements --------
	api.POST("/statements", s.GenerateStatement)
	api.GET("/statements", s.ListStatements)
	api.GET("/statements/:id", s.GetStatementByID)
	api.POST("/statements/:id/email", s.EmailStatement)

	// -------- Export --------
	api.GET("/export/transactions", s.ExportTransactions)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/admin")

	admin.POST("/payments/:id/refund", s.RefundPayment)
	admin.GET("/invoices/failed", s.ListFailedInvoiceJobs)
	admin.POST("/invoices/:payment_id/retry", s.RetryInvoiceJob)
	admin.POST("/invoices/retry-batch", s.RetryInvoiceJobBatch)
	admin.GET("/queue/metrics", s.GetQueueMetrics)
}
