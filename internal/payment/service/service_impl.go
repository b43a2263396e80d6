package service

import (
	"context"
	"strings"

	"github.com/askroshan/india-angel-forge-sub003/internal/clock"
	"github.com/askroshan/india-angel-forge-sub003/internal/config"
	docgendomain "github.com/askroshan/india-angel-forge-sub003/internal/docgen/domain"
	notifdomain "github.com/askroshan/india-angel-forge-sub003/internal/notification/domain"
	obsmetrics "github.com/askroshan/india-angel-forge-sub003/internal/observability/metrics"
	"github.com/askroshan/india-angel-forge-sub003/internal/payment/adapters"
	paymentdomain "github.com/askroshan/india-angel-forge-sub003/internal/payment/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Cfg        config.Config
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       paymentdomain.Repository
	Adapters   *adapters.Registry
	Enqueuer   docgendomain.Enqueuer
	Publisher  notifdomain.Publisher
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	cfg        config.Config
	genID      *snowflake.Node
	clock      clock.Clock
	repo       paymentdomain.Repository
	adapters   *adapters.Registry
	enqueuer   docgendomain.Enqueuer
	publisher  notifdomain.Publisher
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) paymentdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("payment.service"),
		cfg:        p.Cfg,
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		adapters:   p.Adapters,
		enqueuer:   p.Enqueuer,
		publisher:  p.Publisher,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) CreateOrder(ctx context.Context, req paymentdomain.CreateOrderRequest) (paymentdomain.CreateOrderResponse, error) {
	if req.Amount <= 0 {
		return paymentdomain.CreateOrderResponse{}, paymentdomain.ErrInvalidAmount
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if !paymentdomain.SupportedCurrencies[currency] {
		return paymentdomain.CreateOrderResponse{}, paymentdomain.ErrInvalidCurrency
	}
	if !paymentdomain.ValidPurpose(req.Purpose) {
		return paymentdomain.CreateOrderResponse{}, paymentdomain.ErrInvalidPurpose
	}
	gateway := strings.ToLower(strings.TrimSpace(req.Gateway))
	adapter, err := s.adapters.Adapter(gateway)
	if err != nil {
		return paymentdomain.CreateOrderResponse{}, err
	}

	id := s.genID.Generate()
	orderCtx, cancel := context.WithTimeout(ctx, s.cfg.GatewayTimeout)
	defer cancel()
	orderID, err := adapter.CreateOrder(orderCtx, paymentdomain.OrderParams{
		Amount:   req.Amount,
		Currency: currency,
		Receipt:  id.String(),
		Notes:    map[string]string{"purpose": string(req.Purpose)},
	})
	if err != nil {
		return paymentdomain.CreateOrderResponse{}, err
	}

	payment := paymentdomain.Payment{
		ID:             id,
		UserID:         req.UserID,
		Amount:         req.Amount,
		Currency:       currency,
		Purpose:        req.Purpose,
		Gateway:        gateway,
		GatewayOrderID: orderID,
		Status:         paymentdomain.PaymentStatusPending,
		Description:    strings.TrimSpace(req.Description),
		CreatedAt:      s.clock.Now(),
	}
	if err := s.repo.Insert(ctx, s.db, &payment); err != nil {
		return paymentdomain.CreateOrderResponse{}, err
	}

	s.recordTransition(paymentdomain.PaymentStatusPending)
	s.publisher.Publish(ctx, notifdomain.Event{
		Template:    notifdomain.TemplatePaymentInitiated,
		UserID:      payment.UserID,
		PaymentID:   payment.ID,
		Amount:      payment.Amount,
		Currency:    payment.Currency,
		Description: payment.Description,
		Reference:   payment.GatewayOrderID,
		OccurredAt:  payment.CreatedAt,
	})

	s.log.Info("order created",
		zap.String("payment_id", payment.ID.String()),
		zap.String("gateway", gateway),
		zap.Int64("amount", payment.Amount),
	)
	return paymentdomain.CreateOrderResponse{PaymentID: payment.ID, OrderID: orderID}, nil
}

// Verify applies a gateway confirmation to the payment bound to the order
// reference. Re-delivery of an already applied confirmation is a no-op that
// returns the prior result.
func (s *Service) Verify(ctx context.Context, req paymentdomain.VerifyRequest) (paymentdomain.Payment, error) {
	gateway := strings.ToLower(strings.TrimSpace(req.Gateway))
	adapter, err := s.adapters.Adapter(gateway)
	if err != nil {
		return paymentdomain.Payment{}, err
	}
	orderID := strings.TrimSpace(req.OrderID)
	gatewayPaymentID := strings.TrimSpace(req.PaymentID)
	if orderID == "" || gatewayPaymentID == "" {
		return paymentdomain.Payment{}, paymentdomain.ErrOrderNotFound
	}

	var result paymentdomain.Payment
	var verifyErr error
	var transitioned bool
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payment, err := s.repo.FindByOrderRef(ctx, tx, gateway, orderID, true)
		if err != nil {
			return err
		}
		if payment == nil {
			return paymentdomain.ErrOrderNotFound
		}

		switch payment.Status {
		case paymentdomain.PaymentStatusCompleted, paymentdomain.PaymentStatusRefunded:
			// Webhook re-delivery for an applied confirmation.
			if payment.GatewayPaymentID != nil && *payment.GatewayPaymentID == gatewayPaymentID {
				result = *payment
				return nil
			}
			return paymentdomain.ErrInvalidTransition
		case paymentdomain.PaymentStatusFailed:
			return paymentdomain.ErrInvalidTransition
		}

		if err := adapter.VerifySignature(orderID, gatewayPaymentID, req.Signature); err != nil {
			payment.Status = paymentdomain.PaymentStatusFailed
			if updateErr := s.repo.Update(ctx, tx, payment); updateErr != nil {
				return updateErr
			}
			result = *payment
			verifyErr = paymentdomain.ErrInvalidSignature
			return nil
		}

		now := s.clock.Now()
		payment.Status = paymentdomain.PaymentStatusCompleted
		payment.GatewayPaymentID = &gatewayPaymentID
		payment.CompletedAt = &now
		if err := s.repo.Update(ctx, tx, payment); err != nil {
			return err
		}
		result = *payment
		transitioned = true
		return nil
	})
	if txErr != nil {
		s.recordWebhookOutcome(gateway, "error")
		return paymentdomain.Payment{}, txErr
	}

	// Side effects live outside the transaction: a failed enqueue or send
	// never rolls back the state transition. Re-deliveries skip them.
	if verifyErr != nil {
		s.recordTransition(paymentdomain.PaymentStatusFailed)
		s.recordWebhookOutcome(gateway, "invalid_signature")
		s.publisher.Publish(ctx, notifdomain.Event{
			Template:   notifdomain.TemplatePaymentFailed,
			UserID:     result.UserID,
			PaymentID:  result.ID,
			Amount:     result.Amount,
			Currency:   result.Currency,
			Reference:  result.GatewayOrderID,
			OccurredAt: s.clock.Now(),
		})
		return result, verifyErr
	}

	if transitioned {
		if _, err := s.enqueuer.Enqueue(ctx, docgendomain.JobKindInvoice, result.ID, nil); err != nil {
			s.log.Error("enqueue invoice generation failed",
				zap.String("payment_id", result.ID.String()),
				zap.Error(err),
			)
		}
		s.recordTransition(paymentdomain.PaymentStatusCompleted)
		s.recordWebhookOutcome(gateway, "verified")
		s.publisher.Publish(ctx, notifdomain.Event{
			Template:   notifdomain.TemplatePaymentSuccess,
			UserID:     result.UserID,
			PaymentID:  result.ID,
			Amount:     result.Amount,
			Currency:   result.Currency,
			Reference:  result.GatewayOrderID,
			OccurredAt: s.clock.Now(),
		})
	} else {
		s.recordWebhookOutcome(gateway, "duplicate")
	}
	return result, nil
}

// Refund moves a COMPLETED payment to REFUNDED. Concurrent refunds of the
// same payment serialize on the row lock; the loser sees a non-COMPLETED
// status and fails validation.
func (s *Service) Refund(ctx context.Context, req paymentdomain.RefundRequest) (paymentdomain.Payment, error) {
	if req.Amount <= 0 {
		return paymentdomain.Payment{}, paymentdomain.ErrInvalidAmount
	}

	var result paymentdomain.Payment
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payment, err := s.repo.FindByID(ctx, tx, req.PaymentID, true)
		if err != nil {
			return err
		}
		if payment == nil {
			return paymentdomain.ErrPaymentNotFound
		}
		if payment.Status != paymentdomain.PaymentStatusCompleted {
			return paymentdomain.ErrInvalidTransition
		}
		if req.Amount > payment.Amount {
			return paymentdomain.ErrRefundExceedsAmount
		}

		now := s.clock.Now()
		reason := strings.TrimSpace(req.Reason)
		payment.Status = paymentdomain.PaymentStatusRefunded
		payment.RefundAmount = &req.Amount
		payment.RefundReason = &reason
		payment.RefundedAt = &now
		if err := s.repo.Update(ctx, tx, payment); err != nil {
			return err
		}
		result = *payment
		return nil
	})
	if txErr != nil {
		return paymentdomain.Payment{}, txErr
	}

	s.recordTransition(paymentdomain.PaymentStatusRefunded)
	s.publisher.Publish(ctx, notifdomain.Event{
		Template:   notifdomain.TemplateRefundProcessed,
		UserID:     result.UserID,
		PaymentID:  result.ID,
		Amount:     *result.RefundAmount,
		Currency:   result.Currency,
		Reference:  result.GatewayOrderID,
		OccurredAt: s.clock.Now(),
	})

	s.log.Info("refund processed",
		zap.String("payment_id", result.ID.String()),
		zap.Int64("amount", *result.RefundAmount),
	)
	return result, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (paymentdomain.Payment, error) {
	payment, err := s.repo.FindByID(ctx, s.db, id, false)
	if err != nil {
		return paymentdomain.Payment{}, err
	}
	if payment == nil {
		return paymentdomain.Payment{}, paymentdomain.ErrPaymentNotFound
	}
	return *payment, nil
}

func (s *Service) List(ctx context.Context, req paymentdomain.ListPaymentsRequest) ([]paymentdomain.Payment, error) {
	return s.repo.List(ctx, s.db, req)
}

func (s *Service) recordTransition(status paymentdomain.PaymentStatus) {
	if s.obsMetrics == nil {
		return
	}
	s.obsMetrics.PaymentTransitions.WithLabelValues(string(status)).Inc()
}

func (s *Service) recordWebhookOutcome(gateway, outcome string) {
	if s.obsMetrics == nil {
		return
	}
	s.obsMetrics.WebhookOutcomes.WithLabelValues(gateway, outcome).Inc()
}
