// Package webhook turns raw gateway callbacks into idempotent payment
// transitions. Authenticity and replay decisions live in the payment service;
// this layer only classifies and normalizes the inbound payload.
package webhook

import (
	"context"
	"encoding/json"
	"strings"

	paymentdomain "github.com/askroshan/india-angel-forge-sub003/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log        *zap.Logger
	PaymentSvc paymentdomain.Service
}

type Service struct {
	log        *zap.Logger
	paymentSvc paymentdomain.Service
}

func NewService(p Params) *Service {
	return &Service{
		log:        p.Log.Named("payment.webhook"),
		paymentSvc: p.PaymentSvc,
	}
}

// callbackPayload accepts both our own field names and the checkout-form
// names Razorpay posts back.
type callbackPayload struct {
	OrderID           string `json:"order_id"`
	PaymentID         string `json:"payment_id"`
	Signature         string `json:"signature"`
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
}

func (p callbackPayload) normalize() (orderID, paymentID, signature string) {
	orderID = strings.TrimSpace(p.OrderID)
	if orderID == "" {
		orderID = strings.TrimSpace(p.RazorpayOrderID)
	}
	paymentID = strings.TrimSpace(p.PaymentID)
	if paymentID == "" {
		paymentID = strings.TrimSpace(p.RazorpayPaymentID)
	}
	signature = strings.TrimSpace(p.Signature)
	if signature == "" {
		signature = strings.TrimSpace(p.RazorpaySignature)
	}
	return orderID, paymentID, signature
}

// Ingest validates and applies one gateway callback. Outcomes are classified
// errors, never panics: ErrInvalidSignature, ErrOrderNotFound,
// ErrInvalidGateway, or nil with the resulting payment.
func (s *Service) Ingest(ctx context.Context, gateway string, payload []byte) (paymentdomain.Payment, error) {
	gateway = strings.ToLower(strings.TrimSpace(gateway))
	if gateway == "" {
		return paymentdomain.Payment{}, paymentdomain.ErrInvalidGateway
	}
	if !json.Valid(payload) {
		return paymentdomain.Payment{}, paymentdomain.ErrOrderNotFound
	}

	var body callbackPayload
	if err := json.Unmarshal(payload, &body); err != nil {
		return paymentdomain.Payment{}, paymentdomain.ErrOrderNotFound
	}
	orderID, paymentID, signature := body.normalize()
	if orderID == "" || paymentID == "" {
		return paymentdomain.Payment{}, paymentdomain.ErrOrderNotFound
	}

	payment, err := s.paymentSvc.Verify(ctx, paymentdomain.VerifyRequest{
		OrderID:   orderID,
		PaymentID: paymentID,
		Signature: signature,
		Gateway:   gateway,
	})
	if err != nil {
		s.log.Warn("webhook rejected",
			zap.String("gateway", gateway),
			zap.String("order_id", orderID),
			zap.Error(err),
		)
		return payment, err
	}
	return payment, nil
}
