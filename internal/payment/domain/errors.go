package domain

import "errors"

var (
	ErrInvalidAmount       = errors.New("invalid_amount")
	ErrInvalidCurrency     = errors.New("invalid_currency")
	ErrInvalidPurpose      = errors.New("invalid_purpose")
	ErrInvalidGateway      = errors.New("invalid_gateway")
	ErrInvalidSignature    = errors.New("invalid_signature")
	ErrPaymentNotFound     = errors.New("payment_not_found")
	ErrOrderNotFound       = errors.New("order_not_found")
	ErrInvalidTransition   = errors.New("invalid_transition")
	ErrRefundExceedsAmount = errors.New("refund_exceeds_amount")
	ErrGatewayUnavailable  = errors.New("gateway_unavailable")
)
