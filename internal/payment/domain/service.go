package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

type CreateOrderRequest struct {
	UserID      snowflake.ID   `json:"user_id"`
	Amount      int64          `json:"amount"`
	Currency    string         `json:"currency"`
	Purpose     PaymentPurpose `json:"type"`
	Gateway     string         `json:"gateway"`
	Description string         `json:"description"`
}

type CreateOrderResponse struct {
	PaymentID snowflake.ID `json:"payment_id"`
	OrderID   string       `json:"order_id"`
}

type VerifyRequest struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
	Gateway   string `json:"gateway"`
}

type RefundRequest struct {
	PaymentID snowflake.ID `json:"payment_id"`
	Amount    int64        `json:"amount"`
	Reason    string       `json:"reason"`
}

type ListPaymentsRequest struct {
	UserID snowflake.ID
	From   *time.Time
	To     *time.Time
	Status PaymentStatus
}

// Service owns payment lifecycle transitions.
type Service interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (CreateOrderResponse, error)
	Verify(ctx context.Context, req VerifyRequest) (Payment, error)
	Refund(ctx context.Context, req RefundRequest) (Payment, error)
	GetByID(ctx context.Context, id snowflake.ID) (Payment, error)
	List(ctx context.Context, req ListPaymentsRequest) ([]Payment, error)
}
