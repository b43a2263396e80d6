package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository is the raw persistence surface for payments. Callers pass the
// transaction handle so transitions and their locks share one unit of work.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, payment *Payment) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID, forUpdate bool) (*Payment, error)
	FindByOrderRef(ctx context.Context, db *gorm.DB, gateway, orderID string, forUpdate bool) (*Payment, error)
	FindByGatewayPaymentID(ctx context.Context, db *gorm.DB, gateway, gatewayPaymentID string) (*Payment, error)
	Update(ctx context.Context, db *gorm.DB, payment *Payment) error
	List(ctx context.Context, db *gorm.DB, req ListPaymentsRequest) ([]Payment, error)
}
