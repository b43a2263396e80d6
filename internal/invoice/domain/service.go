package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// Service reads issued invoices.
type Service interface {
	GetByID(ctx context.Context, id snowflake.ID) (*Invoice, error)
	GetByPaymentID(ctx context.Context, paymentID snowflake.ID) (*Invoice, error)
	ListByUser(ctx context.Context, userID snowflake.ID) ([]Invoice, error)
}
