package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, conn *gorm.DB, invoice *Invoice) error
	UpdateDocumentURL(ctx context.Context, conn *gorm.DB, id snowflake.ID, url string) error
	FindByID(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*Invoice, error)
	FindByPaymentID(ctx context.Context, conn *gorm.DB, paymentID snowflake.ID) (*Invoice, error)
	ListByUser(ctx context.Context, conn *gorm.DB, userID snowflake.ID) ([]Invoice, error)
}
