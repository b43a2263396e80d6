package repository

import (
	"context"

	"github.com/askroshan/india-angel-forge-sub003/internal/invoice/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const selectColumns = `id, number, user_id, payment_id, status, amount,
	tax_amount, currency, document_url, issued_at`

func (r *repo) Insert(ctx context.Context, conn *gorm.DB, invoice *domain.Invoice) error {
	return conn.WithContext(ctx).Create(invoice).Error
}

func (r *repo) UpdateDocumentURL(ctx context.Context, conn *gorm.DB, id snowflake.ID, url string) error {
	return conn.WithContext(ctx).Exec(
		`UPDATE invoices SET document_url = ? WHERE id = ?`,
		url, id,
	).Error
}

func (r *repo) FindByID(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*domain.Invoice, error) {
	return r.findOne(ctx, conn, `id = ?`, id)
}

func (r *repo) FindByPaymentID(ctx context.Context, conn *gorm.DB, paymentID snowflake.ID) (*domain.Invoice, error) {
	return r.findOne(ctx, conn, `payment_id = ?`, paymentID)
}

func (r *repo) findOne(ctx context.Context, conn *gorm.DB, where string, arg any) (*domain.Invoice, error) {
	var item domain.Invoice
	query := `SELECT ` + selectColumns + ` FROM invoices WHERE ` + where + ` LIMIT 1`
	if err := conn.WithContext(ctx).Raw(query, arg).Scan(&item).Error; err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) ListByUser(ctx context.Context, conn *gorm.DB, userID snowflake.ID) ([]domain.Invoice, error) {
	var items []domain.Invoice
	err := conn.WithContext(ctx).Raw(
		`SELECT `+selectColumns+` FROM invoices WHERE user_id = ? ORDER BY issued_at DESC`,
		userID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
