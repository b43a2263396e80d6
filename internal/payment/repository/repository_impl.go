package repository

import (
	"context"

	"github.com/askroshan/india-angel-forge-sub003/internal/payment/domain"
	"github.com/askroshan/india-angel-forge-sub003/pkg/db"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const selectColumns = `id, user_id, amount, currency, purpose, gateway,
	gateway_order_id, gateway_payment_id, status, description,
	refund_amount, refund_reason, created_at, completed_at, refunded_at`

func (r *repo) Insert(ctx context.Context, conn *gorm.DB, payment *domain.Payment) error {
	return conn.WithContext(ctx).Create(payment).Error
}

func (r *repo) FindByID(ctx context.Context, conn *gorm.DB, id snowflake.ID, forUpdate bool) (*domain.Payment, error) {
	return r.findOne(ctx, conn, `id = ?`, []any{id}, forUpdate)
}

func (r *repo) FindByOrderRef(ctx context.Context, conn *gorm.DB, gateway, orderID string, forUpdate bool) (*domain.Payment, error) {
	return r.findOne(ctx, conn, `gateway = ? AND gateway_order_id = ?`, []any{gateway, orderID}, forUpdate)
}

func (r *repo) FindByGatewayPaymentID(ctx context.Context, conn *gorm.DB, gateway, gatewayPaymentID string) (*domain.Payment, error) {
	return r.findOne(ctx, conn, `gateway = ? AND gateway_payment_id = ?`, []any{gateway, gatewayPaymentID}, false)
}

func (r *repo) findOne(ctx context.Context, conn *gorm.DB, where string, args []any, forUpdate bool) (*domain.Payment, error) {
	query := `SELECT ` + selectColumns + ` FROM payments WHERE ` + where + ` LIMIT 1`
	// Plain FOR UPDATE on a single row: concurrent transitions wait rather
	// than skip. SQLite serializes writers on its own.
	if forUpdate && db.LockClause(conn) != "" {
		query += " FOR UPDATE"
	}
	var item domain.Payment
	if err := conn.WithContext(ctx).Raw(query, args...).Scan(&item).Error; err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) Update(ctx context.Context, conn *gorm.DB, payment *domain.Payment) error {
	return conn.WithContext(ctx).Exec(
		`UPDATE payments
		 SET gateway_payment_id = ?, status = ?, refund_amount = ?, refund_reason = ?,
		     completed_at = ?, refunded_at = ?
		 WHERE id = ?`,
		payment.GatewayPaymentID,
		payment.Status,
		payment.RefundAmount,
		payment.RefundReason,
		payment.CompletedAt,
		payment.RefundedAt,
		payment.ID,
	).Error
}

func (r *repo) List(ctx context.Context, conn *gorm.DB, req domain.ListPaymentsRequest) ([]domain.Payment, error) {
	query := conn.WithContext(ctx).Model(&domain.Payment{})
	if req.UserID != 0 {
		query = query.Where("user_id = ?", req.UserID)
	}
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.From != nil {
		query = query.Where("created_at >= ?", *req.From)
	}
	if req.To != nil {
		query = query.Where("created_at <= ?", *req.To)
	}

	var payments []domain.Payment
	if err := query.Order("created_at ASC, id ASC").Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}
