package repository

import (
	"context"

	"github.com/askroshan/india-angel-forge-sub003/internal/statement/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const selectColumns = `id, number, user_id, period_from, period_to, format,
	currency, total_invested, total_refunded, net_investment, total_tax,
	document_url, emailed_to, generated_at`

func (r *repo) Insert(ctx context.Context, conn *gorm.DB, statement *domain.FinancialStatement) error {
	return conn.WithContext(ctx).Create(statement).Error
}

func (r *repo) UpdateResult(ctx context.Context, conn *gorm.DB, statement *domain.FinancialStatement) error {
	return conn.WithContext(ctx).Exec(
		`UPDATE financial_statements
		 SET currency = ?, total_invested = ?, total_refunded = ?, net_investment = ?, total_tax = ?,
		     document_url = ?, emailed_to = ?, generated_at = ?
		 WHERE id = ?`,
		statement.Currency,
		statement.TotalInvested,
		statement.TotalRefunded,
		statement.NetInvestment,
		statement.TotalTax,
		statement.DocumentURL,
		statement.EmailedTo,
		statement.GeneratedAt,
		statement.ID,
	).Error
}

func (r *repo) FindByID(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*domain.FinancialStatement, error) {
	var item domain.FinancialStatement
	err := conn.WithContext(ctx).Raw(
		`SELECT `+selectColumns+` FROM financial_statements WHERE id = ? LIMIT 1`,
		id,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) ListByUser(ctx context.Context, conn *gorm.DB, userID snowflake.ID) ([]domain.FinancialStatement, error) {
	var items []domain.FinancialStatement
	err := conn.WithContext(ctx).Raw(
		`SELECT `+selectColumns+` FROM financial_statements WHERE user_id = ? ORDER BY generated_at DESC`,
		userID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
