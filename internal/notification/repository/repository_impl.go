package repository

import (
	"context"

	"github.com/askroshan/india-angel-forge-sub003/internal/notification/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository persists email log rows.
type Repository interface {
	Insert(ctx context.Context, conn *gorm.DB, log *domain.EmailLog) error
	MarkOutcome(ctx context.Context, conn *gorm.DB, log *domain.EmailLog) error
	ListByUser(ctx context.Context, conn *gorm.DB, userID snowflake.ID) ([]domain.EmailLog, error)
}

type repo struct{}

func Provide() Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, conn *gorm.DB, log *domain.EmailLog) error {
	return conn.WithContext(ctx).Create(log).Error
}

func (r *repo) MarkOutcome(ctx context.Context, conn *gorm.DB, log *domain.EmailLog) error {
	return conn.WithContext(ctx).Exec(
		`UPDATE email_logs SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		log.Status,
		log.Error,
		log.UpdatedAt,
		log.ID,
	).Error
}

func (r *repo) ListByUser(ctx context.Context, conn *gorm.DB, userID snowflake.ID) ([]domain.EmailLog, error) {
	var items []domain.EmailLog
	err := conn.WithContext(ctx).Raw(
		`SELECT id, user_id, recipient, subject, template_name, provider,
		        status, error, created_at, updated_at
		 FROM email_logs WHERE user_id = ? ORDER BY created_at DESC`,
		userID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
