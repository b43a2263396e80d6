// Package domain defines financial statements: per-investor summaries of
// payment activity over a period, rendered to PDF on demand.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type StatementFormat string

const (
	FormatSummary  StatementFormat = "SUMMARY"
	FormatDetailed StatementFormat = "DETAILED"
)

func ValidFormat(f StatementFormat) bool {
	return f == FormatSummary || f == FormatDetailed
}

type FinancialStatement struct {
	ID            snowflake.ID    `gorm:"primaryKey" json:"id"`
	Number        string          `gorm:"type:text;not null;uniqueIndex" json:"number"`
	UserID        snowflake.ID    `gorm:"not null;index" json:"user_id"`
	PeriodFrom    time.Time       `gorm:"not null" json:"period_from"`
	PeriodTo      time.Time       `gorm:"not null" json:"period_to"`
	Format        StatementFormat `gorm:"type:text;not null" json:"format"`
	Currency      string          `gorm:"type:text;not null;default:'INR'" json:"currency"`
	TotalInvested int64           `gorm:"not null;default:0" json:"total_invested"`
	TotalRefunded int64           `gorm:"not null;default:0" json:"total_refunded"`
	NetInvestment int64           `gorm:"not null;default:0" json:"net_investment"`
	TotalTax      int64           `gorm:"not null;default:0" json:"total_tax"`
	DocumentURL   string          `gorm:"type:text;not null;default:''" json:"document_url"`
	EmailedTo     datatypes.JSON  `gorm:"type:text;not null;default:'[]'" json:"emailed_to"`
	GeneratedAt   time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"generated_at"`
}

func (FinancialStatement) TableName() string { return "financial_statements" }

var (
	ErrStatementNotFound = errors.New("statement_not_found")
	ErrStatementNotReady = errors.New("statement_not_ready")
	ErrInvalidPeriod     = errors.New("invalid_period")
	ErrInvalidFormat     = errors.New("invalid_format")
	ErrNoRecipients      = errors.New("invalid_recipients")
)

// GenerateRequest asks for a statement covering [From, To].
type GenerateRequest struct {
	UserID  snowflake.ID    `json:"user_id"`
	From    time.Time       `json:"from"`
	To      time.Time       `json:"to"`
	Format  StatementFormat `json:"format"`
	EmailTo []string        `json:"email_to,omitempty"`
}

// EmailRequest re-sends a rendered statement to explicit recipients.
type EmailRequest struct {
	To               []string `json:"to"`
	AdditionalEmails []string `json:"additional_emails,omitempty"`
}

// Service creates statement requests and reads finished statements.
// Generation itself runs on the document queue.
type Service interface {
	Generate(ctx context.Context, req GenerateRequest) (*FinancialStatement, error)
	Email(ctx context.Context, id snowflake.ID, req EmailRequest) (*FinancialStatement, error)
	GetByID(ctx context.Context, id snowflake.ID) (*FinancialStatement, error)
	ListByUser(ctx context.Context, userID snowflake.ID) ([]FinancialStatement, error)
}

type Repository interface {
	Insert(ctx context.Context, conn *gorm.DB, statement *FinancialStatement) error
	UpdateResult(ctx context.Context, conn *gorm.DB, statement *FinancialStatement) error
	FindByID(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*FinancialStatement, error)
	ListByUser(ctx context.Context, conn *gorm.DB, userID snowflake.ID) ([]FinancialStatement, error)
}
