// Package domain contains the notification event vocabulary and the
// append-only email log.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// EmailStatus tracks one dispatch attempt.
type EmailStatus string

const (
	EmailStatusPending EmailStatus = "PENDING"
	EmailStatusSent    EmailStatus = "SENT"
	EmailStatusFailed  EmailStatus = "FAILED"
)

// EmailLog is one row per dispatch attempt. Attempts that fail because the
// provider is unconfigured still get a row; failure to send is a logged fact.
type EmailLog struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID       snowflake.ID `gorm:"not null;index" json:"user_id"`
	Recipient    string       `gorm:"type:text;not null" json:"recipient"`
	Subject      string       `gorm:"type:text;not null" json:"subject"`
	TemplateName string       `gorm:"type:text;not null" json:"template_name"`
	Provider     string       `gorm:"type:text;not null;default:'smtp'" json:"provider"`
	Status       EmailStatus  `gorm:"type:text;not null;default:'PENDING'" json:"status"`
	Error        *string      `gorm:"type:text" json:"error,omitempty"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (EmailLog) TableName() string { return "email_logs" }

// Template names, one per event kind.
const (
	TemplatePaymentInitiated = "payment-initiated"
	TemplatePaymentSuccess   = "payment-success"
	TemplatePaymentFailed    = "payment-failed"
	TemplateRefundProcessed  = "refund-processed"
	TemplateInvoiceReady     = "invoice-ready"
	TemplateStatementReady   = "statement-ready"
)

// Event is a state-transition fact the dispatcher reacts to.
type Event struct {
	Template    string
	UserID      snowflake.ID
	PaymentID   snowflake.ID
	Amount      int64
	Currency    string
	Description string
	Reference   string
	DocumentURL string
	// Extra recipients beyond the owning user (statement emailing).
	AdditionalRecipients []string
	OccurredAt           time.Time
}
