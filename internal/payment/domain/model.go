// Package domain contains persistence models for the payment ledger.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// PaymentStatus represents payment lifecycle states.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
)

// PaymentPurpose tags what a payment is for.
type PaymentPurpose string

const (
	PurposeMembershipFee     PaymentPurpose = "MEMBERSHIP_FEE"
	PurposeEventRegistration PaymentPurpose = "EVENT_REGISTRATION"
	PurposeDealCommitment    PaymentPurpose = "DEAL_COMMITMENT"
	PurposeSubscription      PaymentPurpose = "SUBSCRIPTION"
	PurposeOther             PaymentPurpose = "OTHER"
)

// ValidPurpose reports whether p is a known purpose tag.
func ValidPurpose(p PaymentPurpose) bool {
	switch p {
	case PurposeMembershipFee, PurposeEventRegistration, PurposeDealCommitment, PurposeSubscription, PurposeOther:
		return true
	}
	return false
}

// SupportedCurrencies are the currencies payments may be created in.
// Currency is immutable after creation.
var SupportedCurrencies = map[string]bool{
	"INR": true,
	"USD": true,
}

// Payment is a monetary intent and its outcome. Rows are never deleted,
// only superseded by status.
type Payment struct {
	ID               snowflake.ID   `gorm:"primaryKey" json:"id"`
	UserID           snowflake.ID   `gorm:"not null;index" json:"user_id"`
	Amount           int64          `gorm:"not null" json:"amount"`
	Currency         string         `gorm:"type:text;not null" json:"currency"`
	Purpose          PaymentPurpose `gorm:"type:text;not null" json:"purpose"`
	Gateway          string         `gorm:"type:text;not null;uniqueIndex:ux_payments_gateway_order,priority:1" json:"gateway"`
	GatewayOrderID   string         `gorm:"type:text;not null;uniqueIndex:ux_payments_gateway_order,priority:2" json:"gateway_order_id"`
	GatewayPaymentID *string        `gorm:"type:text" json:"gateway_payment_id,omitempty"`
	Status           PaymentStatus  `gorm:"type:text;not null;default:'PENDING';index" json:"status"`
	Description      string         `gorm:"type:text;not null;default:''" json:"description"`
	RefundAmount     *int64         `gorm:"" json:"refund_amount,omitempty"`
	RefundReason     *string        `gorm:"type:text" json:"refund_reason,omitempty"`
	CreatedAt        time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	CompletedAt      *time.Time     `gorm:"" json:"completed_at,omitempty"`
	RefundedAt       *time.Time     `gorm:"" json:"refunded_at,omitempty"`
}

// TableName sets the database table name.
func (Payment) TableName() string { return "payments" }

// Terminal reports whether no further transition except refund is possible.
func (p *Payment) Terminal() bool {
	return p.Status == PaymentStatusFailed || p.Status == PaymentStatusRefunded
}
