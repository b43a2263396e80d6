// Package domain defines the issued-invoice model. An invoice is the tax
// document for one completed payment; exactly one per payment.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type InvoiceStatus string

const (
	InvoiceStatusIssued InvoiceStatus = "ISSUED"
	InvoiceStatusPaid   InvoiceStatus = "PAID"
)

type Invoice struct {
	ID          snowflake.ID  `gorm:"primaryKey" json:"id"`
	Number      string        `gorm:"type:text;not null;uniqueIndex" json:"number"`
	UserID      snowflake.ID  `gorm:"not null;index" json:"user_id"`
	PaymentID   snowflake.ID  `gorm:"not null;uniqueIndex" json:"payment_id"`
	Status      InvoiceStatus `gorm:"type:text;not null;default:'ISSUED'" json:"status"`
	Amount      int64         `gorm:"not null" json:"amount"`
	TaxAmount   int64         `gorm:"not null;default:0" json:"tax_amount"`
	Currency    string        `gorm:"type:text;not null" json:"currency"`
	DocumentURL string        `gorm:"type:text;not null;default:''" json:"document_url"`
	IssuedAt    time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"issued_at"`
}

func (Invoice) TableName() string { return "invoices" }
