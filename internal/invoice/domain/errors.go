package domain

import "errors"

var (
	ErrInvoiceNotFound = errors.New("invoice_not_found")
)
