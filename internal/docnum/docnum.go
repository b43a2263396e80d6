// Package docnum allocates gapless per-month document numbers from the
// document_sequences counter table.
package docnum

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

const (
	KindInvoice   = "INV"
	KindStatement = "FS"
)

// Next increments the (kind, period) counter inside the caller's transaction
// and returns a number like INV-2026-08-00042. The UPDATE takes a row lock,
// so concurrent allocations within a period serialize. Two transactions
// racing to create the first row of a month conflict on the primary key; the
// loser's transaction fails and the caller retries.
func Next(ctx context.Context, tx *gorm.DB, kind string, at time.Time) (string, error) {
	period := at.UTC().Format("2006-01")

	res := tx.WithContext(ctx).Exec(
		`UPDATE document_sequences SET last_value = last_value + 1 WHERE kind = ? AND period = ?`,
		kind, period,
	)
	if res.Error != nil {
		return "", res.Error
	}
	if res.RowsAffected == 0 {
		if err := tx.WithContext(ctx).Exec(
			`INSERT INTO document_sequences (kind, period, last_value) VALUES (?, ?, 1)`,
			kind, period,
		).Error; err != nil {
			return "", err
		}
		return format(kind, period, 1), nil
	}

	var row struct {
		LastValue int64
	}
	if err := tx.WithContext(ctx).Raw(
		`SELECT last_value FROM document_sequences WHERE kind = ? AND period = ?`,
		kind, period,
	).Scan(&row).Error; err != nil {
		return "", err
	}
	return format(kind, period, row.LastValue), nil
}

func format(kind, period string, value int64) string {
	return fmt.Sprintf("%s-%s-%05d", kind, period, value)
}
