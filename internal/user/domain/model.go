// Package domain holds the user identity and notification-preference surface
// the pipeline consumes. Account management itself lives elsewhere.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type User struct {
	ID              snowflake.ID `gorm:"primaryKey" json:"id"`
	Email           string       `gorm:"type:text;not null;uniqueIndex" json:"email"`
	FullName        string       `gorm:"type:text;not null" json:"full_name"`
	EmailPayments   bool         `gorm:"not null;default:true" json:"email_payments"`
	EmailStatements bool         `gorm:"not null;default:true" json:"email_statements"`
	CreatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (User) TableName() string { return "users" }

var ErrUserNotFound = errors.New("user_not_found")

type Repository interface {
	FindByID(ctx context.Context, id snowflake.ID) (*User, error)
}
