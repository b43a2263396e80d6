// Package email sends transactional mail.
package email

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned by the disabled provider. Sends still get an
// email log row recording this failure.
var ErrNotConfigured = errors.New("email_provider_not_configured")

type Provider interface {
	Send(ctx context.Context, to []string, subject, htmlBody string) error
}

// DisabledProvider fails every send. Used when no SMTP host is configured.
type DisabledProvider struct{}

func (DisabledProvider) Send(ctx context.Context, to []string, subject, htmlBody string) error {
	return ErrNotConfigured
}
