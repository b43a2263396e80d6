package domain

import (
	"context"
	"errors"
)

// Publisher hands an event to the dispatcher without blocking the caller's
// state transition. Delivery is at-least-once; outcomes land in email_logs.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// Dispatcher resolves preferences and templates and performs the send.
type Dispatcher interface {
	Publisher
	Dispatch(ctx context.Context, event Event) error
}

var (
	ErrProviderNotConfigured = errors.New("email_provider_not_configured")
	ErrUnknownTemplate       = errors.New("unknown_template")
)
