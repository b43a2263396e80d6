// Package storage persists rendered documents and hands back a stable URL.
package storage

import "context"

// Provider stores a document under key and returns the URL it is served at.
type Provider interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
