package domain

import "context"

// AdapterConfig carries per-gateway credentials into an adapter factory.
type AdapterConfig struct {
	Gateway string
	Config  map[string]string
}

// OrderParams is the request an adapter turns into a gateway order.
type OrderParams struct {
	Amount   int64
	Currency string
	Receipt  string
	Notes    map[string]string
}

// GatewayAdapter creates payment orders and verifies gateway-issued
// signatures. VerifySignature is a pure classified outcome: it returns nil or
// ErrInvalidSignature, never panics.
type GatewayAdapter interface {
	Gateway() string
	CreateOrder(ctx context.Context, params OrderParams) (orderID string, err error)
	VerifySignature(orderID, paymentID, signature string) error
}

// AdapterFactory builds adapters for one gateway.
type AdapterFactory interface {
	Gateway() string
	NewAdapter(cfg AdapterConfig) (GatewayAdapter, error)
}
