// Package payu implements the PayU transaction and response-hash scheme.
// PayU transaction ids are merchant-generated; no remote call is needed to
// open an order.
package payu

import (
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/askroshan/india-angel-forge-sub003/internal/payment/domain"
	"github.com/google/uuid"
)

type Factory struct{}

func NewFactory() *Factory { return &Factory{} }

func (f *Factory) Gateway() string { return "payu" }

func (f *Factory) NewAdapter(cfg domain.AdapterConfig) (domain.GatewayAdapter, error) {
	key := strings.TrimSpace(cfg.Config["merchant_key"])
	salt := strings.TrimSpace(cfg.Config["merchant_salt"])
	if key == "" || salt == "" {
		return nil, domain.ErrInvalidGateway
	}
	return &Adapter{merchantKey: key, merchantSalt: salt}, nil
}

type Adapter struct {
	merchantKey  string
	merchantSalt string
}

func (a *Adapter) Gateway() string { return "payu" }

func (a *Adapter) CreateOrder(ctx context.Context, params domain.OrderParams) (string, error) {
	return "txn_" + strings.ReplaceAll(uuid.NewString(), "-", ""), nil
}

// VerifySignature checks the reverse hash PayU sends with its callback:
// sha512(salt|paymentID|orderID|key), hex encoded. Comparison is
// constant-time.
func (a *Adapter) VerifySignature(orderID, paymentID, signature string) error {
	signature = strings.ToLower(strings.TrimSpace(signature))
	if orderID == "" || paymentID == "" || signature == "" {
		return domain.ErrInvalidSignature
	}

	sum := sha512.Sum512([]byte(a.merchantSalt + "|" + paymentID + "|" + orderID + "|" + a.merchantKey))
	expected := hex.EncodeToString(sum[:])

	if subtle.ConstantTimeCompare([]byte(signature), []byte(expected)) != 1 {
		return domain.ErrInvalidSignature
	}
	return nil
}
