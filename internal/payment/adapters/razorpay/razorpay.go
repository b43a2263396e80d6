// Package razorpay implements the Razorpay order and signature scheme.
package razorpay

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/askroshan/india-angel-forge-sub003/internal/payment/domain"
)

const defaultBaseURL = "https://api.razorpay.com/v1"

type Factory struct{}

func NewFactory() *Factory { return &Factory{} }

func (f *Factory) Gateway() string { return "razorpay" }

func (f *Factory) NewAdapter(cfg domain.AdapterConfig) (domain.GatewayAdapter, error) {
	keyID := strings.TrimSpace(cfg.Config["key_id"])
	keySecret := strings.TrimSpace(cfg.Config["key_secret"])
	if keyID == "" || keySecret == "" {
		return nil, domain.ErrInvalidGateway
	}
	baseURL := strings.TrimSpace(cfg.Config["base_url"])
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Adapter{
		keyID:     keyID,
		keySecret: keySecret,
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    &http.Client{Timeout: 15 * time.Second},
	}, nil
}

type Adapter struct {
	keyID     string
	keySecret string
	baseURL   string
	client    *http.Client
}

func (a *Adapter) Gateway() string { return "razorpay" }

type orderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt,omitempty"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type orderResponse struct {
	ID string `json:"id"`
}

// CreateOrder registers an order with the gateway and returns its reference.
func (a *Adapter) CreateOrder(ctx context.Context, params domain.OrderParams) (string, error) {
	body, err := json.Marshal(orderRequest{
		Amount:   params.Amount,
		Currency: params.Currency,
		Receipt:  params.Receipt,
		Notes:    params.Notes,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(a.keyID, a.keySecret)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d", domain.ErrGatewayUnavailable, resp.StatusCode)
	}

	var order orderResponse
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}
	if strings.TrimSpace(order.ID) == "" {
		return "", domain.ErrGatewayUnavailable
	}
	return order.ID, nil
}

// VerifySignature checks the HMAC-SHA256 of "orderID|paymentID" issued by the
// gateway on checkout completion. Comparison is constant-time.
func (a *Adapter) VerifySignature(orderID, paymentID, signature string) error {
	signature = strings.TrimSpace(signature)
	if orderID == "" || paymentID == "" || signature == "" {
		return domain.ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(a.keySecret))
	_, _ = mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return domain.ErrInvalidSignature
	}
	return nil
}
