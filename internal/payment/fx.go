package payment

import (
	"github.com/askroshan/india-angel-forge-sub003/internal/config"
	"github.com/askroshan/india-angel-forge-sub003/internal/payment/adapters"
	"github.com/askroshan/india-angel-forge-sub003/internal/payment/adapters/payu"
	"github.com/askroshan/india-angel-forge-sub003/internal/payment/adapters/razorpay"
	paymentdomain "github.com/askroshan/india-angel-forge-sub003/internal/payment/domain"
	"github.com/askroshan/india-angel-forge-sub003/internal/payment/repository"
	"github.com/askroshan/india-angel-forge-sub003/internal/payment/service"
	"github.com/askroshan/india-angel-forge-sub003/internal/payment/webhook"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("payment",
	fx.Provide(repository.Provide),
	fx.Provide(NewAdapterRegistry),
	fx.Provide(service.NewService),
	fx.Provide(webhook.NewService),
)

// NewAdapterRegistry builds one adapter per gateway with configured
// credentials. Gateways without credentials are left out of the registry.
func NewAdapterRegistry(cfg config.Config, log *zap.Logger) *adapters.Registry {
	var active []paymentdomain.GatewayAdapter

	if cfg.RazorpayKeyID != "" && cfg.RazorpayKeySecret != "" {
		adapter, err := razorpay.NewFactory().NewAdapter(paymentdomain.AdapterConfig{
			Gateway: "razorpay",
			Config: map[string]string{
				"key_id":     cfg.RazorpayKeyID,
				"key_secret": cfg.RazorpayKeySecret,
			},
		})
		if err != nil {
			log.Warn("razorpay adapter unavailable", zap.Error(err))
		} else {
			active = append(active, adapter)
		}
	}

	if cfg.PayUMerchantKey != "" && cfg.PayUMerchantSalt != "" {
		adapter, err := payu.NewFactory().NewAdapter(paymentdomain.AdapterConfig{
			Gateway: "payu",
			Config: map[string]string{
				"merchant_key":  cfg.PayUMerchantKey,
				"merchant_salt": cfg.PayUMerchantSalt,
			},
		})
		if err != nil {
			log.Warn("payu adapter unavailable", zap.Error(err))
		} else {
			active = append(active, adapter)
		}
	}

	if len(active) == 0 {
		log.Warn("no payment gateways configured")
	}
	return adapters.NewRegistry(active...)
}
