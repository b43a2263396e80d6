package adapters

import (
	"strings"

	"github.com/askroshan/india-angel-forge-sub003/internal/payment/domain"
)

// Registry holds one configured adapter per gateway.
type Registry struct {
	adapters map[string]domain.GatewayAdapter
}

func NewRegistry(adapters ...domain.GatewayAdapter) *Registry {
	registry := &Registry{adapters: map[string]domain.GatewayAdapter{}}
	for _, adapter := range adapters {
		if adapter == nil {
			continue
		}
		gateway := strings.ToLower(strings.TrimSpace(adapter.Gateway()))
		if gateway == "" {
			continue
		}
		registry.adapters[gateway] = adapter
	}
	return registry
}

func (r *Registry) GatewayExists(gateway string) bool {
	if r == nil {
		return false
	}
	gateway = strings.ToLower(strings.TrimSpace(gateway))
	_, ok := r.adapters[gateway]
	return ok
}

func (r *Registry) Adapter(gateway string) (domain.GatewayAdapter, error) {
	if r == nil {
		return nil, domain.ErrInvalidGateway
	}
	gateway = strings.ToLower(strings.TrimSpace(gateway))
	adapter, ok := r.adapters[gateway]
	if !ok {
		return nil, domain.ErrInvalidGateway
	}
	return adapter, nil
}
