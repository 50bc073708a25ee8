package domain

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// InMemoryPricingRegistry stores pricing configs in memory, keyed by
// provider and model.
type InMemoryPricingRegistry struct {
	mu      sync.RWMutex
	pricing map[string]PricingConfig
}

// NewInMemoryPricingRegistry creates a new in-memory pricing registry.
func NewInMemoryPricingRegistry() *InMemoryPricingRegistry {
	return &InMemoryPricingRegistry{
		mu:      sync.RWMutex{},
		pricing: make(map[string]PricingConfig),
	}
}

// GetPricing retrieves pricing for a provider/model pair.
func (r *InMemoryPricingRegistry) GetPricing(
	_ context.Context,
	provider, model string,
) (PricingConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	config, exists := r.pricing[pricingKey(provider, model)]
	if !exists {
		return PricingConfig{}, fmt.Errorf("pricing not found for %s/%s", provider, model)
	}

	return config, nil
}

// RegisterPricing adds pricing for a provider/model pair.
func (r *InMemoryPricingRegistry) RegisterPricing(
	_ context.Context,
	provider, model string,
	config PricingConfig,
) error {
	if provider == "" {
		return errors.New("provider cannot be empty")
	}
	if model == "" {
		return errors.New("model cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.pricing[pricingKey(provider, model)] = config
	return nil
}

func pricingKey(provider, model string) string {
	return provider + "/" + model
}
