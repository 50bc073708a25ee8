package domain

import (
	"context"
	"errors"
)

const tokensPerMillion = 1_000_000.0

// StandardCostCalculator implements token-based cost calculation against a
// pricing registry.
type StandardCostCalculator struct {
	pricingRegistry PricingRegistry
}

// NewStandardCostCalculator creates a new cost calculator.
func NewStandardCostCalculator(registry PricingRegistry) *StandardCostCalculator {
	return &StandardCostCalculator{
		pricingRegistry: registry,
	}
}

// Calculate computes the total cost based on token usage and model pricing.
// A missing (provider, model) pair yields cost 0, not an error.
func (c *StandardCostCalculator) Calculate(
	ctx context.Context,
	provider, model string,
	inputTokens, outputTokens int,
) (float64, error) {
	if provider == "" {
		return 0, errors.New("provider cannot be empty")
	}
	if model == "" {
		return 0, errors.New("model cannot be empty")
	}

	pricing, err := c.pricingRegistry.GetPricing(ctx, provider, model)
	if err != nil {
		// Unknown pricing is an explicit non-fatal fallback.
		//nolint:nilerr // Intentionally returning nil to allow requests with unknown pricing
		return 0, nil
	}

	inputCost := float64(inputTokens) / tokensPerMillion * pricing.InputPerMTok
	outputCost := float64(outputTokens) / tokensPerMillion * pricing.OutputPerMTok

	return inputCost + outputCost, nil
}
