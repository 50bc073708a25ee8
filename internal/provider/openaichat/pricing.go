package openaichat

import (
	"context"
	"fmt"

	"github.com/davidbz/markl/internal/domain"
)

// Prices in USD per 1M tokens.
const (
	gpt35TurboInputPerMTok  = 0.50
	gpt35TurboOutputPerMTok = 1.50

	gpt4InputPerMTok  = 30.00
	gpt4OutputPerMTok = 60.00

	gpt4TurboInputPerMTok  = 10.00
	gpt4TurboOutputPerMTok = 30.00

	llama70BInputPerMTok  = 0.59
	llama70BOutputPerMTok = 0.79

	llama8BInputPerMTok  = 0.05
	llama8BOutputPerMTok = 0.08

	mixtralInputPerMTok  = 0.24
	mixtralOutputPerMTok = 0.24
)

// RegisterDefaultPricing registers the built-in price table for both
// supported backends.
func RegisterDefaultPricing(ctx context.Context, registry domain.PricingRegistry) error {
	table := map[string]map[string]domain.PricingConfig{
		"openai": {
			"gpt-3.5-turbo": {InputPerMTok: gpt35TurboInputPerMTok, OutputPerMTok: gpt35TurboOutputPerMTok},
			"gpt-4":         {InputPerMTok: gpt4InputPerMTok, OutputPerMTok: gpt4OutputPerMTok},
			"gpt-4-turbo":   {InputPerMTok: gpt4TurboInputPerMTok, OutputPerMTok: gpt4TurboOutputPerMTok},
		},
		"groq": {
			"llama-3.1-70b-versatile": {InputPerMTok: llama70BInputPerMTok, OutputPerMTok: llama70BOutputPerMTok},
			"llama-3.1-8b-instant":    {InputPerMTok: llama8BInputPerMTok, OutputPerMTok: llama8BOutputPerMTok},
			"mixtral-8x7b-32768":      {InputPerMTok: mixtralInputPerMTok, OutputPerMTok: mixtralOutputPerMTok},
		},
	}

	for provider, models := range table {
		for model, config := range models {
			if err := registry.RegisterPricing(ctx, provider, model, config); err != nil {
				return fmt.Errorf("failed to register pricing for %s/%s: %w", provider, model, err)
			}
		}
	}

	return nil
}
