package domain

// PricingConfig contains model pricing information.
type PricingConfig struct {
	InputPerMTok  float64 // USD per 1M input tokens
	OutputPerMTok float64 // USD per 1M output tokens
}
