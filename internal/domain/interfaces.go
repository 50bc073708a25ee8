package domain

import (
	"context"
	"time"
)

// Provider is a chat-completion backend able to generate study material text.
type Provider interface {
	// Generate sends the prompt, preceded by an optional system instruction,
	// and returns the generated text with its metrics. On failure it returns
	// a *ProviderError and no partial metrics.
	Generate(ctx context.Context, prompt, system string) (string, Metrics, error)

	// Name returns the provider identifier.
	Name() string

	// Model returns the model this provider instance is configured for.
	Model() string
}

// ProviderRegistry manages configured providers.
type ProviderRegistry interface {
	// Register adds a provider to the registry.
	Register(ctx context.Context, provider Provider) error

	// Get retrieves a provider by name, returning ErrUnknownProvider when
	// the name is not registered.
	Get(ctx context.Context, providerName string) (Provider, error)

	// Names returns all registered provider names in sorted order.
	Names(ctx context.Context) ([]string, error)
}

// PricingRegistry maintains per-(provider, model) pricing information.
type PricingRegistry interface {
	// GetPricing returns the pricing config for a provider/model pair.
	GetPricing(ctx context.Context, provider, model string) (PricingConfig, error)

	// RegisterPricing adds pricing for a provider/model pair.
	RegisterPricing(ctx context.Context, provider, model string, config PricingConfig) error
}

// CostCalculator derives USD cost from token usage.
type CostCalculator interface {
	// Calculate returns the total cost for the given usage. A pricing lookup
	// miss yields cost 0, not an error.
	Calculate(ctx context.Context, provider, model string, inputTokens, outputTokens int) (float64, error)
}

// Store is the local store of record for documents, generated materials and
// benchmark rows. Implementations must serialize writes.
type Store interface {
	SaveDocument(ctx context.Context, doc *Document) (int64, error)
	SaveStudyMaterial(ctx context.Context, documentID int64, result *GenerationResult) (int64, error)
	SaveBenchmarkRow(ctx context.Context, row *BenchmarkRow) (int64, error)

	// GetBenchmarks returns persisted rows, filtered to one document when
	// documentID is non-zero.
	GetBenchmarks(ctx context.Context, documentID int64) ([]BenchmarkRow, error)
	GetAllDocuments(ctx context.Context) ([]Document, error)
	GetStudyMaterials(ctx context.Context, documentID int64) ([]StudyMaterial, error)
	DeleteDocument(ctx context.Context, documentID int64) error
}

// GenerationCache caches generation results keyed by the exact request.
type GenerationCache interface {
	// Get returns the cached result for the request, or ErrCacheMiss.
	Get(ctx context.Context, req *GenerationRequest, provider, model string) (*GenerationResult, error)

	// Set stores a result with the given TTL.
	Set(ctx context.Context, req *GenerationRequest, result *GenerationResult, ttl time.Duration) error
}
