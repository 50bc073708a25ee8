// Package study exposes the high level generation flow: resolve a
// provider, consult the cache, generate, then persist.
package study

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/davidbz/markl/internal/config"
	"github.com/davidbz/markl/internal/domain"
	"github.com/davidbz/markl/internal/generator"
	"github.com/davidbz/markl/internal/observability"
)

// Service coordinates a single generation request end to end. Cache and
// store are optional; a nil cache always generates, a nil store never
// persists.
type Service struct {
	registry domain.ProviderRegistry
	cache    domain.GenerationCache
	store    domain.Store
	defaults *config.GenerationConfig
	cacheTTL time.Duration
}

// NewService creates a study material service.
func NewService(
	registry domain.ProviderRegistry,
	cache domain.GenerationCache,
	store domain.Store,
	defaults *config.GenerationConfig,
	cacheTTL time.Duration,
) *Service {
	return &Service{
		registry: registry,
		cache:    cache,
		store:    store,
		defaults: defaults,
		cacheTTL: cacheTTL,
	}
}

// Generate produces study material for the request, filling in default
// count and summary length where the caller left them unset. A cache hit
// short-circuits the provider call; cache failures other than a miss are
// logged and treated as misses.
func (s *Service) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationResult, error) {
	if req.Content == "" {
		return nil, errors.New("content cannot be empty")
	}
	if !req.Kind.Valid() {
		return nil, fmt.Errorf("unknown material kind: %q", req.Kind)
	}

	s.applyDefaults(&req)

	provider, err := s.registry.Get(ctx, req.Provider)
	if err != nil {
		return nil, err
	}

	ctx = observability.WithProvider(ctx, provider.Name())
	ctx = observability.WithModel(ctx, provider.Model())
	ctx = observability.WithMaterial(ctx, string(req.Kind))
	logger := observability.FromContext(ctx)

	if s.cache != nil {
		cached, cacheErr := s.cache.Get(ctx, &req, provider.Name(), provider.Model())
		if cacheErr == nil {
			logger.Info("generation cache hit")
			return cached, nil
		}
		if !errors.Is(cacheErr, domain.ErrCacheMiss) {
			logger.Warn("generation cache lookup failed", observability.Error(cacheErr))
		}
	}

	result, err := generator.New(provider).Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	// A result that failed extraction carries its fallback payload; caching
	// it would pin the malformed response for the full TTL.
	if s.cache != nil && result.ParseError == "" {
		if cacheErr := s.cache.Set(ctx, &req, result, s.cacheTTL); cacheErr != nil {
			logger.Warn("failed to cache generation result", observability.Error(cacheErr))
		}
	}

	if s.store != nil && req.DocumentID != 0 {
		if _, saveErr := s.store.SaveStudyMaterial(ctx, req.DocumentID, result); saveErr != nil {
			logger.Warn("failed to persist study material", observability.Error(saveErr))
		}
	}

	logger.Info("study material generated",
		observability.Float64("cost", result.Metrics.Cost),
		observability.Int("total_tokens", result.Metrics.TotalTokens),
	)

	return result, nil
}

// ImportDocument persists a parsed document and returns its id.
func (s *Service) ImportDocument(ctx context.Context, filename, content, fileType string) (int64, error) {
	if s.store == nil {
		return 0, errors.New("no store configured")
	}
	if content == "" {
		return 0, errors.New("content cannot be empty")
	}

	id, err := s.store.SaveDocument(ctx, &domain.Document{
		Filename:  filename,
		Content:   content,
		FileType:  fileType,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to save document: %w", err)
	}

	observability.FromContext(ctx).Info("document imported",
		observability.String("filename", filename),
		observability.Int64("document_id", id),
	)

	return id, nil
}

func (s *Service) applyDefaults(req *domain.GenerationRequest) {
	if s.defaults == nil {
		return
	}
	if req.Count == 0 {
		switch req.Kind {
		case domain.KindFlashcards:
			req.Count = s.defaults.FlashcardCount
		case domain.KindQuiz:
			req.Count = s.defaults.QuizCount
		}
	}
	if req.Kind == domain.KindSummary && req.Length == "" {
		req.Length = domain.SummaryLength(s.defaults.SummaryLength)
	}
}
