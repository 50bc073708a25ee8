// Package redis implements the generation cache on Redis with
// exact-match request keys.
package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/davidbz/markl/internal/domain"
	"github.com/davidbz/markl/internal/observability"
)

const keyPrefix = "markl:gen:"

// Cache is a domain.GenerationCache on a Redis client. Two requests map
// to the same entry only when provider, model, kind, count, length and
// the full content are identical.
type Cache struct {
	client *redis.Client
}

// NewCache creates a Redis-backed generation cache.
func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Get returns the cached result for the request, or domain.ErrCacheMiss.
func (c *Cache) Get(ctx context.Context, req *domain.GenerationRequest, provider, model string) (*domain.GenerationResult, error) {
	key := cacheKey(req, provider, model)

	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache lookup failed: %w", err)
	}

	var result domain.GenerationResult
	if err := json.Unmarshal(data, &result); err != nil {
		// A corrupt entry behaves like a miss so generation proceeds.
		observability.FromContext(ctx).Warn("dropping corrupt cache entry",
			observability.Error(err))
		_ = c.client.Del(ctx, key).Err()
		return nil, domain.ErrCacheMiss
	}

	return &result, nil
}

// Set stores a result under the request's exact-match key.
func (c *Cache) Set(ctx context.Context, req *domain.GenerationRequest, result *domain.GenerationResult, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to serialize result: %w", err)
	}

	key := cacheKey(req, result.Provider, result.Model)
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("cache store failed: %w", err)
	}

	return nil
}

// cacheKey hashes every field that affects the generated output.
func cacheKey(req *domain.GenerationRequest, provider, model string) string {
	h := sha256.New()
	h.Write([]byte(provider))
	h.Write([]byte{0})
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(req.Kind))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(req.Count)))
	h.Write([]byte{0})
	h.Write([]byte(req.Length))
	h.Write([]byte{0})
	h.Write([]byte(req.Content))

	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}
