package domain

import (
	"errors"
	"fmt"
)

// ErrUnknownProvider indicates a provider name missing from configuration.
// Raised before any network call is made.
var ErrUnknownProvider = errors.New("unknown provider")

// ErrUnknownModel indicates a model name missing from configuration.
var ErrUnknownModel = errors.New("unknown model")

// ErrCacheMiss indicates no cached entry was found.
var ErrCacheMiss = errors.New("cache miss")

// ProviderError wraps a transport, auth or API failure with the provider
// name attached. It is never retried automatically and is fatal to that
// one request only.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s API error: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
