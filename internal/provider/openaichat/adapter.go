// Package openaichat provides a provider adapter over the official OpenAI
// SDK. One adapter covers every backend speaking the OpenAI chat completions
// API; OpenAI and Groq differ only in base URL, API key and model, so the
// adapter is parameterized by configuration instead of subclassed per
// provider.
package openaichat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/davidbz/markl/internal/domain"
	"github.com/davidbz/markl/internal/observability"
)

// Config contains the settings that distinguish one chat backend from
// another.
type Config struct {
	Name        string
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     int // seconds
}

// Provider implements domain.Provider for OpenAI-compatible chat APIs.
type Provider struct {
	client openai.Client
	config Config
	costs  domain.CostCalculator

	// Last-computed metrics, kept for convenience only; no correctness
	// dependency.
	mu          sync.Mutex
	lastMetrics domain.Metrics
}

// NewProvider creates a provider for the given backend configuration.
func NewProvider(config Config, costs domain.CostCalculator) (*Provider, error) {
	if config.Name == "" {
		return nil, errors.New("provider name is required")
	}
	if config.APIKey == "" {
		return nil, fmt.Errorf("%s API key is required", config.Name)
	}
	if config.Model == "" {
		return nil, fmt.Errorf("%w: no model configured for %s", domain.ErrUnknownModel, config.Name)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
	}

	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	if config.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(time.Duration(config.Timeout)*time.Second))
	}

	return &Provider{
		client: openai.NewClient(opts...),
		config: config,
		costs:  costs,
	}, nil
}

// Generate sends the prompt with an optional system instruction and returns
// the generated text with metrics. Elapsed time is measured around the
// network call; cost is derived from the price table after the call.
func (p *Provider) Generate(ctx context.Context, prompt, system string) (string, domain.Metrics, error) {
	if prompt == "" {
		return "", domain.Metrics{}, errors.New("prompt cannot be empty")
	}

	logger := observability.FromContext(ctx)
	logger.Debug("calling chat completions API",
		observability.String("provider", p.config.Name),
		observability.String("model", p.config.Model),
	)

	params := p.buildParams(prompt, system)

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		logger.Error("chat completions call failed", observability.Error(err))
		return "", domain.Metrics{}, &domain.ProviderError{Provider: p.config.Name, Err: err}
	}
	elapsed := time.Since(start)

	content := ""
	finishReason := ""
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
		finishReason = string(resp.Choices[0].FinishReason)
	}

	inputTokens := int(resp.Usage.PromptTokens)
	outputTokens := int(resp.Usage.CompletionTokens)

	cost, _ := p.costs.Calculate(ctx, p.config.Name, string(resp.Model), inputTokens, outputTokens)

	metrics := domain.Metrics{
		Provider:     p.config.Name,
		Model:        string(resp.Model),
		ResponseTime: elapsed.Seconds(),
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		TotalTokens:  int(resp.Usage.TotalTokens),
		Cost:         cost,
		FinishReason: finishReason,
	}

	p.mu.Lock()
	p.lastMetrics = metrics
	p.mu.Unlock()

	logger.Debug("chat completions call succeeded",
		observability.Int("total_tokens", metrics.TotalTokens),
		observability.Float64("cost", metrics.Cost),
		observability.Duration("elapsed", elapsed),
	)

	return content, metrics, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return p.config.Name
}

// Model returns the configured model.
func (p *Provider) Model() string {
	return p.config.Model
}

// LastMetrics returns the metrics of the most recent call.
func (p *Provider) LastMetrics() domain.Metrics {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastMetrics
}

func (p *Provider) buildParams(prompt, system string) openai.ChatCompletionNewParams {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	messages = append(messages, openai.UserMessage(prompt))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(p.config.Model),
		Messages: messages,
	}

	if p.config.Temperature > 0 {
		params.Temperature = openai.Float(p.config.Temperature)
	}

	if p.config.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(p.config.MaxTokens))
	}

	return params
}
