// Package echo provides an offline testing provider that fabricates
// schema-valid study material responses without external API calls. It
// inspects the prompt for the schema key the generator embeds, builds a
// deterministic payload of the requested size, and wraps it in a markdown
// fence the way real models tend to despite JSON-only instructions.
package echo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/davidbz/markl/internal/domain"
	"github.com/davidbz/markl/internal/observability"
)

const (
	// ProviderName is the name the echo provider registers under.
	ProviderName = "echo"

	modelName    = "echo-1"
	defaultItems = 3
)

// Provider implements the domain.Provider interface for offline use.
type Provider struct {
	name string
}

// NewProvider creates a new echo provider.
// No configuration is required as this provider operates entirely in-memory.
func NewProvider() *Provider {
	return &Provider{name: ProviderName}
}

// Generate fabricates a response for the material schema found in the prompt.
func (p *Provider) Generate(ctx context.Context, prompt, system string) (string, domain.Metrics, error) {
	if prompt == "" {
		return "", domain.Metrics{}, errors.New("prompt cannot be empty")
	}

	logger := observability.FromContext(ctx)
	logger.Debug("echoing request")

	start := time.Now()

	count := requestedCount(prompt)
	topic := firstWord(prompt)

	payload := buildPayload(prompt, count, topic)
	body, err := json.Marshal(payload)
	if err != nil {
		return "", domain.Metrics{}, &domain.ProviderError{Provider: p.name, Err: err}
	}

	content := "```json\n" + string(body) + "\n```"

	promptTokens := countTokens(prompt) + countTokens(system)
	completionTokens := countTokens(content)

	metrics := domain.Metrics{
		Provider:     p.name,
		Model:        modelName,
		ResponseTime: time.Since(start).Seconds(),
		InputTokens:  promptTokens,
		OutputTokens: completionTokens,
		TotalTokens:  promptTokens + completionTokens,
		Cost:         0.0, // echo has no pricing entry
		FinishReason: "stop",
	}

	logger.Debug("echo completed",
		observability.Int("prompt_tokens", promptTokens),
		observability.Int("completion_tokens", completionTokens),
	)

	return content, metrics, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return p.name
}

// Model returns the echo model name.
func (p *Provider) Model() string {
	return modelName
}

// buildPayload picks the payload shape from the schema key present in the
// prompt. Study guides are checked before summaries since both prompts
// mention an overview.
func buildPayload(prompt string, count int, topic string) any {
	switch {
	case strings.Contains(prompt, `"flashcards"`):
		cards := make([]domain.Flashcard, count)
		for i := range cards {
			cards[i] = domain.Flashcard{
				Question:   fmt.Sprintf("What is key concept %d of %s?", i+1, topic),
				Answer:     fmt.Sprintf("Key concept %d as described in the source material.", i+1),
				Difficulty: "medium",
				Topic:      topic,
			}
		}
		return domain.FlashcardSet{Flashcards: cards}

	case strings.Contains(prompt, `"quiz"`):
		questions := make([]domain.QuizQuestion, count)
		for i := range questions {
			questions[i] = domain.QuizQuestion{
				Question:      fmt.Sprintf("Which statement about %s is correct? (%d)", topic, i+1),
				Options:       []string{"Option A", "Option B", "Option C", "Option D"},
				CorrectAnswer: i % 4,
				Explanation:   "The source material states this directly.",
				Difficulty:    "medium",
				Topic:         topic,
			}
		}
		return domain.Quiz{Questions: questions}

	case strings.Contains(prompt, `"sections"`):
		return domain.StudyGuide{
			Title:    "Study Guide: " + topic,
			Overview: "A structured walk through the source material.",
			Sections: []domain.GuideSection{
				{
					Heading:  "Core Concepts",
					Content:  "The main ideas of the source material, restated.",
					KeyTerms: []string{topic},
				},
			},
			LearningObjectives: []string{"Understand the core concepts of " + topic},
			ReviewQuestions:    []string{"What are the core concepts of " + topic + "?"},
		}

	default:
		return domain.Summary{
			Summary:    "The source material covers " + topic + " and related ideas.",
			KeyPoints:  []string{"Primary point about " + topic, "Secondary point"},
			MainTopics: []string{topic},
			WordCount:  10,
		}
	}
}

// requestedCount parses the "exactly N" hint the generator embeds in its
// prompts.
func requestedCount(prompt string) int {
	marker := "exactly "
	i := strings.Index(prompt, marker)
	if i < 0 {
		return defaultItems
	}

	rest := strings.Fields(prompt[i+len(marker):])
	if len(rest) == 0 {
		return defaultItems
	}

	n, err := strconv.Atoi(rest[0])
	if err != nil || n <= 0 {
		return defaultItems
	}

	return n
}

// firstWord returns the first word of the content section, used as a
// deterministic stand-in topic.
func firstWord(prompt string) string {
	marker := "Content:\n"
	text := prompt
	if i := strings.Index(prompt, marker); i >= 0 {
		text = prompt[i+len(marker):]
	}

	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "general"
	}

	return strings.Trim(fields[0], ".,:;!?")
}

// countTokens performs simple word-based token counting.
func countTokens(content string) int {
	if content == "" {
		return 0
	}
	return len(strings.Fields(content))
}
