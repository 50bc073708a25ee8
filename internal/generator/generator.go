// Package generator builds study materials by prompting a provider and
// extracting the structured JSON from its response.
package generator

import (
	"context"
	"errors"
	"fmt"

	"github.com/davidbz/markl/internal/domain"
	"github.com/davidbz/markl/internal/extract"
	"github.com/davidbz/markl/internal/observability"
)

const errorSentinel = "error"

// Generator generates study materials through a single provider.
type Generator struct {
	provider domain.Provider
}

// New creates a generator bound to one provider.
func New(provider domain.Provider) *Generator {
	return &Generator{provider: provider}
}

// Generate dispatches to the kind-specific operation.
func (g *Generator) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationResult, error) {
	switch req.Kind {
	case domain.KindFlashcards:
		return g.Flashcards(ctx, req.Content, req.Count)
	case domain.KindQuiz:
		return g.Quiz(ctx, req.Content, req.Count)
	case domain.KindSummary:
		return g.Summary(ctx, req.Content, req.Length)
	case domain.KindStudyGuide:
		return g.StudyGuide(ctx, req.Content)
	default:
		return nil, fmt.Errorf("unknown material kind: %q", req.Kind)
	}
}

// Flashcards generates count flashcards from the content.
func (g *Generator) Flashcards(ctx context.Context, content string, count int) (*domain.GenerationResult, error) {
	return g.generate(ctx, domain.KindFlashcards, flashcardsSystem, flashcardsPrompt(content, count), count,
		func() any { return &domain.FlashcardSet{} },
		func(parseErr error) any {
			return &domain.FlashcardSet{Flashcards: []domain.Flashcard{{
				Question:   "Error parsing response",
				Answer:     parseErr.Error(),
				Difficulty: errorSentinel,
				Topic:      errorSentinel,
			}}}
		})
}

// Quiz generates count multiple choice questions from the content.
func (g *Generator) Quiz(ctx context.Context, content string, count int) (*domain.GenerationResult, error) {
	return g.generate(ctx, domain.KindQuiz, quizSystem, quizPrompt(content, count), count,
		func() any { return &domain.Quiz{} },
		func(parseErr error) any {
			return &domain.Quiz{Questions: []domain.QuizQuestion{{
				Question:    "Error parsing response",
				Options:     []string{},
				Explanation: parseErr.Error(),
				Difficulty:  errorSentinel,
				Topic:       errorSentinel,
			}}}
		})
}

// Summary generates a summary of the requested length.
func (g *Generator) Summary(ctx context.Context, content string, length domain.SummaryLength) (*domain.GenerationResult, error) {
	return g.generate(ctx, domain.KindSummary, summarySystem, summaryPrompt(content, length), 0,
		func() any { return &domain.Summary{} },
		func(parseErr error) any {
			return &domain.Summary{
				Summary:    "Error parsing response",
				KeyPoints:  []string{parseErr.Error()},
				MainTopics: []string{errorSentinel},
				WordCount:  0,
			}
		})
}

// StudyGuide generates a comprehensive study guide.
func (g *Generator) StudyGuide(ctx context.Context, content string) (*domain.GenerationResult, error) {
	return g.generate(ctx, domain.KindStudyGuide, studyGuideSystem, studyGuidePrompt(content), 0,
		func() any { return &domain.StudyGuide{} },
		func(parseErr error) any {
			return &domain.StudyGuide{
				Title:              "Error",
				Overview:           "Error parsing response",
				Sections:           []domain.GuideSection{},
				LearningObjectives: []string{parseErr.Error()},
				ReviewQuestions:    []string{},
			}
		})
}

// generate runs the shared template: call the provider, extract JSON, and
// absorb extraction failures into the kind-specific fallback shape. A
// provider failure propagates to the caller untouched.
func (g *Generator) generate(
	ctx context.Context,
	kind domain.MaterialKind,
	system, prompt string,
	count int,
	newPayload func() any,
	fallback func(parseErr error) any,
) (*domain.GenerationResult, error) {
	if g.provider == nil {
		return nil, errors.New("generator has no provider")
	}

	ctx = observability.WithMaterial(ctx, string(kind))
	logger := observability.FromContext(ctx)

	text, metrics, err := g.provider.Generate(ctx, prompt, system)
	if err != nil {
		return nil, err
	}

	result := &domain.GenerationResult{
		Kind:           kind,
		Provider:       metrics.Provider,
		Model:          metrics.Model,
		Metrics:        metrics,
		RequestedCount: count,
	}

	payload := newPayload()
	if parseErr := extract.JSON(text, payload); parseErr != nil {
		logger.Warn("response extraction failed, using fallback payload",
			observability.Error(parseErr),
			observability.Int("response_length", len(text)),
		)

		result.Payload = fallback(parseErr)
		result.RawResponse = text
		result.ParseError = parseErr.Error()
		return result, nil
	}

	result.Payload = payload
	return result, nil
}
