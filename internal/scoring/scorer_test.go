package scoring_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/markl/internal/domain"
	"github.com/davidbz/markl/internal/scoring"
)

func completeFlashcards(n int) *domain.FlashcardSet {
	cards := make([]domain.Flashcard, n)
	for i := range cards {
		cards[i] = domain.Flashcard{
			Question:   "What is the role of the mitochondria in the cell?",
			Answer:     "It produces most of the cell's chemical energy.",
			Difficulty: "medium",
			Topic:      "biology",
		}
	}
	return &domain.FlashcardSet{Flashcards: cards}
}

func TestScorer_Score_Flashcards(t *testing.T) {
	scorer := scoring.New(scoring.DefaultWeights)

	t.Run("complete set at requested count scores 10", func(t *testing.T) {
		result := &domain.GenerationResult{
			Kind:           domain.KindFlashcards,
			Payload:        completeFlashcards(5),
			RequestedCount: 5,
		}
		require.InDelta(t, 10.0, scorer.Score(result), 0.0001)
	})

	t.Run("missing fields lower the score", func(t *testing.T) {
		set := completeFlashcards(5)
		set.Flashcards[0].Answer = ""
		set.Flashcards[1].Topic = ""

		result := &domain.GenerationResult{
			Kind:           domain.KindFlashcards,
			Payload:        set,
			RequestedCount: 5,
		}

		score := scorer.Score(result)
		require.Less(t, score, 10.0)
		require.Greater(t, score, 0.0)
	})

	t.Run("wrong count lowers the score", func(t *testing.T) {
		result := &domain.GenerationResult{
			Kind:           domain.KindFlashcards,
			Payload:        completeFlashcards(2),
			RequestedCount: 10,
		}
		require.Less(t, scorer.Score(result), 10.0)
	})

	t.Run("small count deviation is tolerated", func(t *testing.T) {
		// 10 requested, 11 returned: within the one-item margin.
		result := &domain.GenerationResult{
			Kind:           domain.KindFlashcards,
			Payload:        completeFlashcards(11),
			RequestedCount: 10,
		}
		require.InDelta(t, 10.0, scorer.Score(result), 0.0001)
	})

	t.Run("parse error scores 0", func(t *testing.T) {
		result := &domain.GenerationResult{
			Kind:       domain.KindFlashcards,
			Payload:    completeFlashcards(5),
			ParseError: "malformed response: unexpected end of JSON input",
		}
		require.Zero(t, scorer.Score(result))
	})

	t.Run("nil result scores 0", func(t *testing.T) {
		require.Zero(t, scorer.Score(nil))
	})
}

func TestScorer_Score_Deterministic(t *testing.T) {
	scorer := scoring.New(scoring.DefaultWeights)

	result := &domain.GenerationResult{
		Kind:           domain.KindQuiz,
		RequestedCount: 2,
		Payload: &domain.Quiz{Questions: []domain.QuizQuestion{
			{
				Question:      "Which planet is closest to the sun?",
				Options:       []string{"Mercury", "Venus", "Earth", "Mars"},
				CorrectAnswer: 0,
				Explanation:   "Mercury orbits nearest to the sun.",
				Difficulty:    "easy",
				Topic:         "astronomy",
			},
		}},
	}

	first := scorer.Score(result)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, scorer.Score(result))
	}
}

func TestScorer_Score_SummaryAndStudyGuide(t *testing.T) {
	scorer := scoring.New(scoring.DefaultWeights)

	t.Run("complete summary scores high", func(t *testing.T) {
		result := &domain.GenerationResult{
			Kind: domain.KindSummary,
			Payload: &domain.Summary{
				Summary:    "The text explains how cells convert nutrients into usable energy through a sequence of chemical reactions catalyzed by enzymes inside the mitochondria of eukaryotic organisms.",
				KeyPoints:  []string{"Cells convert nutrients to energy", "Enzymes catalyze the reactions"},
				MainTopics: []string{"cellular respiration"},
				WordCount:  25,
			},
		}
		require.InDelta(t, 10.0, scorer.Score(result), 0.0001)
	})

	t.Run("empty summary scores 0", func(t *testing.T) {
		result := &domain.GenerationResult{
			Kind:    domain.KindSummary,
			Payload: &domain.Summary{},
		}
		require.Zero(t, scorer.Score(result))
	})

	t.Run("study guide without sections loses points", func(t *testing.T) {
		result := &domain.GenerationResult{
			Kind: domain.KindStudyGuide,
			Payload: &domain.StudyGuide{
				Title:              "Guide",
				Overview:           "Overview",
				LearningObjectives: []string{"Learn things"},
				ReviewQuestions:    []string{"What things?"},
			},
		}
		score := scorer.Score(result)
		require.Less(t, score, 10.0)
		require.Greater(t, score, 0.0)
	})
}

func rowsFor(provider string, quality, cost, elapsed float64, n int) []domain.BenchmarkRow {
	rows := make([]domain.BenchmarkRow, n)
	for i := range rows {
		rows[i] = domain.BenchmarkRow{
			Provider:     provider,
			Kind:         domain.KindFlashcards,
			QualityScore: quality,
			Cost:         cost,
			ResponseTime: elapsed,
		}
	}
	return rows
}

func TestScorer_CompareProviders(t *testing.T) {
	scorer := scoring.New(scoring.DefaultWeights)

	t.Run("cheaper faster provider with equal quality ranks first", func(t *testing.T) {
		rows := append(
			rowsFor("openai", 8.0, 0.010, 2.0, 3),
			rowsFor("groq", 8.0, 0.001, 0.5, 3)...,
		)

		cards := scorer.CompareProviders(rows)
		require.Len(t, cards, 2)
		require.Equal(t, "groq", cards[0].Provider)
		require.Greater(t, cards[0].Composite, cards[1].Composite)
		require.Equal(t, 3, cards[0].Samples)
		require.InDelta(t, 8.0, cards[0].AvgQuality, 0.0001)
	})

	t.Run("identical rows tie, alphabetical order", func(t *testing.T) {
		rows := append(
			rowsFor("zeta", 7.0, 0.002, 1.0, 2),
			rowsFor("alpha", 7.0, 0.002, 1.0, 2)...,
		)

		cards := scorer.CompareProviders(rows)
		require.Len(t, cards, 2)
		require.Equal(t, "alpha", cards[0].Provider)
		require.Equal(t, "zeta", cards[1].Provider)
		require.InDelta(t, cards[0].Composite, cards[1].Composite, 0.0001)
	})

	t.Run("empty rows produce no cards", func(t *testing.T) {
		require.Nil(t, scorer.CompareProviders(nil))
	})
}

func TestScorer_WinnersByCategory(t *testing.T) {
	scorer := scoring.New(scoring.DefaultWeights)

	t.Run("winners per category", func(t *testing.T) {
		rows := append(
			rowsFor("openai", 9.0, 0.010, 2.0, 2),
			rowsFor("groq", 7.0, 0.001, 0.5, 2)...,
		)

		winners := scorer.WinnersByCategory(rows)
		require.Equal(t, "groq", winners["speed"].Provider)
		require.Equal(t, "groq", winners["cost"].Provider)
		require.Equal(t, "openai", winners["quality"].Provider)
		require.InDelta(t, 9.0, winners["quality"].Value, 0.0001)
	})

	t.Run("equal cost breaks tie alphabetically", func(t *testing.T) {
		rows := append(
			rowsFor("openai", 8.0, 0.005, 1.0, 2),
			rowsFor("groq", 8.0, 0.005, 1.0, 2)...,
		)

		winners := scorer.WinnersByCategory(rows)
		require.Equal(t, "groq", winners["cost"].Provider)
		require.Equal(t, "groq", winners["speed"].Provider)
		require.Equal(t, "groq", winners["quality"].Provider)
	})
}

func TestScorer_Recommendation(t *testing.T) {
	scorer := scoring.New(scoring.DefaultWeights)

	t.Run("empty cards", func(t *testing.T) {
		text := scorer.Recommendation(nil)
		require.Contains(t, text, "No benchmark data")
	})

	t.Run("names the best provider", func(t *testing.T) {
		cards := []domain.ScoreCard{
			{Provider: "groq", AvgQuality: 8.2, Composite: 9.1, Samples: 4},
			{Provider: "openai", AvgQuality: 8.5, Composite: 7.3, Samples: 4},
		}

		text := scorer.Recommendation(cards)
		require.Contains(t, text, "Recommended provider: groq")
		require.Contains(t, text, "9.1/10")
		require.Contains(t, text, "openai")
	})
}
