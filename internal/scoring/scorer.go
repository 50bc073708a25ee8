// Package scoring grades generated materials and ranks providers across
// persisted benchmark rows. All scoring is heuristic and deterministic:
// the same input always produces the same score.
package scoring

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/davidbz/markl/internal/domain"
)

const maxScore = 10.0

// Weights is the composite score policy: how quality, cost and speed blend
// into a single ranking number. Values are relative; they are normalized
// before use.
type Weights struct {
	Quality float64
	Cost    float64
	Speed   float64
}

// DefaultWeights favors quality over price and latency.
var DefaultWeights = Weights{Quality: 0.6, Cost: 0.2, Speed: 0.2}

// Per-kind weighting of the quality sub-scores. Kinds without a requested
// item count redistribute the count weight.
const (
	completenessWeight = 0.5
	lengthWeight       = 0.3
	countWeight        = 0.2

	completenessWeightNoCount = 0.6
	lengthWeightNoCount       = 0.4
)

// Scorer grades generation results.
type Scorer struct {
	weights Weights
}

// New creates a scorer with the given composite weights. Zero weights fall
// back to DefaultWeights.
func New(weights Weights) *Scorer {
	if weights.Quality <= 0 && weights.Cost <= 0 && weights.Speed <= 0 {
		weights = DefaultWeights
	}
	return &Scorer{weights: weights}
}

// Score grades a single result on a 0-10 scale from structural
// completeness, length appropriateness and count accuracy. A result that
// failed extraction scores 0.
func (s *Scorer) Score(result *domain.GenerationResult) float64 {
	if result == nil || result.ParseError != "" {
		return 0
	}

	var completeness, length, count float64
	hasCount := false

	switch payload := result.Payload.(type) {
	case *domain.FlashcardSet:
		completeness, length = scoreFlashcards(payload.Flashcards)
		count = countAccuracy(len(payload.Flashcards), result.RequestedCount)
		hasCount = true
	case *domain.Quiz:
		completeness, length = scoreQuiz(payload.Questions)
		count = countAccuracy(len(payload.Questions), result.RequestedCount)
		hasCount = true
	case *domain.Summary:
		completeness, length = scoreSummary(payload)
	case *domain.StudyGuide:
		completeness, length = scoreStudyGuide(payload)
	default:
		return 0
	}

	var score float64
	if hasCount {
		score = completenessWeight*completeness + lengthWeight*length + countWeight*count
	} else {
		score = completenessWeightNoCount*completeness + lengthWeightNoCount*length
	}

	return clamp(score * maxScore)
}

// Winner is the best provider for one category.
type Winner struct {
	Provider string  `json:"provider"`
	Value    float64 `json:"value"`
}

// providerStats holds per-provider averages over a set of rows.
type providerStats struct {
	provider   string
	avgQuality float64
	avgCost    float64
	avgTime    float64
	samples    int
}

// CompareProviders derives one ScoreCard per provider from benchmark rows.
// The composite score folds inverse-normalized cost and latency into the
// quality average so a cheaper or faster provider with comparable quality
// ranks higher. Cards are sorted by composite score, ties broken by
// provider name.
func (s *Scorer) CompareProviders(rows []domain.BenchmarkRow) []domain.ScoreCard {
	stats := aggregateByProvider(rows)
	if len(stats) == 0 {
		return nil
	}

	minCost := math.MaxFloat64
	minTime := math.MaxFloat64
	for _, st := range stats {
		minCost = math.Min(minCost, st.avgCost)
		minTime = math.Min(minTime, st.avgTime)
	}

	total := s.weights.Quality + s.weights.Cost + s.weights.Speed

	cards := make([]domain.ScoreCard, 0, len(stats))
	for _, st := range stats {
		composite := maxScore * (s.weights.Quality*(st.avgQuality/maxScore) +
			s.weights.Cost*inverseNorm(minCost, st.avgCost) +
			s.weights.Speed*inverseNorm(minTime, st.avgTime)) / total

		cards = append(cards, domain.ScoreCard{
			Provider:   st.provider,
			AvgQuality: st.avgQuality,
			Composite:  clamp(composite),
			Samples:    st.samples,
		})
	}

	sort.Slice(cards, func(i, j int) bool {
		if cards[i].Composite != cards[j].Composite {
			return cards[i].Composite > cards[j].Composite
		}
		return cards[i].Provider < cards[j].Provider
	})

	return cards
}

// WinnersByCategory picks the best provider per category. Speed and cost
// take the lowest average, quality the highest; ties go to the
// alphabetically first provider name.
func (s *Scorer) WinnersByCategory(rows []domain.BenchmarkRow) map[string]Winner {
	stats := aggregateByProvider(rows)
	if len(stats) == 0 {
		return nil
	}

	winners := map[string]Winner{
		"speed":   pick(stats, func(st providerStats) float64 { return st.avgTime }, false),
		"cost":    pick(stats, func(st providerStats) float64 { return st.avgCost }, false),
		"quality": pick(stats, func(st providerStats) float64 { return st.avgQuality }, true),
	}

	return winners
}

// Recommendation synthesizes a short natural-language verdict from already
// computed score cards. It performs no new scoring.
func (s *Scorer) Recommendation(cards []domain.ScoreCard) string {
	if len(cards) == 0 {
		return "No benchmark data available yet. Run a benchmark to compare providers."
	}

	best := cards[0]
	for _, card := range cards[1:] {
		if card.Composite > best.Composite ||
			(card.Composite == best.Composite && card.Provider < best.Provider) {
			best = card
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Recommended provider: %s (composite score %.1f/10, avg quality %.1f/10 across %d samples).",
		best.Provider, best.Composite, best.AvgQuality, best.Samples)

	for _, card := range cards {
		if card.Provider == best.Provider {
			continue
		}
		fmt.Fprintf(&b, " %s scored %.1f/10.", card.Provider, card.Composite)
	}

	return b.String()
}

func aggregateByProvider(rows []domain.BenchmarkRow) []providerStats {
	byProvider := make(map[string]*providerStats)
	for _, row := range rows {
		st, ok := byProvider[row.Provider]
		if !ok {
			st = &providerStats{provider: row.Provider}
			byProvider[row.Provider] = st
		}
		st.avgQuality += row.QualityScore
		st.avgCost += row.Cost
		st.avgTime += row.ResponseTime
		st.samples++
	}

	stats := make([]providerStats, 0, len(byProvider))
	for _, st := range byProvider {
		n := float64(st.samples)
		st.avgQuality /= n
		st.avgCost /= n
		st.avgTime /= n
		stats = append(stats, *st)
	}

	// Alphabetical order makes every downstream tie-break deterministic.
	sort.Slice(stats, func(i, j int) bool { return stats[i].provider < stats[j].provider })

	return stats
}

// pick selects the best provider by the given metric. Since stats are
// alphabetically ordered, strict comparison keeps the first name on ties.
func pick(stats []providerStats, metric func(providerStats) float64, higherIsBetter bool) Winner {
	best := stats[0]
	for _, st := range stats[1:] {
		v, bv := metric(st), metric(best)
		if (higherIsBetter && v > bv) || (!higherIsBetter && v < bv) {
			best = st
		}
	}
	return Winner{Provider: best.provider, Value: metric(best)}
}

// inverseNorm maps the best (lowest) value to 1.0 and worse values toward
// 0. A zero value counts as best.
func inverseNorm(minVal, val float64) float64 {
	if val <= 0 {
		return 1.0
	}
	return minVal / val
}

func scoreFlashcards(cards []domain.Flashcard) (completeness, length float64) {
	if len(cards) == 0 {
		return 0, 0
	}

	var complete, sized int
	for _, card := range cards {
		if card.Question != "" && card.Answer != "" && card.Difficulty != "" && card.Topic != "" {
			complete++
		}
		if wordsBetween(card.Question, 3, 60) && wordsBetween(card.Answer, 1, 100) {
			sized++
		}
	}

	n := float64(len(cards))
	return float64(complete) / n, float64(sized) / n
}

func scoreQuiz(questions []domain.QuizQuestion) (completeness, length float64) {
	if len(questions) == 0 {
		return 0, 0
	}

	var complete, sized int
	for _, q := range questions {
		if q.Question != "" && len(q.Options) == 4 && allNonEmpty(q.Options) &&
			q.CorrectAnswer >= 0 && q.CorrectAnswer < 4 &&
			q.Explanation != "" && q.Difficulty != "" && q.Topic != "" {
			complete++
		}
		if wordsBetween(q.Question, 3, 60) && wordsBetween(q.Explanation, 1, 150) {
			sized++
		}
	}

	n := float64(len(questions))
	return float64(complete) / n, float64(sized) / n
}

func scoreSummary(summary *domain.Summary) (completeness, length float64) {
	var present float64
	if summary.Summary != "" {
		present++
	}
	if len(summary.KeyPoints) > 0 && allNonEmpty(summary.KeyPoints) {
		present++
	}
	if len(summary.MainTopics) > 0 && allNonEmpty(summary.MainTopics) {
		present++
	}
	completeness = present / 3

	if wordsBetween(summary.Summary, 15, 400) {
		length = 1
	}

	return completeness, length
}

func scoreStudyGuide(guide *domain.StudyGuide) (completeness, length float64) {
	var present float64
	if guide.Title != "" {
		present++
	}
	if guide.Overview != "" {
		present++
	}
	if len(guide.Sections) > 0 {
		present++
	}
	if len(guide.LearningObjectives) > 0 && allNonEmpty(guide.LearningObjectives) {
		present++
	}
	if len(guide.ReviewQuestions) > 0 && allNonEmpty(guide.ReviewQuestions) {
		present++
	}
	completeness = present / 5

	if len(guide.Sections) > 0 {
		var sized int
		for _, section := range guide.Sections {
			if section.Heading != "" && wordsBetween(section.Content, 5, 500) && len(section.KeyTerms) > 0 {
				sized++
			}
		}
		length = float64(sized) / float64(len(guide.Sections))
	}

	return completeness, length
}

// countAccuracy scores how close the returned item count is to the
// requested one, tolerating under/over by 10% (at least one item).
func countAccuracy(got, want int) float64 {
	if want <= 0 {
		return 1.0
	}

	tolerance := want / 10
	if tolerance < 1 {
		tolerance = 1
	}

	diff := got - want
	if diff < 0 {
		diff = -diff
	}
	if diff <= tolerance {
		return 1.0
	}

	penalty := float64(diff-tolerance) / float64(want)
	if penalty > 1 {
		penalty = 1
	}
	return 1.0 - penalty
}

func wordsBetween(text string, minWords, maxWords int) bool {
	n := len(strings.Fields(text))
	return n >= minWords && n <= maxWords
}

func allNonEmpty(items []string) bool {
	for _, item := range items {
		if strings.TrimSpace(item) == "" {
			return false
		}
	}
	return true
}

func clamp(score float64) float64 {
	return math.Min(maxScore, math.Max(0, score))
}
