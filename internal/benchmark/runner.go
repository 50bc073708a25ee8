// Package benchmark fans generation requests out to every configured
// provider and aggregates timing, cost and quality per (kind, provider)
// cell.
package benchmark

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/davidbz/markl/internal/domain"
	"github.com/davidbz/markl/internal/generator"
	"github.com/davidbz/markl/internal/observability"
	"github.com/davidbz/markl/internal/provider/echo"
	"github.com/davidbz/markl/internal/scoring"
)

// Defaults holds per-kind generation defaults for benchmark cells.
type Defaults struct {
	FlashcardCount int
	QuizCount      int
	SummaryLength  domain.SummaryLength
}

// Runner executes benchmark runs and builds comparison reports.
type Runner struct {
	registry    domain.ProviderRegistry
	store       domain.Store
	scorer      *scoring.Scorer
	defaults    Defaults
	concurrency int
}

// NewRunner creates a benchmark runner. Concurrency below 1 runs cells
// sequentially, matching the single-operator flow; higher values bound a
// worker pool over independent cells.
func NewRunner(
	registry domain.ProviderRegistry,
	store domain.Store,
	scorer *scoring.Scorer,
	defaults Defaults,
	concurrency int,
) *Runner {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Runner{
		registry:    registry,
		store:       store,
		scorer:      scorer,
		defaults:    defaults,
		concurrency: concurrency,
	}
}

// Report is a comparison report computed from persisted benchmark rows.
type Report struct {
	DocumentID     int64                     `json:"document_id"`
	Summary        domain.RunSummary         `json:"summary"`
	ScoreCards     []domain.ScoreCard        `json:"score_cards"`
	Winners        map[string]scoring.Winner `json:"winners"`
	Recommendation string                    `json:"recommendation"`
}

// task is one pending (kind, provider) cell.
type task struct {
	kind     domain.MaterialKind
	provider domain.Provider
}

// cellResult pairs a finished cell with its coordinates so results can be
// merged once after all workers finish.
type cellResult struct {
	kind     domain.MaterialKind
	provider string
	cell     domain.Cell
	row      *domain.BenchmarkRow
}

// Run generates every requested material kind with every named provider.
// A provider failure is recorded as an error entry for its cell and does
// not abort the remaining cells; an unknown provider name fails the whole
// run before any network call.
func (r *Runner) Run(
	ctx context.Context,
	content string,
	kinds []domain.MaterialKind,
	providerNames []string,
	documentID int64,
) (*domain.BenchmarkRun, error) {
	if content == "" {
		return nil, errors.New("content cannot be empty")
	}
	if len(kinds) == 0 {
		return nil, errors.New("at least one material kind is required")
	}
	if len(providerNames) == 0 {
		return nil, errors.New("at least one provider is required")
	}
	for _, kind := range kinds {
		if !kind.Valid() {
			return nil, fmt.Errorf("unknown material kind: %q", kind)
		}
	}

	// Resolve every provider up front so a typo fails fast.
	providers := make([]domain.Provider, 0, len(providerNames))
	for _, name := range providerNames {
		provider, err := r.registry.Get(ctx, name)
		if err != nil {
			return nil, err
		}
		providers = append(providers, provider)
	}

	tasks := make([]task, 0, len(kinds)*len(providers))
	for _, kind := range kinds {
		for _, provider := range providers {
			tasks = append(tasks, task{kind: kind, provider: provider})
		}
	}

	logger := observability.FromContext(ctx)
	logger.Info("benchmark run started",
		observability.Int("cells", len(tasks)),
		observability.Int("concurrency", r.concurrency),
	)

	results := r.runTasks(ctx, content, tasks, documentID)

	run := &domain.BenchmarkRun{
		ID:         uuid.New().String(),
		DocumentID: documentID,
		Cells:      make(map[domain.MaterialKind]map[string]domain.Cell, len(kinds)),
		StartedAt:  time.Now(),
	}

	rows := make([]domain.BenchmarkRow, 0, len(results))
	for _, res := range results {
		if run.Cells[res.kind] == nil {
			run.Cells[res.kind] = make(map[string]domain.Cell, len(providers))
		}
		run.Cells[res.kind][res.provider] = res.cell
		if res.row != nil {
			rows = append(rows, *res.row)
		}
	}
	run.Summary = Summarize(rows)

	logger.Info("benchmark run finished",
		observability.Int("successful_cells", len(rows)),
		observability.Float64("total_cost", run.Summary.TotalCost),
	)

	return run, nil
}

// runTasks executes cells under a bounded worker pool and collects results
// per task; the caller performs the single merge.
func (r *Runner) runTasks(ctx context.Context, content string, tasks []task, documentID int64) []cellResult {
	results := make([]cellResult, len(tasks))

	var wg sync.WaitGroup
	sem := make(chan struct{}, r.concurrency)

	for i, tk := range tasks {
		i, tk := i, tk
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results[i] = r.runCell(ctx, content, tk, documentID)
		}()
	}

	wg.Wait()
	return results
}

func (r *Runner) runCell(ctx context.Context, content string, tk task, documentID int64) cellResult {
	providerName := tk.provider.Name()
	ctx = observability.WithProvider(ctx, providerName)
	ctx = observability.WithMaterial(ctx, string(tk.kind))
	logger := observability.FromContext(ctx)

	gen := generator.New(tk.provider)

	result, err := gen.Generate(ctx, domain.GenerationRequest{
		Content:  content,
		Kind:     tk.kind,
		Count:    r.countFor(tk.kind),
		Provider: providerName,
		Length:   r.defaults.SummaryLength,
	})
	if err != nil {
		logger.Warn("benchmark cell failed", observability.Error(err))
		return cellResult{
			kind:     tk.kind,
			provider: providerName,
			cell:     domain.Cell{Error: err.Error()},
		}
	}

	quality := r.scorer.Score(result)

	row := &domain.BenchmarkRow{
		DocumentID:   documentID,
		Kind:         tk.kind,
		Provider:     result.Provider,
		Model:        result.Model,
		ResponseTime: result.Metrics.ResponseTime,
		InputTokens:  result.Metrics.InputTokens,
		OutputTokens: result.Metrics.OutputTokens,
		TotalTokens:  result.Metrics.TotalTokens,
		Cost:         result.Metrics.Cost,
		QualityScore: quality,
		CreatedAt:    time.Now().UTC(),
	}

	if r.store != nil && documentID != 0 {
		if _, saveErr := r.store.SaveBenchmarkRow(ctx, row); saveErr != nil {
			logger.Warn("failed to persist benchmark row", observability.Error(saveErr))
		}
	}

	return cellResult{
		kind:     tk.kind,
		provider: providerName,
		cell:     domain.Cell{Result: result},
		row:      row,
	}
}

func (r *Runner) countFor(kind domain.MaterialKind) int {
	switch kind {
	case domain.KindFlashcards:
		return r.defaults.FlashcardCount
	case domain.KindQuiz:
		return r.defaults.QuizCount
	default:
		return 0
	}
}

// ComparisonReport recomputes aggregates from persisted rows for a
// document. It shares Summarize with Run, so both paths produce identical
// numbers for the same underlying rows.
func (r *Runner) ComparisonReport(ctx context.Context, documentID int64) (*Report, error) {
	if r.store == nil {
		return nil, errors.New("no store configured")
	}

	rows, err := r.store.GetBenchmarks(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load benchmark rows: %w", err)
	}

	cards := r.scorer.CompareProviders(rows)

	return &Report{
		DocumentID:     documentID,
		Summary:        Summarize(rows),
		ScoreCards:     cards,
		Winners:        r.scorer.WinnersByCategory(rows),
		Recommendation: r.scorer.Recommendation(cards),
	}, nil
}

// DefaultProviders returns the default benchmark set for "all registered
// providers": every name except the offline echo provider, which reports
// zero cost and near-zero latency and is benchmarked only when named
// explicitly. When echo is the only registered provider it is kept so
// offline runs still work.
func DefaultProviders(names []string) []string {
	filtered := make([]string, 0, len(names))
	for _, name := range names {
		if name != echo.ProviderName {
			filtered = append(filtered, name)
		}
	}
	if len(filtered) == 0 {
		return names
	}
	return filtered
}

// Summarize derives aggregate statistics from benchmark rows. Rows exist
// only for successful cells, so failed cells never contribute numbers.
func Summarize(rows []domain.BenchmarkRow) domain.RunSummary {
	summary := domain.RunSummary{TotalRequests: len(rows)}
	if len(rows) == 0 {
		return summary
	}

	var totalTime, totalQuality float64
	for _, row := range rows {
		summary.TotalCost += row.Cost
		summary.TotalTokens += row.TotalTokens
		totalTime += row.ResponseTime
		totalQuality += row.QualityScore
	}

	n := float64(len(rows))
	summary.AvgResponseTime = totalTime / n
	summary.AvgQualityScore = totalQuality / n

	return summary
}
