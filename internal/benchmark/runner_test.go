package benchmark_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/markl/internal/benchmark"
	"github.com/davidbz/markl/internal/domain"
	"github.com/davidbz/markl/internal/provider/registry"
	"github.com/davidbz/markl/internal/scoring"
)

// fakeProvider returns canned JSON or a fixed error.
type fakeProvider struct {
	name     string
	response string
	err      error
	metrics  domain.Metrics
}

func (f *fakeProvider) Generate(_ context.Context, _, _ string) (string, domain.Metrics, error) {
	if f.err != nil {
		return "", domain.Metrics{}, f.err
	}
	return f.response, f.metrics, nil
}

func (f *fakeProvider) Name() string  { return f.name }
func (f *fakeProvider) Model() string { return f.metrics.Model }

// memStore collects saved rows in memory.
type memStore struct {
	mu   sync.Mutex
	rows []domain.BenchmarkRow
}

func (m *memStore) SaveDocument(_ context.Context, _ *domain.Document) (int64, error) { return 1, nil }

func (m *memStore) SaveStudyMaterial(_ context.Context, _ int64, _ *domain.GenerationResult) (int64, error) {
	return 1, nil
}

func (m *memStore) SaveBenchmarkRow(_ context.Context, row *domain.BenchmarkRow) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, *row)
	return int64(len(m.rows)), nil
}

func (m *memStore) GetBenchmarks(_ context.Context, documentID int64) ([]domain.BenchmarkRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if documentID == 0 {
		return append([]domain.BenchmarkRow(nil), m.rows...), nil
	}
	var filtered []domain.BenchmarkRow
	for _, row := range m.rows {
		if row.DocumentID == documentID {
			filtered = append(filtered, row)
		}
	}
	return filtered, nil
}

func (m *memStore) GetAllDocuments(_ context.Context) ([]domain.Document, error) { return nil, nil }

func (m *memStore) GetStudyMaterials(_ context.Context, _ int64) ([]domain.StudyMaterial, error) {
	return nil, nil
}

func (m *memStore) DeleteDocument(_ context.Context, _ int64) error { return nil }

const flashcardsJSON = `{"flashcards": [{"question": "What is covered by the source text?", "answer": "The main ideas of the document.", "difficulty": "easy", "topic": "general"}]}`

const quizJSON = `{"quiz": [{"question": "Which option is correct about the text?", "options": ["A", "B", "C", "D"], "correct_answer": 1, "explanation": "Stated directly.", "difficulty": "medium", "topic": "general"}]}`

func okProvider(name string, cost, elapsed float64) *fakeProvider {
	return &fakeProvider{
		name:     name,
		response: flashcardsJSON,
		metrics: domain.Metrics{
			Provider:     name,
			Model:        name + "-model",
			ResponseTime: elapsed,
			InputTokens:  100,
			OutputTokens: 50,
			TotalTokens:  150,
			Cost:         cost,
			FinishReason: "stop",
		},
	}
}

func newRunner(t *testing.T, store domain.Store, concurrency int, providers ...domain.Provider) *benchmark.Runner {
	t.Helper()

	reg := registry.NewRegistry()
	for _, p := range providers {
		require.NoError(t, reg.Register(context.Background(), p))
	}

	defaults := benchmark.Defaults{
		FlashcardCount: 1,
		QuizCount:      1,
		SummaryLength:  domain.LengthMedium,
	}

	return benchmark.NewRunner(reg, store, scoring.New(scoring.DefaultWeights), defaults, concurrency)
}

func TestRunner_Run_AllCells(t *testing.T) {
	providerA := okProvider("alpha", 0.001, 0.5)
	providerB := &fakeProvider{
		name:     "beta",
		response: quizJSON,
		metrics: domain.Metrics{
			Provider: "beta", Model: "beta-model",
			ResponseTime: 1.0, InputTokens: 80, OutputTokens: 40, TotalTokens: 120,
			Cost: 0.002, FinishReason: "stop",
		},
	}

	runner := newRunner(t, nil, 1, providerA, providerB)

	kinds := []domain.MaterialKind{domain.KindFlashcards, domain.KindQuiz}
	run, err := runner.Run(context.Background(), "some document text", kinds, []string{"alpha", "beta"}, 0)
	require.NoError(t, err)

	// Exactly 4 cells, each a result or an error entry.
	require.Len(t, run.Cells, 2)
	cellCount := 0
	for _, byProvider := range run.Cells {
		for _, cell := range byProvider {
			cellCount++
			require.True(t, cell.Result != nil || cell.Error != "")
		}
	}
	require.Equal(t, 4, cellCount)
	require.NotEmpty(t, run.ID)
}

func TestRunner_Run_PartialFailure(t *testing.T) {
	failing := &fakeProvider{
		name: "alpha",
		err:  &domain.ProviderError{Provider: "alpha", Err: errors.New("connection refused")},
	}
	working := okProvider("beta", 0.003, 0.7)

	runner := newRunner(t, nil, 1, failing, working)

	run, err := runner.Run(context.Background(), "text",
		[]domain.MaterialKind{domain.KindFlashcards}, []string{"alpha", "beta"}, 0)
	require.NoError(t, err)

	cells := run.Cells[domain.KindFlashcards]
	require.True(t, cells["alpha"].Failed())
	require.Contains(t, cells["alpha"].Error, "connection refused")
	require.Nil(t, cells["alpha"].Result)

	require.False(t, cells["beta"].Failed())
	require.NotNil(t, cells["beta"].Result)

	// Aggregates reflect only the successful cell.
	require.Equal(t, 1, run.Summary.TotalRequests)
	require.InDelta(t, 0.003, run.Summary.TotalCost, 1e-9)
	require.InDelta(t, 0.7, run.Summary.AvgResponseTime, 1e-9)
	require.Equal(t, 150, run.Summary.TotalTokens)
	require.Positive(t, run.Summary.AvgQualityScore)
}

func TestRunner_Run_UnknownProviderFailsFast(t *testing.T) {
	runner := newRunner(t, nil, 1, okProvider("alpha", 0.001, 0.5))

	_, err := runner.Run(context.Background(), "text",
		[]domain.MaterialKind{domain.KindFlashcards}, []string{"alpha", "missing"}, 0)
	require.Error(t, err)
	require.ErrorIs(t, err, domain.ErrUnknownProvider)
}

func TestRunner_Run_ValidatesInput(t *testing.T) {
	runner := newRunner(t, nil, 1, okProvider("alpha", 0.001, 0.5))
	ctx := context.Background()

	_, err := runner.Run(ctx, "", []domain.MaterialKind{domain.KindFlashcards}, []string{"alpha"}, 0)
	require.Error(t, err)

	_, err = runner.Run(ctx, "text", nil, []string{"alpha"}, 0)
	require.Error(t, err)

	_, err = runner.Run(ctx, "text", []domain.MaterialKind{domain.KindFlashcards}, nil, 0)
	require.Error(t, err)

	_, err = runner.Run(ctx, "text", []domain.MaterialKind{"bogus"}, []string{"alpha"}, 0)
	require.Error(t, err)
}

func TestRunner_Run_ConcurrentMatchesSequential(t *testing.T) {
	providers := []domain.Provider{
		okProvider("alpha", 0.001, 0.5),
		okProvider("beta", 0.002, 0.8),
	}

	sequential := newRunner(t, nil, 1, providers...)
	concurrent := newRunner(t, nil, 4, providers...)

	kinds := []domain.MaterialKind{domain.KindFlashcards, domain.KindQuiz}

	seqRun, err := sequential.Run(context.Background(), "text", kinds, []string{"alpha", "beta"}, 0)
	require.NoError(t, err)
	conRun, err := concurrent.Run(context.Background(), "text", kinds, []string{"alpha", "beta"}, 0)
	require.NoError(t, err)

	require.Equal(t, seqRun.Summary, conRun.Summary)
	require.Equal(t, len(seqRun.Cells), len(conRun.Cells))
}

func TestRunner_PersistenceAndReportAgree(t *testing.T) {
	store := &memStore{}
	runner := newRunner(t, store, 1,
		okProvider("alpha", 0.001, 0.5),
		okProvider("beta", 0.002, 0.8),
	)

	const documentID = int64(42)

	run, err := runner.Run(context.Background(), "text",
		[]domain.MaterialKind{domain.KindFlashcards}, []string{"alpha", "beta"}, documentID)
	require.NoError(t, err)
	require.Len(t, store.rows, 2)

	report, err := runner.ComparisonReport(context.Background(), documentID)
	require.NoError(t, err)

	// In-memory and from-store aggregates must be numerically identical.
	require.Equal(t, run.Summary, report.Summary)
	require.Len(t, report.ScoreCards, 2)
	require.NotEmpty(t, report.Recommendation)
	require.Contains(t, report.Winners, "speed")
	require.Contains(t, report.Winners, "cost")
	require.Contains(t, report.Winners, "quality")
	require.Equal(t, "alpha", report.Winners["cost"].Provider)
}

func TestDefaultProviders(t *testing.T) {
	tests := []struct {
		name  string
		names []string
		want  []string
	}{
		{
			name:  "echo excluded from default set",
			names: []string{"alpha", "beta", "echo"},
			want:  []string{"alpha", "beta"},
		},
		{
			name:  "echo kept when it is the only provider",
			names: []string{"echo"},
			want:  []string{"echo"},
		},
		{
			name:  "no echo registered",
			names: []string{"alpha"},
			want:  []string{"alpha"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, benchmark.DefaultProviders(tt.names))
		})
	}
}

func TestSummarize_Empty(t *testing.T) {
	summary := benchmark.Summarize(nil)
	require.Zero(t, summary.TotalRequests)
	require.Zero(t, summary.TotalCost)
	require.Zero(t, summary.AvgResponseTime)
	require.Zero(t, summary.AvgQualityScore)
}
