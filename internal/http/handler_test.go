package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/markl/internal/benchmark"
	"github.com/davidbz/markl/internal/config"
	"github.com/davidbz/markl/internal/domain"
	markhttp "github.com/davidbz/markl/internal/http"
	"github.com/davidbz/markl/internal/provider/echo"
	"github.com/davidbz/markl/internal/provider/registry"
	"github.com/davidbz/markl/internal/scoring"
	"github.com/davidbz/markl/internal/study"
)

// fakeStore keeps everything in slices, enough for handler tests.
type fakeStore struct {
	documents []domain.Document
	rows      []domain.BenchmarkRow
}

func (s *fakeStore) SaveDocument(_ context.Context, doc *domain.Document) (int64, error) {
	s.documents = append(s.documents, *doc)
	return int64(len(s.documents)), nil
}

func (s *fakeStore) SaveStudyMaterial(_ context.Context, _ int64, _ *domain.GenerationResult) (int64, error) {
	return 1, nil
}

func (s *fakeStore) SaveBenchmarkRow(_ context.Context, row *domain.BenchmarkRow) (int64, error) {
	s.rows = append(s.rows, *row)
	return int64(len(s.rows)), nil
}

func (s *fakeStore) GetBenchmarks(_ context.Context, documentID int64) ([]domain.BenchmarkRow, error) {
	if documentID == 0 {
		return s.rows, nil
	}
	var filtered []domain.BenchmarkRow
	for _, row := range s.rows {
		if row.DocumentID == documentID {
			filtered = append(filtered, row)
		}
	}
	return filtered, nil
}

func (s *fakeStore) GetAllDocuments(_ context.Context) ([]domain.Document, error) {
	return s.documents, nil
}

func (s *fakeStore) GetStudyMaterials(_ context.Context, _ int64) ([]domain.StudyMaterial, error) {
	return nil, nil
}

func (s *fakeStore) DeleteDocument(_ context.Context, _ int64) error { return nil }

func newHandler(t *testing.T, store domain.Store) *markhttp.Handler {
	t.Helper()

	reg := registry.NewRegistry()
	require.NoError(t, reg.Register(context.Background(), echo.NewProvider()))

	defaults := &config.GenerationConfig{
		FlashcardCount: 5,
		QuizCount:      5,
		SummaryLength:  "medium",
	}
	service := study.NewService(reg, nil, store, defaults, 0)

	runner := benchmark.NewRunner(reg, store, scoring.New(scoring.DefaultWeights), benchmark.Defaults{
		FlashcardCount: 2,
		QuizCount:      2,
		SummaryLength:  domain.LengthMedium,
	}, 1)

	return markhttp.NewHandler(service, runner, reg, store)
}

func TestHandleGenerate(t *testing.T) {
	handler := newHandler(t, &fakeStore{})

	body, err := json.Marshal(domain.GenerationRequest{
		Content:  "photosynthesis converts light energy into chemical energy",
		Kind:     domain.KindFlashcards,
		Count:    2,
		Provider: "echo",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/generate", bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler.HandleGenerate(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var result domain.GenerationResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
	require.Equal(t, domain.KindFlashcards, result.Kind)
	require.Equal(t, "echo", result.Provider)
	require.Empty(t, result.ParseError)
}

func TestHandleGenerate_Validation(t *testing.T) {
	handler := newHandler(t, &fakeStore{})

	// Wrong method.
	req := httptest.NewRequest(http.MethodGet, "/v1/generate", nil)
	w := httptest.NewRecorder()
	handler.HandleGenerate(w, req)
	require.Equal(t, http.StatusMethodNotAllowed, w.Code)

	// Missing provider.
	body, _ := json.Marshal(domain.GenerationRequest{Content: "x", Kind: domain.KindQuiz})
	req = httptest.NewRequest(http.MethodPost, "/v1/generate", bytes.NewReader(body))
	w = httptest.NewRecorder()
	handler.HandleGenerate(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown provider.
	body, _ = json.Marshal(domain.GenerationRequest{Content: "x", Kind: domain.KindQuiz, Provider: "nope"})
	req = httptest.NewRequest(http.MethodPost, "/v1/generate", bytes.NewReader(body))
	w = httptest.NewRecorder()
	handler.HandleGenerate(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)

	// Malformed body.
	req = httptest.NewRequest(http.MethodPost, "/v1/generate", bytes.NewReader([]byte("{")))
	w = httptest.NewRecorder()
	handler.HandleGenerate(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleBenchmark(t *testing.T) {
	store := &fakeStore{}
	handler := newHandler(t, store)

	body := []byte(`{
		"content": "the krebs cycle produces ATP",
		"material_kinds": ["flashcards", "quiz"],
		"providers": ["echo"],
		"document_id": 3
	}`)

	req := httptest.NewRequest(http.MethodPost, "/v1/benchmark", bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler.HandleBenchmark(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var run domain.BenchmarkRun
	require.NoError(t, json.NewDecoder(w.Body).Decode(&run))
	require.Len(t, run.Cells, 2)
	require.Equal(t, 2, run.Summary.TotalRequests)
	require.Len(t, store.rows, 2)
}

func TestHandleBenchmark_DefaultsToAllKindsAndProviders(t *testing.T) {
	handler := newHandler(t, &fakeStore{})

	body := []byte(`{"content": "mitosis has four phases"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/benchmark", bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler.HandleBenchmark(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var run domain.BenchmarkRun
	require.NoError(t, json.NewDecoder(w.Body).Decode(&run))
	require.Len(t, run.Cells, len(domain.AllKinds()))
}

// cannedProvider returns fixed flashcard JSON so it can sit next to echo
// in the registry.
type cannedProvider struct{}

func (cannedProvider) Generate(_ context.Context, _, _ string) (string, domain.Metrics, error) {
	response := `{"flashcards": [{"question": "What does the text describe?", "answer": "Cell division.", "difficulty": "easy", "topic": "biology"}]}`
	return response, domain.Metrics{
		Provider:     "canned",
		Model:        "canned-1",
		ResponseTime: 0.4,
		InputTokens:  80,
		OutputTokens: 40,
		TotalTokens:  120,
		Cost:         0.002,
		FinishReason: "stop",
	}, nil
}

func (cannedProvider) Name() string  { return "canned" }
func (cannedProvider) Model() string { return "canned-1" }

func TestHandleBenchmark_DefaultSetExcludesEcho(t *testing.T) {
	store := &fakeStore{}

	reg := registry.NewRegistry()
	require.NoError(t, reg.Register(context.Background(), echo.NewProvider()))
	require.NoError(t, reg.Register(context.Background(), cannedProvider{}))

	defaults := &config.GenerationConfig{FlashcardCount: 5, QuizCount: 5, SummaryLength: "medium"}
	service := study.NewService(reg, nil, store, defaults, 0)
	runner := benchmark.NewRunner(reg, store, scoring.New(scoring.DefaultWeights), benchmark.Defaults{
		FlashcardCount: 2,
		QuizCount:      2,
		SummaryLength:  domain.LengthMedium,
	}, 1)
	handler := markhttp.NewHandler(service, runner, reg, store)

	body := []byte(`{"content": "mitosis has four phases", "material_kinds": ["flashcards"]}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/benchmark", bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler.HandleBenchmark(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var run domain.BenchmarkRun
	require.NoError(t, json.NewDecoder(w.Body).Decode(&run))
	require.Len(t, run.Cells, 1)
	cells := run.Cells[domain.KindFlashcards]
	require.Contains(t, cells, "canned")
	require.NotContains(t, cells, "echo")
	require.Equal(t, 1, run.Summary.TotalRequests)
}

func TestHandleBenchmark_UnknownKind(t *testing.T) {
	handler := newHandler(t, &fakeStore{})

	body := []byte(`{"content": "x", "material_kinds": ["poems"], "providers": ["echo"]}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/benchmark", bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler.HandleBenchmark(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleDocuments(t *testing.T) {
	store := &fakeStore{documents: []domain.Document{{ID: 1, Filename: "a.md", FileType: "md"}}}
	handler := newHandler(t, store)

	req := httptest.NewRequest(http.MethodGet, "/v1/documents", nil)
	w := httptest.NewRecorder()
	handler.HandleDocuments(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var docs []domain.Document
	require.NoError(t, json.NewDecoder(w.Body).Decode(&docs))
	require.Len(t, docs, 1)
	require.Equal(t, "a.md", docs[0].Filename)
}

func TestHandleBenchmarkRows_FiltersByDocument(t *testing.T) {
	store := &fakeStore{rows: []domain.BenchmarkRow{
		{ID: 1, DocumentID: 3, Provider: "echo"},
		{ID: 2, DocumentID: 9, Provider: "echo"},
	}}
	handler := newHandler(t, store)

	req := httptest.NewRequest(http.MethodGet, "/v1/benchmarks?document_id=3", nil)
	w := httptest.NewRecorder()
	handler.HandleBenchmarkRows(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var rows []domain.BenchmarkRow
	require.NoError(t, json.NewDecoder(w.Body).Decode(&rows))
	require.Len(t, rows, 1)
	require.Equal(t, int64(3), rows[0].DocumentID)

	req = httptest.NewRequest(http.MethodGet, "/v1/benchmarks?document_id=abc", nil)
	w = httptest.NewRecorder()
	handler.HandleBenchmarkRows(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleCompare(t *testing.T) {
	store := &fakeStore{rows: []domain.BenchmarkRow{
		{DocumentID: 3, Provider: "alpha", Model: "m", ResponseTime: 0.5, Cost: 0.001, QualityScore: 8, TotalTokens: 100},
		{DocumentID: 3, Provider: "beta", Model: "m", ResponseTime: 0.9, Cost: 0.002, QualityScore: 7, TotalTokens: 120},
	}}
	handler := newHandler(t, store)

	req := httptest.NewRequest(http.MethodGet, "/v1/compare?document_id=3", nil)
	w := httptest.NewRecorder()
	handler.HandleCompare(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var report benchmark.Report
	require.NoError(t, json.NewDecoder(w.Body).Decode(&report))
	require.Equal(t, 2, report.Summary.TotalRequests)
	require.Len(t, report.ScoreCards, 2)
	require.Equal(t, "alpha", report.Winners["quality"].Provider)
	require.NotEmpty(t, report.Recommendation)
}

func TestHandleProviders(t *testing.T) {
	handler := newHandler(t, &fakeStore{})

	req := httptest.NewRequest(http.MethodGet, "/v1/providers", nil)
	w := httptest.NewRecorder()
	handler.HandleProviders(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var payload map[string][]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&payload))
	require.Equal(t, []string{"echo"}, payload["providers"])
}

func TestHandleHealth(t *testing.T) {
	handler := newHandler(t, &fakeStore{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	handler.HandleHealth(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var payload map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&payload))
	require.Equal(t, "healthy", payload["status"])
}
