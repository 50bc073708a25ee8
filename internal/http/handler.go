package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/davidbz/markl/internal/benchmark"
	"github.com/davidbz/markl/internal/domain"
	"github.com/davidbz/markl/internal/observability"
	"github.com/davidbz/markl/internal/study"
)

// Handler handles HTTP requests for the dashboard API.
type Handler struct {
	service  *study.Service
	runner   *benchmark.Runner
	registry domain.ProviderRegistry
	store    domain.Store
}

// NewHandler creates a new HTTP handler (DI constructor).
func NewHandler(
	service *study.Service,
	runner *benchmark.Runner,
	registry domain.ProviderRegistry,
	store domain.Store,
) *Handler {
	return &Handler{
		service:  service,
		runner:   runner,
		registry: registry,
		store:    store,
	}
}

// benchmarkRequest is the POST /v1/benchmark payload.
type benchmarkRequest struct {
	Content    string   `json:"content"`
	Kinds      []string `json:"material_kinds"`
	Providers  []string `json:"providers"`
	DocumentID int64    `json:"document_id,omitempty"`
}

// HandleGenerate processes single generation requests.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Early validation.
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Parse request.
	var req domain.GenerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	if req.Provider == "" {
		http.Error(w, "provider is required", http.StatusBadRequest)
		return
	}

	logger := observability.FromContext(ctx)
	logger.Info("generation request received",
		observability.String("provider", req.Provider),
		observability.String("material", string(req.Kind)),
	)

	result, err := h.service.Generate(ctx, req)
	if err != nil {
		logger.Error("generation failed", observability.Error(err))
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	writeJSON(ctx, w, result)
}

// HandleBenchmark runs a benchmark across providers and material kinds.
func (h *Handler) HandleBenchmark(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req benchmarkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	kinds := make([]domain.MaterialKind, 0, len(req.Kinds))
	for _, raw := range req.Kinds {
		kind, err := domain.ParseKind(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		kinds = append(kinds, kind)
	}
	if len(kinds) == 0 {
		kinds = domain.AllKinds()
	}

	providers := req.Providers
	if len(providers) == 0 {
		names, err := h.registry.Names(ctx)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		providers = benchmark.DefaultProviders(names)
	}

	logger := observability.FromContext(ctx)
	logger.Info("benchmark request received",
		observability.Int("kinds", len(kinds)),
		observability.Int("providers", len(providers)),
	)

	run, err := h.runner.Run(ctx, req.Content, kinds, providers, req.DocumentID)
	if err != nil {
		logger.Error("benchmark failed", observability.Error(err))
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	writeJSON(ctx, w, run)
}

// HandleDocuments lists stored documents.
func (h *Handler) HandleDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	docs, err := h.store.GetAllDocuments(ctx)
	if err != nil {
		observability.FromContext(ctx).Error("failed to list documents", observability.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if docs == nil {
		docs = []domain.Document{}
	}

	writeJSON(ctx, w, docs)
}

// HandleBenchmarkRows lists persisted benchmark rows, optionally filtered
// by the document_id query parameter.
func (h *Handler) HandleBenchmarkRows(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	documentID, err := documentIDParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rows, err := h.store.GetBenchmarks(ctx, documentID)
	if err != nil {
		observability.FromContext(ctx).Error("failed to list benchmarks", observability.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []domain.BenchmarkRow{}
	}

	writeJSON(ctx, w, rows)
}

// HandleCompare builds a provider comparison report from persisted rows.
func (h *Handler) HandleCompare(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	documentID, err := documentIDParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	report, err := h.runner.ComparisonReport(ctx, documentID)
	if err != nil {
		observability.FromContext(ctx).Error("comparison failed", observability.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(ctx, w, report)
}

// HandleProviders lists the configured provider names.
func (h *Handler) HandleProviders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	names, err := h.registry.Names(ctx)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(ctx, w, map[string][]string{"providers": names})
}

// HandleHealth handles health check requests.
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
	}); err != nil {
		// Already written status, can't change it, just log.
		return
	}
}

func documentIDParam(r *http.Request) (int64, error) {
	raw := r.URL.Query().Get("document_id")
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid document_id: %q", raw)
	}
	return id, nil
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	if errors.Is(err, domain.ErrUnknownProvider) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(ctx context.Context, w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		observability.FromContext(ctx).Error("failed to encode response", observability.Error(err))
		http.Error(w, fmt.Sprintf("failed to encode response: %v", err), http.StatusInternalServerError)
	}
}
