package domain

import (
	"fmt"
	"time"
)

// MaterialKind identifies a type of study material.
type MaterialKind string

const (
	KindFlashcards MaterialKind = "flashcards"
	KindQuiz       MaterialKind = "quiz"
	KindSummary    MaterialKind = "summary"
	KindStudyGuide MaterialKind = "study_guide"
)

// AllKinds returns every supported material kind in generation order.
func AllKinds() []MaterialKind {
	return []MaterialKind{KindFlashcards, KindQuiz, KindSummary, KindStudyGuide}
}

// Valid reports whether the kind is one of the supported material kinds.
func (k MaterialKind) Valid() bool {
	switch k {
	case KindFlashcards, KindQuiz, KindSummary, KindStudyGuide:
		return true
	default:
		return false
	}
}

// ParseKind converts a string to a MaterialKind.
func ParseKind(s string) (MaterialKind, error) {
	kind := MaterialKind(s)
	if !kind.Valid() {
		return "", fmt.Errorf("unknown material kind: %q", s)
	}
	return kind, nil
}

// SummaryLength selects how long a generated summary should be.
type SummaryLength string

const (
	LengthShort  SummaryLength = "short"
	LengthMedium SummaryLength = "medium"
	LengthLong   SummaryLength = "long"
)

// GenerationRequest describes a single study material generation.
// It is immutable once issued.
type GenerationRequest struct {
	Content    string        `json:"content"`
	Kind       MaterialKind  `json:"material_kind"`
	Count      int           `json:"count,omitempty"`
	Provider   string        `json:"provider"`
	Length     SummaryLength `json:"length,omitempty"`
	DocumentID int64         `json:"document_id,omitempty"`
}

// Metrics captures the measured and derived figures of one provider call.
// Cost is derived from the price table, never measured; it is 0 when the
// (provider, model) pair has no registered pricing.
type Metrics struct {
	Provider     string  `json:"provider"`
	Model        string  `json:"model"`
	ResponseTime float64 `json:"response_time"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	TotalTokens  int     `json:"total_tokens"`
	Cost         float64 `json:"cost"`
	FinishReason string  `json:"finish_reason"`
}

// GenerationResult is the outcome of one material generation.
// Payload is always present; when extraction failed it holds the
// kind-specific fallback shape, RawResponse carries the provider text and
// ParseError the extraction failure.
type GenerationResult struct {
	Kind           MaterialKind `json:"material_kind"`
	Provider       string       `json:"provider"`
	Model          string       `json:"model"`
	Payload        any          `json:"payload"`
	Metrics        Metrics      `json:"metrics"`
	RequestedCount int          `json:"requested_count,omitempty"`
	RawResponse    string       `json:"raw_response,omitempty"`
	ParseError     string       `json:"parse_error,omitempty"`
}

// Cell is one (material kind, provider) pairing inside a benchmark run.
// Exactly one of Result and Error is meaningful.
type Cell struct {
	Result *GenerationResult `json:"result,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// Failed reports whether the cell holds an error entry.
func (c Cell) Failed() bool {
	return c.Error != ""
}

// RunSummary aggregates numeric data across benchmark rows.
type RunSummary struct {
	TotalRequests   int     `json:"total_requests"`
	TotalCost       float64 `json:"total_cost"`
	AvgResponseTime float64 `json:"avg_response_time"`
	TotalTokens     int     `json:"total_tokens"`
	AvgQualityScore float64 `json:"avg_quality_score"`
}

// BenchmarkRun maps material kind -> provider -> cell for one invocation.
// It is built once and immutable after construction.
type BenchmarkRun struct {
	ID         string                           `json:"id"`
	DocumentID int64                            `json:"document_id,omitempty"`
	Cells      map[MaterialKind]map[string]Cell `json:"cells"`
	Summary    RunSummary                       `json:"summary"`
	StartedAt  time.Time                        `json:"started_at"`
}

// BenchmarkRow is the persisted form of one successful benchmark cell.
type BenchmarkRow struct {
	ID           int64        `json:"id"`
	DocumentID   int64        `json:"document_id"`
	Kind         MaterialKind `json:"material_type"`
	Provider     string       `json:"provider"`
	Model        string       `json:"model"`
	ResponseTime float64      `json:"response_time"`
	InputTokens  int          `json:"input_tokens"`
	OutputTokens int          `json:"output_tokens"`
	TotalTokens  int          `json:"total_tokens"`
	Cost         float64      `json:"cost"`
	QualityScore float64      `json:"quality_score"`
	CreatedAt    time.Time    `json:"created_at"`
}

// ScoreCard summarizes one provider across a set of benchmark rows.
// Recomputed on demand, never mutated in place.
type ScoreCard struct {
	Provider   string  `json:"provider"`
	AvgQuality float64 `json:"avg_quality_score"`
	Composite  float64 `json:"composite_score"`
	Samples    int     `json:"sample_count"`
}

// Document is a parsed source document as stored.
type Document struct {
	ID        int64     `json:"id"`
	Filename  string    `json:"filename"`
	Content   string    `json:"content"`
	FileType  string    `json:"file_type"`
	CreatedAt time.Time `json:"created_at"`
}

// StudyMaterial is a persisted generation result.
// Content holds the serialized GenerationResult.
type StudyMaterial struct {
	ID         int64        `json:"id"`
	DocumentID int64        `json:"document_id"`
	Kind       MaterialKind `json:"material_type"`
	Content    []byte       `json:"content"`
	Provider   string       `json:"provider"`
	Model      string       `json:"model"`
	CreatedAt  time.Time    `json:"created_at"`
}
