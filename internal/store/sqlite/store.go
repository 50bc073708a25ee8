// Package sqlite implements the local store of record on a single
// SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/davidbz/markl/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	filename   TEXT NOT NULL,
	content    TEXT NOT NULL,
	file_type  TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS study_materials (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	document_id   INTEGER NOT NULL REFERENCES documents(id),
	material_type TEXT NOT NULL,
	content       BLOB NOT NULL,
	provider      TEXT NOT NULL,
	model         TEXT NOT NULL,
	created_at    TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS benchmarks (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	document_id   INTEGER NOT NULL,
	material_type TEXT NOT NULL,
	provider      TEXT NOT NULL,
	model         TEXT NOT NULL,
	response_time REAL NOT NULL,
	input_tokens  INTEGER NOT NULL,
	output_tokens INTEGER NOT NULL,
	total_tokens  INTEGER NOT NULL,
	cost          REAL NOT NULL,
	quality_score REAL NOT NULL,
	created_at    TIMESTAMP NOT NULL
);
`

// Store is a domain.Store backed by a single SQLite file. The connection
// pool is capped at one connection so writes serialize.
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if needed) the database at path and applies
// the schema.
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("database path cannot be empty")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveDocument inserts a document and returns its id.
func (s *Store) SaveDocument(ctx context.Context, doc *domain.Document) (int64, error) {
	if doc == nil {
		return 0, errors.New("document cannot be nil")
	}

	createdAt := doc.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (filename, content, file_type, created_at) VALUES (?, ?, ?, ?)`,
		doc.Filename, doc.Content, doc.FileType, createdAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert document: %w", err)
	}

	return res.LastInsertId()
}

// SaveStudyMaterial serializes the result as JSON and stores it under the
// document.
func (s *Store) SaveStudyMaterial(ctx context.Context, documentID int64, result *domain.GenerationResult) (int64, error) {
	if result == nil {
		return 0, errors.New("result cannot be nil")
	}

	content, err := json.Marshal(result)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize result: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO study_materials (document_id, material_type, content, provider, model, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		documentID, string(result.Kind), content, result.Provider, result.Model, time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert study material: %w", err)
	}

	return res.LastInsertId()
}

// SaveBenchmarkRow inserts one successful benchmark cell.
func (s *Store) SaveBenchmarkRow(ctx context.Context, row *domain.BenchmarkRow) (int64, error) {
	if row == nil {
		return 0, errors.New("row cannot be nil")
	}

	createdAt := row.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO benchmarks (document_id, material_type, provider, model, response_time,
		 input_tokens, output_tokens, total_tokens, cost, quality_score, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.DocumentID, string(row.Kind), row.Provider, row.Model, row.ResponseTime,
		row.InputTokens, row.OutputTokens, row.TotalTokens, row.Cost, row.QualityScore, createdAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert benchmark row: %w", err)
	}

	return res.LastInsertId()
}

// GetBenchmarks returns persisted rows, newest last, filtered to one
// document when documentID is non-zero.
func (s *Store) GetBenchmarks(ctx context.Context, documentID int64) ([]domain.BenchmarkRow, error) {
	query := `SELECT id, document_id, material_type, provider, model, response_time,
		 input_tokens, output_tokens, total_tokens, cost, quality_score, created_at
		 FROM benchmarks`
	args := []any{}
	if documentID != 0 {
		query += ` WHERE document_id = ?`
		args = append(args, documentID)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query benchmarks: %w", err)
	}
	defer rows.Close()

	var out []domain.BenchmarkRow
	for rows.Next() {
		var row domain.BenchmarkRow
		var kind string
		if err := rows.Scan(&row.ID, &row.DocumentID, &kind, &row.Provider, &row.Model,
			&row.ResponseTime, &row.InputTokens, &row.OutputTokens, &row.TotalTokens,
			&row.Cost, &row.QualityScore, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan benchmark row: %w", err)
		}
		row.Kind = domain.MaterialKind(kind)
		out = append(out, row)
	}

	return out, rows.Err()
}

// GetAllDocuments returns every stored document, oldest first.
func (s *Store) GetAllDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, filename, content, file_type, created_at FROM documents ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var out []domain.Document
	for rows.Next() {
		var doc domain.Document
		if err := rows.Scan(&doc.ID, &doc.Filename, &doc.Content, &doc.FileType, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		out = append(out, doc)
	}

	return out, rows.Err()
}

// GetStudyMaterials returns the materials generated for one document.
func (s *Store) GetStudyMaterials(ctx context.Context, documentID int64) ([]domain.StudyMaterial, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, document_id, material_type, content, provider, model, created_at
		 FROM study_materials WHERE document_id = ? ORDER BY id`, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query study materials: %w", err)
	}
	defer rows.Close()

	var out []domain.StudyMaterial
	for rows.Next() {
		var m domain.StudyMaterial
		var kind string
		if err := rows.Scan(&m.ID, &m.DocumentID, &kind, &m.Content, &m.Provider, &m.Model, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan study material: %w", err)
		}
		m.Kind = domain.MaterialKind(kind)
		out = append(out, m)
	}

	return out, rows.Err()
}

// DeleteDocument removes a document together with its materials and
// benchmark rows in one transaction.
func (s *Store) DeleteDocument(ctx context.Context, documentID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{
		`DELETE FROM benchmarks WHERE document_id = ?`,
		`DELETE FROM study_materials WHERE document_id = ?`,
		`DELETE FROM documents WHERE id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, documentID); err != nil {
			return fmt.Errorf("failed to delete document data: %w", err)
		}
	}

	return tx.Commit()
}
