package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"dcfengine/pkg/models"
)

// RunStore persists completed valuation runs.
// Supports Hybrid Vault: DB (Primary) + File System (Fallback/Local)
type RunStore struct {
	pool    *pgxpool.Pool
	fileDir string
}

// NewRunStore creates a run store.
// If pool is nil, it falls back to a file-based store in the specified
// directory. If dir is empty it defaults to .cache/valuation/runs.
func NewRunStore(pool *pgxpool.Pool, dir string) *RunStore {
	if pool == nil && dir == "" {
		dir = filepath.Join(".cache", "valuation", "runs")
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			fmt.Printf("[WARNING] Check RunStore dir: %v\n", err)
		}
	}
	return &RunStore{pool: pool, fileDir: dir}
}

// RunRecord is a stored valuation run with its full payload.
type RunRecord struct {
	ID          string              `json:"id"`
	CompanyName string              `json:"company_name"`
	Ticker      string              `json:"ticker"`
	LatestYear  int                 `json:"latest_year"`
	CreatedAt   time.Time           `json:"created_at"`
	Output      *models.ModelOutput `json:"output"`
}

// RunSummary is the listing view of a stored run, without the payload.
type RunSummary struct {
	ID          string    `json:"id"`
	CompanyName string    `json:"company_name"`
	Ticker      string    `json:"ticker"`
	LatestYear  int       `json:"latest_year"`
	CreatedAt   time.Time `json:"created_at"`
}

// Save stores a completed run and returns its generated ID.
func (s *RunStore) Save(ctx context.Context, company *models.CompanyData, output *models.ModelOutput) (string, error) {
	outputJSON, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal run output: %w", err)
	}

	record := RunRecord{
		ID:          uuid.New().String(),
		CompanyName: output.CompanyName,
		CreatedAt:   time.Now(),
		Output:      output,
	}
	if company != nil {
		record.Ticker = company.Ticker
	}
	if output.OperatingModel != nil {
		record.LatestYear = output.OperatingModel.LatestYear
	}

	// 1. Save to DB
	if s.pool != nil {
		query := `
			INSERT INTO valuation_runs (
				id, company_name, ticker, latest_year, output, created_at
			) VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id)
			DO UPDATE SET
				output = EXCLUDED.output,
				created_at = EXCLUDED.created_at
		`
		_, err = s.pool.Exec(ctx, query,
			record.ID, record.CompanyName, record.Ticker, record.LatestYear,
			outputJSON, record.CreatedAt,
		)
		if err != nil {
			return "", fmt.Errorf("failed to save run to db: %w", err)
		}
	}

	// 2. Save to File (Always if configured, or if pool is nil)
	if s.fileDir != "" {
		fileBytes, _ := json.MarshalIndent(record, "", "  ")
		if err := os.WriteFile(s.runPath(record.ID), fileBytes, 0644); err != nil {
			return "", fmt.Errorf("failed to save run to file store: %w", err)
		}
	}

	return record.ID, nil
}

// Load retrieves a stored run by ID. A miss returns (nil, nil).
func (s *RunStore) Load(ctx context.Context, id string) (*RunRecord, error) {
	// 1. Try DB
	if s.pool != nil {
		query := `
			SELECT company_name, ticker, latest_year, output, created_at
			FROM valuation_runs
			WHERE id = $1
			LIMIT 1
		`
		record := RunRecord{ID: id}
		var outputJSON []byte
		err := s.pool.QueryRow(ctx, query, id).Scan(
			&record.CompanyName, &record.Ticker, &record.LatestYear,
			&outputJSON, &record.CreatedAt,
		)
		if err != nil {
			return nil, nil // Miss
		}
		var output models.ModelOutput
		if err := json.Unmarshal(outputJSON, &output); err != nil {
			return nil, fmt.Errorf("failed to unmarshal stored run: %w", err)
		}
		record.Output = &output
		return &record, nil
	}

	// 2. Try File System
	if s.fileDir != "" {
		return s.loadFromFile(s.runPath(id))
	}

	return nil, nil
}

// List returns summaries of stored runs, newest first.
func (s *RunStore) List(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}

	if s.pool != nil {
		query := `
			SELECT id, company_name, ticker, latest_year, created_at
			FROM valuation_runs
			ORDER BY created_at DESC
			LIMIT $1
		`
		rows, err := s.pool.Query(ctx, query, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to list runs: %w", err)
		}
		defer rows.Close()

		var out []RunSummary
		for rows.Next() {
			var r RunSummary
			if err := rows.Scan(&r.ID, &r.CompanyName, &r.Ticker, &r.LatestYear, &r.CreatedAt); err != nil {
				return nil, fmt.Errorf("failed to scan run row: %w", err)
			}
			out = append(out, r)
		}
		return out, rows.Err()
	}

	if s.fileDir == "" {
		return nil, nil
	}

	// File fallback: scan the directory and sort by creation time.
	entries, err := os.ReadDir(s.fileDir)
	if err != nil {
		return nil, nil
	}
	var out []RunSummary
	for _, e := range entries {
		if filepath.Ext(e.Name()) != ".json" {
			continue
		}
		record, err := s.loadFromFile(filepath.Join(s.fileDir, e.Name()))
		if err != nil || record == nil {
			continue
		}
		out = append(out, RunSummary{
			ID:          record.ID,
			CompanyName: record.CompanyName,
			Ticker:      record.Ticker,
			LatestYear:  record.LatestYear,
			CreatedAt:   record.CreatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Internal File Helpers

func (s *RunStore) runPath(id string) string {
	return filepath.Join(s.fileDir, id+".json")
}

func (s *RunStore) loadFromFile(path string) (*RunRecord, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, nil // Not found
	}
	var record RunRecord
	if err := json.Unmarshal(bytes, &record); err != nil {
		return nil, fmt.Errorf("failed to parse stored run %s: %w", filepath.Base(path), err)
	}
	return &record, nil
}
