package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/crisis-audit/pkg/database"
)

// Schema DDL for the run history
var Schema = []string{
	`CREATE SCHEMA IF NOT EXISTS audit`,
	`CREATE TABLE IF NOT EXISTS audit.runs (
		id               BIGSERIAL PRIMARY KEY,
		audit_id         TEXT        NOT NULL,
		config_hash      TEXT        NOT NULL,
		git_commit       TEXT        NOT NULL DEFAULT '',
		source           TEXT        NOT NULL,
		as_of            TIMESTAMPTZ NOT NULL,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		overall          TEXT        NOT NULL,
		liquidity_stress BOOLEAN,
		report           JSONB       NOT NULL,
		failures         JSONB       NOT NULL DEFAULT '[]'
	)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_as_of ON audit.runs (as_of DESC)`,
}

// Repository handles run persistence
// ⭐ SSOT: audit.runs 저장/조회는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new audit repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Migrate applies Schema
func Migrate(ctx context.Context, db *database.DB) error {
	if err := db.ApplySchema(ctx, Schema...); err != nil {
		return fmt.Errorf("failed to apply audit schema: %w", err)
	}
	return nil
}

// Save inserts a run and sets its ID and CreatedAt
func (r *Repository) Save(ctx context.Context, run *Run) error {
	reportJSON, err := json.Marshal(run.Report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	failuresJSON, err := json.Marshal(run.Failures)
	if err != nil {
		return fmt.Errorf("failed to marshal failures: %w", err)
	}

	query := `
		INSERT INTO audit.runs (
			audit_id, config_hash, git_commit, source, as_of, overall,
			liquidity_stress, report, failures
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`

	err = r.pool.QueryRow(ctx, query,
		run.AuditID, run.ConfigHash, run.GitCommit, run.Source, run.AsOf,
		run.Overall.String(), run.LiquidityStress.Bool(), reportJSON, failuresJSON,
	).Scan(&run.ID, &run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// Latest returns the newest run by as_of
func (r *Repository) Latest(ctx context.Context) (*Run, error) {
	query := `
		SELECT id, audit_id, config_hash, git_commit, source, as_of, created_at, report, failures
		FROM audit.runs
		ORDER BY as_of DESC, id DESC
		LIMIT 1
	`

	var run Run
	var reportJSON, failuresJSON []byte
	err := r.pool.QueryRow(ctx, query).Scan(
		&run.ID, &run.AuditID, &run.ConfigHash, &run.GitCommit, &run.Source,
		&run.AsOf, &run.CreatedAt, &reportJSON, &failuresJSON,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoRuns
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}

	if err := decodeRun(&run, reportJSON, failuresJSON); err != nil {
		return nil, err
	}
	return &run, nil
}

// History returns up to limit summaries, newest first
func (r *Repository) History(ctx context.Context, limit int) ([]Summary, error) {
	query := `
		SELECT id, config_hash, as_of, report, failures
		FROM audit.runs
		ORDER BY as_of DESC, id DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	summaries := make([]Summary, 0)
	for rows.Next() {
		var run Run
		var reportJSON, failuresJSON []byte
		if err := rows.Scan(&run.ID, &run.ConfigHash, &run.AsOf, &reportJSON, &failuresJSON); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if err := decodeRun(&run, reportJSON, failuresJSON); err != nil {
			return nil, err
		}
		summaries = append(summaries, run.Summarize())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return summaries, nil
}

// decodeRun restores the report; Overall and the stress flag come from the report itself
func decodeRun(run *Run, reportJSON, failuresJSON []byte) error {
	if err := json.Unmarshal(reportJSON, &run.Report); err != nil {
		return fmt.Errorf("failed to unmarshal report: %w", err)
	}
	if err := json.Unmarshal(failuresJSON, &run.Failures); err != nil {
		return fmt.Errorf("failed to unmarshal failures: %w", err)
	}
	run.Overall = run.Report.Overall
	run.LiquidityStress = run.Report.LiquidityStress
	return nil
}

// Prune deletes runs with as_of before the cutoff
func (r *Repository) Prune(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM audit.runs WHERE as_of < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	return tag.RowsAffected(), nil
}
