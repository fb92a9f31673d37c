// Package audit persists evaluation runs for history and reproducibility.
package audit

import (
	"context"
	"errors"
	"time"

	"github.com/wonny/crisis-audit/internal/collector"
	"github.com/wonny/crisis-audit/internal/engine"
)

// ErrNoRuns no run has been stored yet
var ErrNoRuns = errors.New("audit: no runs recorded")

// Run sources
const (
	SourceLive = "live"
	SourceDemo = "demo"
)

// Run one stored evaluation
type Run struct {
	ID              int64               `json:"id"`
	AuditID         string              `json:"audit_id"`
	ConfigHash      string              `json:"config_hash"`
	GitCommit       string              `json:"git_commit,omitempty"`
	Source          string              `json:"source"`
	AsOf            time.Time           `json:"as_of"`
	CreatedAt       time.Time           `json:"created_at"`
	Overall         engine.Level        `json:"overall"`
	LiquidityStress engine.Flag         `json:"liquidity_stress"`
	Report          engine.Report       `json:"report"`
	Failures        []collector.Failure `json:"failures,omitempty"`
}

// Summary 이력 조회용 요약
type Summary struct {
	ID         int64        `json:"id"`
	AsOf       time.Time    `json:"as_of"`
	Overall    engine.Level `json:"overall"`
	Price      engine.Level `json:"price"`
	Liquidity  engine.Level `json:"liquidity"`
	Durability engine.Level `json:"durability"`
	ConfigHash string       `json:"config_hash"`
	Failures   int          `json:"failures"`
}

// Summarize reduces a run to its headline levels
func (r *Run) Summarize() Summary {
	return Summary{
		ID:         r.ID,
		AsOf:       r.AsOf,
		Overall:    r.Overall,
		Price:      r.Report.Price.Level,
		Liquidity:  r.Report.Liquidity.Composite.Level,
		Durability: r.Report.Durability.Aggregate.Level,
		ConfigHash: r.ConfigHash,
		Failures:   len(r.Failures),
	}
}

// Store run persistence
type Store interface {
	Save(ctx context.Context, run *Run) error
	Latest(ctx context.Context) (*Run, error)
	History(ctx context.Context, limit int) ([]Summary, error)
}
