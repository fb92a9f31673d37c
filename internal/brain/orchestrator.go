// Package brain runs one evaluation cycle: collect → thresholds → evaluate → persist → publish.
package brain

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/crisis-audit/internal/audit"
	"github.com/wonny/crisis-audit/internal/auditconfig"
	"github.com/wonny/crisis-audit/internal/collector"
	"github.com/wonny/crisis-audit/internal/engine"
	"github.com/wonny/crisis-audit/internal/metrics"
	"github.com/wonny/crisis-audit/pkg/logger"
)

// Collector produces one snapshot per call (collector.Collector, collector.DemoCollector)
type Collector interface {
	Collect(ctx context.Context) (*collector.Result, error)
}

// Publisher receives every completed run (websocket hub)
type Publisher interface {
	Publish(run *audit.Run)
}

// Orchestrator coordinates the evaluation cycle
// ⭐ SSOT: 평가 사이클 조율은 여기서만
type Orchestrator struct {
	cfg        *auditconfig.Config
	run        *auditconfig.RunSnapshot
	collector  Collector
	store      audit.Store
	metrics    *metrics.Registry
	publishers []Publisher
	source     string
	logger     *logger.Logger

	mu sync.Mutex // one cycle at a time
}

// Options optional collaborators
type Options struct {
	Metrics    *metrics.Registry
	Publishers []Publisher
	Source     string // audit.SourceLive | audit.SourceDemo
}

// RunResult holds the results of one cycle
type RunResult struct {
	Run             *audit.Run
	Thresholds      engine.Thresholds
	UnknownKeys     []string // override keys the thresholds did not recognise
	OverrideError   error    // overrides rejected; configured thresholds used instead
	CompletedStages []string
	Duration        time.Duration
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(
	cfg *auditconfig.Config,
	run *auditconfig.RunSnapshot,
	col Collector,
	store audit.Store,
	log *logger.Logger,
	opts Options,
) *Orchestrator {
	if opts.Source == "" {
		opts.Source = audit.SourceLive
	}
	return &Orchestrator{
		cfg:        cfg,
		run:        run,
		collector:  col,
		store:      store,
		metrics:    opts.Metrics,
		publishers: opts.Publishers,
		source:     opts.Source,
		logger:     log.WithComponent("brain"),
	}
}

// AddPublisher registers a publisher after construction
func (o *Orchestrator) AddPublisher(p Publisher) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.publishers = append(o.publishers, p)
}

// Config returns the audit configuration in use
func (o *Orchestrator) Config() *auditconfig.Config {
	return o.cfg
}

// Run executes one cycle
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	start := time.Now()
	result := &RunResult{CompletedStages: make([]string, 0, 4)}

	o.logger.WithFields(map[string]interface{}{
		"audit_id":    o.cfg.Meta.AuditID,
		"config_hash": o.run.ConfigHash,
		"source":      o.source,
	}).Info("Starting evaluation run")

	fail := func(stage string, err error) (*RunResult, error) {
		if o.metrics != nil {
			o.metrics.ObserveRun(false, time.Since(start))
		}
		return result, fmt.Errorf("%s failed: %w", stage, err)
	}

	// S1: Collect
	collected, err := o.collector.Collect(ctx)
	if err != nil {
		return fail("collect", err)
	}
	result.CompletedStages = append(result.CompletedStages, "collect")

	// S2: Thresholds
	th, err := o.thresholds(collected.Overrides, result)
	if err != nil {
		return fail("thresholds", err)
	}
	result.Thresholds = th
	result.CompletedStages = append(result.CompletedStages, "thresholds")

	// S3: Evaluate
	report := engine.New(th).Evaluate(collected.Snapshot)
	run := &audit.Run{
		AuditID:         o.cfg.Meta.AuditID,
		ConfigHash:      o.run.ConfigHash,
		GitCommit:       o.run.GitCommit,
		Source:          o.source,
		AsOf:            report.AsOf,
		Overall:         report.Overall,
		LiquidityStress: report.LiquidityStress,
		Report:          report,
		Failures:        collected.Failures,
	}
	result.Run = run
	result.CompletedStages = append(result.CompletedStages, "evaluate")

	// S4: Persist
	if err := o.store.Save(ctx, run); err != nil {
		return fail("persist", err)
	}
	result.CompletedStages = append(result.CompletedStages, "persist")

	// S5: Publish
	result.Duration = time.Since(start)
	if o.metrics != nil {
		o.metrics.ObserveReport(report)
		for _, f := range collected.Failures {
			o.metrics.ObserveFailure(f.Source)
		}
		o.metrics.ObserveRun(true, result.Duration)
	}
	for _, p := range o.publishers {
		p.Publish(run)
	}

	o.logger.WithFields(map[string]interface{}{
		"run_id":    run.ID,
		"overall":   run.Overall.String(),
		"stress":    run.LiquidityStress.String(),
		"failures":  len(run.Failures),
		"duration":  result.Duration.Seconds(),
		"price":     report.Price.Level.String(),
		"liquidity": report.Liquidity.Composite.Level.String(),
	}).Info("Evaluation run completed")

	return result, nil
}

// thresholds applies runtime overrides; a rejected override set falls back to the file config
func (o *Orchestrator) thresholds(overrides map[string]float64, result *RunResult) (engine.Thresholds, error) {
	th, unknown, err := o.cfg.EngineThresholds(overrides)
	result.UnknownKeys = unknown
	if len(unknown) > 0 {
		o.logger.WithField("keys", unknown).Warn("Ignoring unrecognised override keys")
	}
	if err == nil {
		return th, nil
	}

	result.OverrideError = err
	o.logger.WithError(err).Warn("Runtime overrides rejected, using configured thresholds")
	th, _, err = o.cfg.EngineThresholds(nil)
	return th, err
}

// Stress collects a fresh snapshot and sweeps it over unit fees
// (the configured stress fees when fees is empty)
func (o *Orchestrator) Stress(ctx context.Context, fees []float64) ([]engine.StressPoint, error) {
	if len(fees) == 0 {
		fees = o.cfg.Sensitivity.StressUnitFees
	}

	collected, err := o.collector.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect failed: %w", err)
	}

	var scratch RunResult
	th, err := o.thresholds(collected.Overrides, &scratch)
	if err != nil {
		return nil, err
	}
	if len(fees) == 0 {
		fees = []float64{th.Burden.UnitFee}
	}
	return engine.New(th).StressSweep(collected.Snapshot, fees), nil
}

// Latest returns the most recent stored run
func (o *Orchestrator) Latest(ctx context.Context) (*audit.Run, error) {
	return o.store.Latest(ctx)
}

// History returns recent run summaries
func (o *Orchestrator) History(ctx context.Context, limit int) ([]audit.Summary, error) {
	return o.store.History(ctx, limit)
}
